package model

import (
	"fmt"
	"strings"
	"time"
)

// Store is the backing-store contract: single-command atomic string, hash,
// set and list primitives. No multi-key transactions are assumed.
type Store interface {
	Ping() error

	Get(key string) (string, error)
	Set(key, value string) error
	Del(keys ...string) error

	HSet(key, field, value string) error
	// HMSet writes several fields of one hash in a single command.
	HMSet(key string, fields map[string]string) error
	HGet(key, field string) (string, error)
	HExists(key, field string) (bool, error)
	HDel(key string, fields ...string) error
	HLen(key string) (int, error)
	HKeys(key string) ([]string, error)
	HGetAll(key string) (map[string]string, error)
	HIncrBy(key, field string, delta int64) (int64, error)

	// SAdd reports whether member was newly added.
	SAdd(key, member string) (bool, error)
	SRem(key, member string) (bool, error)
	SIsMember(key, member string) (bool, error)
	SCard(key string) (int, error)
	SMembers(key string) ([]string, error)

	LPush(key string, values ...string) error
	LLen(key string) (int, error)
	LRange(key string, start, stop int) ([]string, error)

	Close() error
}

// StoreOptions selects and configures a Store driver.
type StoreOptions struct {
	Driver      string // redigo, goredis or memory
	Addr        string
	Password    string
	DB          int
	MaxIdle     int
	MaxActive   int
	IdleTimeout time.Duration
}

// OpenStore builds the driver named by opts and checks that it answers.
func OpenStore(opts StoreOptions) (Store, error) {
	var s Store
	switch strings.ToLower(opts.Driver) {
	case "", "redigo", "redis":
		s = NewRedisStore(NewRedisPool(opts.Addr, opts.Password, opts.DB, opts.MaxIdle, opts.MaxActive, opts.IdleTimeout))
	case "goredis", "go-redis":
		s = NewGoRedisStore(opts.Addr, opts.Password, opts.DB)
	case "memory", "mem":
		s = NewMemStore()
	default:
		return nil, fmt.Errorf("unknown store driver %q", opts.Driver)
	}
	if err := s.Ping(); err != nil {
		s.Close()
		return nil, fmt.Errorf("ping %s store at %s: %w", opts.Driver, opts.Addr, err)
	}
	return s, nil
}
