package model

import (
	"errors"
	"time"

	"github.com/gomodule/redigo/redis"
)

// NewRedisPool builds the redigo connection pool used by RedisStore.
func NewRedisPool(address, password string, db, maxIdle, maxActive int, idleTimeout time.Duration) *redis.Pool {
	return &redis.Pool{
		MaxIdle:     maxIdle,
		MaxActive:   maxActive,
		IdleTimeout: idleTimeout,
		Dial: func() (redis.Conn, error) {
			return redis.Dial("tcp", address, redis.DialPassword(password), redis.DialDatabase(db))
		},
		TestOnBorrow: func(c redis.Conn, t time.Time) error {
			if time.Since(t) < time.Minute {
				return nil
			}
			_, err := c.Do("PING")
			return err
		},
	}
}

// RedisStore is the Store driver backed by a redigo pool. Every method takes
// one connection from the pool and issues a single command.
type RedisStore struct {
	pool *redis.Pool
}

func NewRedisStore(pl *redis.Pool) *RedisStore {
	return &RedisStore{pool: pl}
}

func nilErr(err error) error {
	if errors.Is(err, redis.ErrNil) {
		return ErrNil
	}
	return err
}

func (rs *RedisStore) do(cmd string, args ...interface{}) (interface{}, error) {
	conn := rs.pool.Get()
	defer conn.Close()
	return conn.Do(cmd, args...)
}

func (rs *RedisStore) Ping() error {
	_, err := rs.do("PING")
	return err
}

func (rs *RedisStore) Get(key string) (string, error) {
	v, err := redis.String(rs.do("GET", key))
	return v, nilErr(err)
}

func (rs *RedisStore) Set(key, value string) error {
	_, err := rs.do("SET", key, value)
	return err
}

func (rs *RedisStore) Del(keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	_, err := rs.do("DEL", redis.Args{}.AddFlat(keys)...)
	return err
}

func (rs *RedisStore) HSet(key, field, value string) error {
	_, err := rs.do("HSET", key, field, value)
	return err
}

func (rs *RedisStore) HMSet(key string, fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}
	_, err := rs.do("HMSET", redis.Args{}.Add(key).AddFlat(fields)...)
	return err
}

func (rs *RedisStore) HGet(key, field string) (string, error) {
	v, err := redis.String(rs.do("HGET", key, field))
	return v, nilErr(err)
}

func (rs *RedisStore) HExists(key, field string) (bool, error) {
	return redis.Bool(rs.do("HEXISTS", key, field))
}

func (rs *RedisStore) HDel(key string, fields ...string) error {
	if len(fields) == 0 {
		return nil
	}
	_, err := rs.do("HDEL", redis.Args{}.Add(key).AddFlat(fields)...)
	return err
}

func (rs *RedisStore) HLen(key string) (int, error) {
	return redis.Int(rs.do("HLEN", key))
}

func (rs *RedisStore) HKeys(key string) ([]string, error) {
	return redis.Strings(rs.do("HKEYS", key))
}

func (rs *RedisStore) HGetAll(key string) (map[string]string, error) {
	return redis.StringMap(rs.do("HGETALL", key))
}

func (rs *RedisStore) HIncrBy(key, field string, delta int64) (int64, error) {
	return redis.Int64(rs.do("HINCRBY", key, field, delta))
}

func (rs *RedisStore) SAdd(key, member string) (bool, error) {
	n, err := redis.Int(rs.do("SADD", key, member))
	return n > 0, err
}

func (rs *RedisStore) SRem(key, member string) (bool, error) {
	n, err := redis.Int(rs.do("SREM", key, member))
	return n > 0, err
}

func (rs *RedisStore) SIsMember(key, member string) (bool, error) {
	return redis.Bool(rs.do("SISMEMBER", key, member))
}

func (rs *RedisStore) SCard(key string) (int, error) {
	return redis.Int(rs.do("SCARD", key))
}

func (rs *RedisStore) SMembers(key string) ([]string, error) {
	return redis.Strings(rs.do("SMEMBERS", key))
}

func (rs *RedisStore) LPush(key string, values ...string) error {
	if len(values) == 0 {
		return nil
	}
	_, err := rs.do("LPUSH", redis.Args{}.Add(key).AddFlat(values)...)
	return err
}

func (rs *RedisStore) LLen(key string) (int, error) {
	return redis.Int(rs.do("LLEN", key))
}

func (rs *RedisStore) LRange(key string, start, stop int) ([]string, error) {
	return redis.Strings(rs.do("LRANGE", key, start, stop))
}

func (rs *RedisStore) Close() error {
	return rs.pool.Close()
}
