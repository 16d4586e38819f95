package model

import (
	goredis "github.com/go-redis/redis"
)

// GoRedisStore is the Store driver backed by a go-redis client.
type GoRedisStore struct {
	client *goredis.Client
}

func NewGoRedisStore(addr, password string, db int) *GoRedisStore {
	return &GoRedisStore{
		client: goredis.NewClient(&goredis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
	}
}

func goNil(err error) error {
	if err == goredis.Nil {
		return ErrNil
	}
	return err
}

func (c *GoRedisStore) Ping() error {
	return c.client.Ping().Err()
}

func (c *GoRedisStore) Get(key string) (string, error) {
	v, err := c.client.Get(key).Result()
	return v, goNil(err)
}

func (c *GoRedisStore) Set(key, value string) error {
	return c.client.Set(key, value, 0).Err()
}

func (c *GoRedisStore) Del(keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(keys...).Err()
}

func (c *GoRedisStore) HSet(key, field, value string) error {
	return c.client.HSet(key, field, value).Err()
}

func (c *GoRedisStore) HMSet(key string, fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}
	values := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		values[k] = v
	}
	return c.client.HMSet(key, values).Err()
}

func (c *GoRedisStore) HGet(key, field string) (string, error) {
	v, err := c.client.HGet(key, field).Result()
	return v, goNil(err)
}

func (c *GoRedisStore) HExists(key, field string) (bool, error) {
	return c.client.HExists(key, field).Result()
}

func (c *GoRedisStore) HDel(key string, fields ...string) error {
	if len(fields) == 0 {
		return nil
	}
	return c.client.HDel(key, fields...).Err()
}

func (c *GoRedisStore) HLen(key string) (int, error) {
	n, err := c.client.HLen(key).Result()
	return int(n), err
}

func (c *GoRedisStore) HKeys(key string) ([]string, error) {
	return c.client.HKeys(key).Result()
}

func (c *GoRedisStore) HGetAll(key string) (map[string]string, error) {
	return c.client.HGetAll(key).Result()
}

func (c *GoRedisStore) HIncrBy(key, field string, delta int64) (int64, error) {
	return c.client.HIncrBy(key, field, delta).Result()
}

func (c *GoRedisStore) SAdd(key, member string) (bool, error) {
	n, err := c.client.SAdd(key, member).Result()
	return n > 0, err
}

func (c *GoRedisStore) SRem(key, member string) (bool, error) {
	n, err := c.client.SRem(key, member).Result()
	return n > 0, err
}

func (c *GoRedisStore) SIsMember(key, member string) (bool, error) {
	return c.client.SIsMember(key, member).Result()
}

func (c *GoRedisStore) SCard(key string) (int, error) {
	n, err := c.client.SCard(key).Result()
	return int(n), err
}

func (c *GoRedisStore) SMembers(key string) ([]string, error) {
	return c.client.SMembers(key).Result()
}

func (c *GoRedisStore) LPush(key string, values ...string) error {
	if len(values) == 0 {
		return nil
	}
	args := make([]interface{}, len(values))
	for i, v := range values {
		args[i] = v
	}
	return c.client.LPush(key, args...).Err()
}

func (c *GoRedisStore) LLen(key string) (int, error) {
	n, err := c.client.LLen(key).Result()
	return int(n), err
}

func (c *GoRedisStore) LRange(key string, start, stop int) ([]string, error) {
	return c.client.LRange(key, int64(start), int64(stop)).Result()
}

func (c *GoRedisStore) Close() error {
	return c.client.Close()
}
