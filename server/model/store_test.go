package model

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// drivers returns one fresh Store per driver.
func drivers(t *testing.T) map[string]Store {
	t.Helper()
	mr := miniredis.RunT(t)
	redigo := NewRedisStore(NewRedisPool(mr.Addr(), "", 0, 4, 0, time.Minute))
	goredis := NewGoRedisStore(mr.Addr(), "", 1)
	t.Cleanup(func() {
		redigo.Close()
		goredis.Close()
	})
	return map[string]Store{
		"memory":  NewMemStore(),
		"redigo":  redigo,
		"goredis": goredis,
	}
}

func TestStoreStrings(t *testing.T) {
	for name, s := range drivers(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Ping())
			_, err := s.Get("missing")
			assert.ErrorIs(t, err, ErrNil)

			require.NoError(t, s.Set("k", "v"))
			v, err := s.Get("k")
			require.NoError(t, err)
			assert.Equal(t, "v", v)

			require.NoError(t, s.Del("k"))
			_, err = s.Get("k")
			assert.ErrorIs(t, err, ErrNil)
		})
	}
}

func TestStoreHashes(t *testing.T) {
	for name, s := range drivers(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.HGet("h", "f")
			assert.ErrorIs(t, err, ErrNil)

			require.NoError(t, s.HSet("h", "a", "1"))
			require.NoError(t, s.HMSet("h", map[string]string{"b": "2", "c": "3"}))

			v, err := s.HGet("h", "b")
			require.NoError(t, err)
			assert.Equal(t, "2", v)

			ok, err := s.HExists("h", "c")
			require.NoError(t, err)
			assert.True(t, ok)

			n, err := s.HLen("h")
			require.NoError(t, err)
			assert.Equal(t, 3, n)

			keys, err := s.HKeys("h")
			require.NoError(t, err)
			assert.ElementsMatch(t, []string{"a", "b", "c"}, keys)

			require.NoError(t, s.HDel("h", "a", "b"))
			all, err := s.HGetAll("h")
			require.NoError(t, err)
			assert.Equal(t, map[string]string{"c": "3"}, all)

			all, err = s.HGetAll("nothing")
			require.NoError(t, err)
			assert.Empty(t, all)
		})
	}
}

func TestStoreHIncrBy(t *testing.T) {
	for name, s := range drivers(t) {
		t.Run(name, func(t *testing.T) {
			n, err := s.HIncrBy("c", "x", 1)
			require.NoError(t, err)
			assert.Equal(t, int64(1), n)
			n, err = s.HIncrBy("c", "x", 4)
			require.NoError(t, err)
			assert.Equal(t, int64(5), n)
			n, err = s.HIncrBy("c", "x", -6)
			require.NoError(t, err)
			assert.Equal(t, int64(-1), n)
		})
	}
}

func TestStoreSets(t *testing.T) {
	for name, s := range drivers(t) {
		t.Run(name, func(t *testing.T) {
			added, err := s.SAdd("s", "1001")
			require.NoError(t, err)
			assert.True(t, added)
			added, err = s.SAdd("s", "1001")
			require.NoError(t, err)
			assert.False(t, added, "second add of the same member")
			_, err = s.SAdd("s", "1002")
			require.NoError(t, err)

			ok, err := s.SIsMember("s", "1002")
			require.NoError(t, err)
			assert.True(t, ok)

			n, err := s.SCard("s")
			require.NoError(t, err)
			assert.Equal(t, 2, n)

			members, err := s.SMembers("s")
			require.NoError(t, err)
			assert.ElementsMatch(t, []string{"1001", "1002"}, members)

			removed, err := s.SRem("s", "1001")
			require.NoError(t, err)
			assert.True(t, removed)
			removed, err = s.SRem("s", "1001")
			require.NoError(t, err)
			assert.False(t, removed)
		})
	}
}

func TestStoreLists(t *testing.T) {
	for name, s := range drivers(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.LPush("l", "a"))
			require.NoError(t, s.LPush("l", "b", "c"))

			n, err := s.LLen("l")
			require.NoError(t, err)
			assert.Equal(t, 3, n)

			all, err := s.LRange("l", 0, -1)
			require.NoError(t, err)
			assert.Equal(t, []string{"c", "b", "a"}, all)

			head, err := s.LRange("l", 0, 0)
			require.NoError(t, err)
			assert.Equal(t, []string{"c"}, head)

			tail, err := s.LRange("l", -2, 10)
			require.NoError(t, err)
			assert.Equal(t, []string{"b", "a"}, tail)

			empty, err := s.LRange("none", 0, -1)
			require.NoError(t, err)
			assert.Empty(t, empty)
		})
	}
}

func TestOpenStore(t *testing.T) {
	mr := miniredis.RunT(t)
	for _, driver := range []string{"redigo", "goredis", "memory"} {
		s, err := OpenStore(StoreOptions{Driver: driver, Addr: mr.Addr(), MaxIdle: 2, IdleTimeout: time.Minute})
		require.NoError(t, err, driver)
		require.NoError(t, s.Close())
	}
	_, err := OpenStore(StoreOptions{Driver: "etcd"})
	assert.Error(t, err)
}
