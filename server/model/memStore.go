package model

import (
	"sort"
	"strconv"
	"sync"

	mapset "github.com/deckarep/golang-set"
)

// MemStore is an in-process Store used for tests and single-node runs
// without redis. One mutex makes every call atomic.
type MemStore struct {
	mu      sync.Mutex
	strings map[string]string
	hashes  map[string]map[string]string
	sets    map[string]mapset.Set
	lists   map[string][]string
}

func NewMemStore() *MemStore {
	return &MemStore{
		strings: make(map[string]string),
		hashes:  make(map[string]map[string]string),
		sets:    make(map[string]mapset.Set),
		lists:   make(map[string][]string),
	}
}

func (m *MemStore) Ping() error { return nil }

func (m *MemStore) Get(key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.strings[key]
	if !ok {
		return "", ErrNil
	}
	return v, nil
}

func (m *MemStore) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.strings[key] = value
	return nil
}

func (m *MemStore) Del(keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.strings, k)
		delete(m.hashes, k)
		delete(m.sets, k)
		delete(m.lists, k)
	}
	return nil
}

func (m *MemStore) hash(key string) map[string]string {
	h, ok := m.hashes[key]
	if !ok {
		h = make(map[string]string)
		m.hashes[key] = h
	}
	return h
}

func (m *MemStore) HSet(key, field, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hash(key)[field] = value
	return nil
}

func (m *MemStore) HMSet(key string, fields map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	h := m.hash(key)
	for f, v := range fields {
		h[f] = v
	}
	return nil
}

func (m *MemStore) HGet(key, field string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.hashes[key][field]
	if !ok {
		return "", ErrNil
	}
	return v, nil
}

func (m *MemStore) HExists(key, field string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.hashes[key][field]
	return ok, nil
}

func (m *MemStore) HDel(key string, fields ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.hashes[key]
	if !ok {
		return nil
	}
	for _, f := range fields {
		delete(h, f)
	}
	if len(h) == 0 {
		delete(m.hashes, key)
	}
	return nil
}

func (m *MemStore) HLen(key string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.hashes[key]), nil
}

func (m *MemStore) HKeys(key string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.hashes[key]))
	for f := range m.hashes[key] {
		keys = append(keys, f)
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *MemStore) HGetAll(key string) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]string, len(m.hashes[key]))
	for f, v := range m.hashes[key] {
		out[f] = v
	}
	return out, nil
}

func (m *MemStore) HIncrBy(key, field string, delta int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h := m.hash(key)
	var cur int64
	if v, ok := h[field]; ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, err
		}
		cur = n
	}
	cur += delta
	h[field] = strconv.FormatInt(cur, 10)
	return cur, nil
}

func (m *MemStore) SAdd(key, member string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sets[key]
	if !ok {
		s = mapset.NewThreadUnsafeSet()
		m.sets[key] = s
	}
	return s.Add(member), nil
}

func (m *MemStore) SRem(key, member string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sets[key]
	if !ok || !s.Contains(member) {
		return false, nil
	}
	s.Remove(member)
	if s.Cardinality() == 0 {
		delete(m.sets, key)
	}
	return true, nil
}

func (m *MemStore) SIsMember(key, member string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sets[key]
	return ok && s.Contains(member), nil
}

func (m *MemStore) SCard(key string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sets[key]
	if !ok {
		return 0, nil
	}
	return s.Cardinality(), nil
}

func (m *MemStore) SMembers(key string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sets[key]
	if !ok {
		return []string{}, nil
	}
	out := make([]string, 0, s.Cardinality())
	for _, v := range s.ToSlice() {
		out = append(out, v.(string))
	}
	sort.Strings(out)
	return out, nil
}

func (m *MemStore) LPush(key string, values ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l := m.lists[key]
	for _, v := range values {
		l = append([]string{v}, l...)
	}
	m.lists[key] = l
	return nil
}

func (m *MemStore) LLen(key string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.lists[key]), nil
}

// LRange follows redis index rules: inclusive bounds, negatives count from
// the tail, out of range bounds are clamped.
func (m *MemStore) LRange(key string, start, stop int) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l := m.lists[key]
	n := len(l)
	if start < 0 {
		start += n
	}
	if stop < 0 {
		stop += n
	}
	if start < 0 {
		start = 0
	}
	if stop >= n {
		stop = n - 1
	}
	if n == 0 || start > stop {
		return []string{}, nil
	}
	out := make([]string, stop-start+1)
	copy(out, l[start:stop+1])
	return out, nil
}

func (m *MemStore) Close() error { return nil }
