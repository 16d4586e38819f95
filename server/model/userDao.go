package model

import (
	"chatserver/common/message"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"strconv"
	"time"
)

const allocAttempts = 2000

// UserDao is the typed data access layer over a Store. It owns the key
// layout; callers never build keys themselves.
type UserDao struct {
	store Store
}

func NewUserDao(s Store) *UserDao {
	return &UserDao{store: s}
}

func (UD *UserDao) Store() Store { return UD.store }

// allocID claims a random unused id in [lo, hi] through SADD on setKey, so
// two concurrent allocations never get the same id.
func (UD *UserDao) allocID(setKey string, lo, hi int) (string, error) {
	for i := 0; i < allocAttempts; i++ {
		id := strconv.Itoa(lo + rand.Intn(hi-lo+1))
		added, err := UD.store.SAdd(setKey, id)
		if err != nil {
			return "", err
		}
		if added {
			return id, nil
		}
	}
	return "", ErrIDExhausted
}

// CreateAccount registers a new account under a fresh 4-digit uid.
func (UD *UserDao) CreateAccount(password, name string) (*message.Account, error) {
	uid, err := UD.allocID(AccountsKey, 1000, 9999)
	if err != nil {
		return nil, fmt.Errorf("allocate uid: %w", err)
	}
	if name == "" {
		name = uid
	}
	acc := &message.Account{
		UID:      uid,
		Password: password,
		Name:     name,
		Gender:   "unknown",
		Bio:      "none",
		Online:   message.Offline,
		Notify:   message.Offline,
		Peer:     message.NoPeer,
	}
	if err := UD.store.HMSet(accountKey(uid), accountFields(acc)); err != nil {
		return nil, fmt.Errorf("save account %s: %w", uid, err)
	}
	err = UD.store.HMSet(unreadKey(uid), map[string]string{CategorySystem: "0", CategoryNotice: "0"})
	if err != nil {
		return nil, fmt.Errorf("init counters of %s: %w", uid, err)
	}
	return acc, nil
}

func accountFields(acc *message.Account) map[string]string {
	return map[string]string{
		FieldUID:      acc.UID,
		FieldPassword: acc.Password,
		FieldName:     acc.Name,
		FieldGender:   acc.Gender,
		FieldBio:      acc.Bio,
		FieldOnline:   acc.Online,
		FieldNotify:   acc.Notify,
		FieldPeer:     acc.Peer,
	}
}

// GetAccount returns ErrAccountNotExists for unknown ids.
func (UD *UserDao) GetAccount(uid string) (*message.Account, error) {
	fields, err := UD.store.HGetAll(accountKey(uid))
	if err != nil {
		return nil, fmt.Errorf("load account %s: %w", uid, err)
	}
	if len(fields) == 0 {
		return nil, ErrAccountNotExists
	}
	return &message.Account{
		UID:      uid,
		Password: fields[FieldPassword],
		Name:     fields[FieldName],
		Gender:   fields[FieldGender],
		Bio:      fields[FieldBio],
		Online:   fields[FieldOnline],
		Notify:   fields[FieldNotify],
		Peer:     fields[FieldPeer],
	}, nil
}

func (UD *UserDao) AccountExists(uid string) (bool, error) {
	return UD.store.SIsMember(AccountsKey, uid)
}

func (UD *UserDao) AccountIDs() ([]string, error) {
	return UD.store.SMembers(AccountsKey)
}

// DisplayName falls back to the uid when the name cannot be read.
func (UD *UserDao) DisplayName(uid string) string {
	name, err := UD.store.HGet(accountKey(uid), FieldName)
	if err != nil || name == "" {
		return uid
	}
	return name
}

func (UD *UserDao) AccountField(uid, field string) (string, error) {
	v, err := UD.store.HGet(accountKey(uid), field)
	if errors.Is(err, ErrNil) {
		return "", ErrAccountNotExists
	}
	return v, err
}

func (UD *UserDao) SetAccountField(uid, field, value string) error {
	return UD.store.HSet(accountKey(uid), field, value)
}

// SetAccountFields updates several account fields in one command.
func (UD *UserDao) SetAccountFields(uid string, fields map[string]string) error {
	return UD.store.HMSet(accountKey(uid), fields)
}

// ---- friends ----

func (UD *UserDao) IsFriend(uid, peer string) (bool, error) {
	return UD.store.HExists(friendsKey(uid), peer)
}

// Friends maps each friend id to its label.
func (UD *UserDao) Friends(uid string) (map[string]string, error) {
	return UD.store.HGetAll(friendsKey(uid))
}

func (UD *UserDao) FriendCount(uid string) (int, error) {
	return UD.store.HLen(friendsKey(uid))
}

// AddFriendEdge materializes both sides of a friendship and resets the two
// per-direction conversation queues.
func (UD *UserDao) AddFriendEdge(a, b string) error {
	if err := UD.store.HSet(friendsKey(a), b, UD.DisplayName(b)); err != nil {
		return err
	}
	if err := UD.store.HSet(friendsKey(b), a, UD.DisplayName(a)); err != nil {
		return err
	}
	if err := UD.store.Del(chatKey(a, b), chatKey(b, a)); err != nil {
		return err
	}
	if err := UD.store.LPush(chatKey(a, b), HistoryOrigin); err != nil {
		return err
	}
	return UD.store.LPush(chatKey(b, a), HistoryOrigin)
}

// RemoveFriendEdge drops both sides, both shield entries and both queues.
func (UD *UserDao) RemoveFriendEdge(a, b string) error {
	if err := UD.store.HDel(friendsKey(a), b); err != nil {
		return err
	}
	if err := UD.store.HDel(friendsKey(b), a); err != nil {
		return err
	}
	if _, err := UD.store.SRem(shieldKey(a), b); err != nil {
		return err
	}
	if _, err := UD.store.SRem(shieldKey(b), a); err != nil {
		return err
	}
	return UD.store.Del(chatKey(a, b), chatKey(b, a))
}

func (UD *UserDao) IsShielded(uid, peer string) (bool, error) {
	return UD.store.SIsMember(shieldKey(uid), peer)
}

func (UD *UserDao) Shield(uid, peer string) (bool, error) {
	return UD.store.SAdd(shieldKey(uid), peer)
}

func (UD *UserDao) Unshield(uid, peer string) (bool, error) {
	return UD.store.SRem(shieldKey(uid), peer)
}

// ---- requests ----

func decodeRequest(raw string) (*message.Request, error) {
	req := &message.Request{}
	if err := json.Unmarshal([]byte(raw), req); err != nil {
		return nil, fmt.Errorf("decode request: %w", err)
	}
	return req, nil
}

func (UD *UserDao) getRequest(key, from string) (*message.Request, error) {
	raw, err := UD.store.HGet(key, from)
	if err != nil {
		return nil, err
	}
	return decodeRequest(raw)
}

func (UD *UserDao) putRequest(key string, req *message.Request) error {
	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	return UD.store.HSet(key, req.From, string(data))
}

func (UD *UserDao) listRequests(key string) ([]*message.Request, error) {
	all, err := UD.store.HGetAll(key)
	if err != nil {
		return nil, err
	}
	reqs := make([]*message.Request, 0, len(all))
	for _, raw := range all {
		req, err := decodeRequest(raw)
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, req)
	}
	sort.Slice(reqs, func(i, j int) bool {
		if reqs[i].Time.Equal(reqs[j].Time) {
			return reqs[i].From < reqs[j].From
		}
		return reqs[i].Time.Before(reqs[j].Time)
	})
	return reqs, nil
}

// FriendRequest returns the request from requester recorded on target's
// system message list, or ErrNil.
func (UD *UserDao) FriendRequest(target, requester string) (*message.Request, error) {
	return UD.getRequest(sysMsgKey(target), requester)
}

func (UD *UserDao) PutFriendRequest(req *message.Request) error {
	return UD.putRequest(sysMsgKey(req.To), req)
}

func (UD *UserDao) FriendRequests(target string) ([]*message.Request, error) {
	return UD.listRequests(sysMsgKey(target))
}

// ---- unread counters and notices ----

// IncrUnread adjusts a counter atomically; a result below zero is reset to 0.
func (UD *UserDao) IncrUnread(uid, category string, delta int64) (int64, error) {
	n, err := UD.store.HIncrBy(unreadKey(uid), category, delta)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, UD.store.HSet(unreadKey(uid), category, "0")
	}
	return n, nil
}

func (UD *UserDao) ClearUnread(uid, category string) error {
	return UD.store.HSet(unreadKey(uid), category, "0")
}

func (UD *UserDao) Unread(uid string) (map[string]int64, error) {
	all, err := UD.store.HGetAll(unreadKey(uid))
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(all))
	for k, v := range all {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("counter %s of %s: %w", k, uid, err)
		}
		out[k] = n
	}
	return out, nil
}

func (UD *UserDao) AddNotice(uid, text string) error {
	return UD.store.LPush(noticesKey(uid), fmt.Sprintf("%s (%s)", text, time.Now().Format(message.TimeLayout)))
}

// Notices returns the notice list oldest first.
func (UD *UserDao) Notices(uid string) ([]string, error) {
	items, err := UD.store.LRange(noticesKey(uid), 0, -1)
	if err != nil {
		return nil, err
	}
	reverse(items)
	return items, nil
}

// ---- direct conversations ----

// AppendChat records line in owner's view of the conversation with peer.
func (UD *UserDao) AppendChat(owner, peer, line string) error {
	return UD.store.LPush(chatKey(owner, peer), line)
}

// ChatHistory returns owner's view of the conversation, oldest first.
func (UD *UserDao) ChatHistory(owner, peer string) ([]string, error) {
	items, err := UD.store.LRange(chatKey(owner, peer), 0, -1)
	if err != nil {
		return nil, err
	}
	reverse(items)
	return dropOrigin(items), nil
}

func reverse(items []string) {
	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}
}

func dropOrigin(items []string) []string {
	out := items[:0]
	for _, it := range items {
		if it != HistoryOrigin {
			out = append(out, it)
		}
	}
	return out
}

// ForceAllOffline resets the presence of every known account.
func (UD *UserDao) ForceAllOffline() (int, error) {
	ids, err := UD.AccountIDs()
	if err != nil {
		return 0, err
	}
	for _, uid := range ids {
		err := UD.SetAccountFields(uid, map[string]string{
			FieldOnline: message.Offline,
			FieldNotify: message.Offline,
			FieldPeer:   message.NoPeer,
		})
		if err != nil {
			return 0, fmt.Errorf("reset presence of %s: %w", uid, err)
		}
	}
	return len(ids), nil
}
