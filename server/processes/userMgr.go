package processes

import (
	"chatserver/common/message"
	"chatserver/common/utils"
	"chatserver/server/model"
	srvutils "chatserver/server/utils"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"

	"github.com/google/uuid"
)

// Session is one accepted connection. It starts unbound; login binds it as
// an interactive session, SetRecvFd binds it as a notification session.
type Session struct {
	ID            string
	FD            int
	Conn          net.Conn
	Tf            *utils.Transfer
	RemoteAddress string

	mu     sync.RWMutex
	uid    string
	notify bool
}

func NewSession(fd int, conn net.Conn) *Session {
	return &Session{
		ID:            uuid.NewString(),
		FD:            fd,
		Conn:          conn,
		Tf:            utils.NewTransfer(conn),
		RemoteAddress: conn.RemoteAddr().String(),
	}
}

func (s *Session) UID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.uid
}

func (s *Session) IsNotify() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.notify
}

func (s *Session) bind(uid string, notify bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uid = uid
	s.notify = notify
}

func (s *Session) String() string {
	return fmt.Sprintf("session %s fd=%d uid=%s addr=%s", s.ID[:8], s.FD, s.UID(), s.RemoteAddress)
}

// UserMgr is the session and presence registry. The descriptor table lives
// in memory; presence fields (online, notify, peer) live in the store so
// every worker sees the same view.
type UserMgr struct {
	dao      *model.UserDao
	log      *srvutils.Logger
	mu       sync.RWMutex
	sessions map[int]*Session
}

func NewUserMgr(dao *model.UserDao, log *srvutils.Logger) *UserMgr {
	return &UserMgr{
		dao:      dao,
		log:      log,
		sessions: make(map[int]*Session, 1024),
	}
}

func (um *UserMgr) AddSession(s *Session) {
	um.mu.Lock()
	defer um.mu.Unlock()
	um.sessions[s.FD] = s
}

func (um *UserMgr) GetSession(fd int) (*Session, bool) {
	um.mu.RLock()
	defer um.mu.RUnlock()
	s, ok := um.sessions[fd]
	return s, ok
}

// removeSession reports false when s was already removed.
func (um *UserMgr) removeSession(s *Session) bool {
	um.mu.Lock()
	defer um.mu.Unlock()
	cur, ok := um.sessions[s.FD]
	if !ok || cur != s {
		return false
	}
	delete(um.sessions, s.FD)
	return true
}

func (um *UserMgr) Sessions() []*Session {
	um.mu.RLock()
	defer um.mu.RUnlock()
	out := make([]*Session, 0, len(um.sessions))
	for _, s := range um.sessions {
		out = append(out, s)
	}
	return out
}

// SetOnline binds s as the interactive session of uid.
func (um *UserMgr) SetOnline(uid string, s *Session) error {
	err := um.dao.SetAccountFields(uid, map[string]string{
		model.FieldOnline: strconv.Itoa(s.FD),
		model.FieldNotify: message.Offline,
		model.FieldPeer:   message.NoPeer,
	})
	if err != nil {
		return fmt.Errorf("set %s online: %w", uid, err)
	}
	s.bind(uid, false)
	return nil
}

func (um *UserMgr) SetOffline(uid string) error {
	err := um.dao.SetAccountFields(uid, map[string]string{
		model.FieldOnline: message.Offline,
		model.FieldNotify: message.Offline,
		model.FieldPeer:   message.NoPeer,
	})
	if err != nil {
		return fmt.Errorf("set %s offline: %w", uid, err)
	}
	return nil
}

func (um *UserMgr) IsOnline(uid string) (bool, error) {
	v, err := um.dao.AccountField(uid, model.FieldOnline)
	if err != nil {
		return false, err
	}
	return v != message.Offline, nil
}

func (um *UserMgr) BindNotificationChannel(uid string, s *Session) error {
	if err := um.dao.SetAccountField(uid, model.FieldNotify, strconv.Itoa(s.FD)); err != nil {
		return fmt.Errorf("bind notification channel of %s: %w", uid, err)
	}
	s.bind(uid, true)
	return nil
}

// LookupNotificationChannel returns nil when uid has no live notification
// session.
func (um *UserMgr) LookupNotificationChannel(uid string) (*Session, error) {
	v, err := um.dao.AccountField(uid, model.FieldNotify)
	if errors.Is(err, model.ErrAccountNotExists) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	fd, err := strconv.Atoi(v)
	if err != nil || fd < 0 {
		return nil, nil
	}
	s, ok := um.GetSession(fd)
	if !ok || !s.IsNotify() || s.UID() != uid {
		return nil, nil
	}
	return s, nil
}

func (um *UserMgr) GetActivePeer(uid string) (string, error) {
	return um.dao.AccountField(uid, model.FieldPeer)
}

func (um *UserMgr) SetActivePeer(uid, peer string) error {
	if peer == "" {
		peer = message.NoPeer
	}
	return um.dao.SetAccountField(uid, model.FieldPeer, peer)
}

// Push writes text to the notification channel of uid. It reports whether
// the push was delivered; an undeliverable push is not an error.
func (um *UserMgr) Push(uid, text string) bool {
	s, err := um.LookupNotificationChannel(uid)
	if err != nil {
		um.log.Warn("lookup notification channel of %s: %v", uid, err)
		return false
	}
	if s == nil {
		return false
	}
	if err := s.Tf.WriteString(text); err != nil {
		um.log.Warn("push to %s: %v", s, err)
		return false
	}
	return true
}

// Teardown forgets s, clears the presence it owned and closes it. Calling
// it twice for the same session is harmless.
func (um *UserMgr) Teardown(s *Session) {
	if !um.removeSession(s) {
		return
	}
	if uid := s.UID(); uid != "" {
		if s.IsNotify() {
			um.clearNotify(uid, s)
		} else {
			um.clearOnline(uid, s)
		}
	}
	if err := s.Conn.Close(); err != nil {
		um.log.Debug("close %s: %v", s, err)
	}
	um.log.Info("%s closed", s)
}

// clearOnline only marks uid offline while s is still its interactive
// session.
func (um *UserMgr) clearOnline(uid string, s *Session) {
	cur, err := um.dao.AccountField(uid, model.FieldOnline)
	if err != nil {
		um.log.Error("read presence of %s: %v", uid, err)
		return
	}
	if cur != strconv.Itoa(s.FD) {
		return
	}
	if err := um.SetOffline(uid); err != nil {
		um.log.Error("%v", err)
	}
}

func (um *UserMgr) clearNotify(uid string, s *Session) {
	cur, err := um.dao.AccountField(uid, model.FieldNotify)
	if err != nil {
		um.log.Error("read notification channel of %s: %v", uid, err)
		return
	}
	if cur != strconv.Itoa(s.FD) {
		return
	}
	if err := um.dao.SetAccountField(uid, model.FieldNotify, message.Offline); err != nil {
		um.log.Error("clear notification channel of %s: %v", uid, err)
	}
}

// ForceAllOffline resets every account at startup.
func (um *UserMgr) ForceAllOffline() (int, error) {
	return um.dao.ForceAllOffline()
}

// CloseAll tears down every session, used on shutdown.
func (um *UserMgr) CloseAll() {
	for _, s := range um.Sessions() {
		um.Teardown(s)
	}
}
