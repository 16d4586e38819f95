package processes

import (
	"chatserver/common/message"
	"chatserver/server/model"
	"errors"
	"fmt"
)

// Login checks the credentials of uid and binds s as its interactive
// session on success.
func (e *Engine) Login(s *Session, uid, password string) (message.LoginResult, error) {
	acc, err := e.dao.GetAccount(uid)
	if errors.Is(err, model.ErrAccountNotExists) {
		return message.LoginIncorrect, nil
	}
	if err != nil {
		return "", err
	}
	if acc.Password != password {
		return message.LoginIncorrect, nil
	}
	if acc.IsOnline() {
		return message.LoginOnline, nil
	}
	if err := e.mgr.SetOnline(uid, s); err != nil {
		return "", err
	}
	e.log.Info("%s logged in", s)
	return message.LoginOK, nil
}

// Register creates an account and returns its new uid.
func (e *Engine) Register(password, name string) (string, error) {
	acc, err := e.dao.CreateAccount(password, name)
	if err != nil {
		return "", err
	}
	e.log.Info("registered account %s", acc.UID)
	return acc.UID, nil
}

// BindNotify makes s the notification channel of uid. Only an account that
// is currently logged in may bind one.
func (e *Engine) BindNotify(s *Session, uid string) (message.BindResult, error) {
	online, err := e.mgr.IsOnline(uid)
	if errors.Is(err, model.ErrAccountNotExists) {
		return message.BindDenied, nil
	}
	if err != nil {
		return "", err
	}
	if !online {
		return message.BindDenied, nil
	}
	if err := e.mgr.BindNotificationChannel(uid, s); err != nil {
		return "", err
	}
	return message.BindOK, nil
}

// Profile shows the account of target, which must be the viewer or one of
// the viewer's friends.
func (e *Engine) Profile(viewer, target string) (message.ListResult, []string, error) {
	if target == "" {
		target = viewer
	}
	if target != viewer {
		ok, err := e.dao.IsFriend(viewer, target)
		if err != nil {
			return "", nil, err
		}
		if !ok {
			return message.ListNotFound, nil, nil
		}
	}
	acc, err := e.dao.GetAccount(target)
	if errors.Is(err, model.ErrAccountNotExists) {
		return message.ListNotFound, nil, nil
	}
	if err != nil {
		return "", nil, err
	}
	status := "offline"
	if acc.IsOnline() {
		status = "online"
	}
	return message.ListEnd, []string{
		fmt.Sprintf("uid: %s", acc.UID),
		fmt.Sprintf("name: %s", acc.Name),
		fmt.Sprintf("gender: %s", acc.Gender),
		fmt.Sprintf("bio: %s", acc.Bio),
		fmt.Sprintf("status: %s", status),
	}, nil
}
