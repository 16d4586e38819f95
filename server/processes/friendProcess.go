package processes

import (
	"chatserver/common/message"
	"chatserver/server/model"
	"errors"
	"fmt"
	"sort"
	"time"
)

// AddFriend records a pending request from requester on target's system
// message list.
func (e *Engine) AddFriend(requester, target, note string) (message.AddFriendResult, error) {
	if requester == target {
		return message.AddFriendNotFound, nil
	}
	exists, err := e.dao.AccountExists(target)
	if err != nil {
		return "", err
	}
	if !exists {
		return message.AddFriendNotFound, nil
	}
	friends, err := e.dao.IsFriend(requester, target)
	if err != nil {
		return "", err
	}
	if friends {
		return message.AddFriendAlready, nil
	}
	pending, err := e.pendingFriendRequest(requester, target)
	if err != nil {
		return "", err
	}
	if pending {
		return message.AddFriendInboundOpen, nil
	}
	pending, err = e.pendingFriendRequest(target, requester)
	if err != nil {
		return "", err
	}
	if pending {
		return message.AddFriendOutboundOpen, nil
	}

	req := &message.Request{
		From:  requester,
		To:    target,
		Note:  note,
		Time:  time.Now(),
		State: message.RequestPending,
	}
	if err := e.dao.PutFriendRequest(req); err != nil {
		return "", err
	}
	if _, err := e.dao.IncrUnread(target, model.CategorySystem, 1); err != nil {
		return "", err
	}
	e.mgr.Push(target, fmt.Sprintf("%s wants to add you as a friend: %s", e.label(requester), note))
	return message.AddFriendOK, nil
}

// pendingFriendRequest reports whether owner's system list holds a pending
// request from from.
func (e *Engine) pendingFriendRequest(owner, from string) (bool, error) {
	req, err := e.dao.FriendRequest(owner, from)
	if errors.Is(err, model.ErrNil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return req.Pending(), nil
}

func (e *Engine) AgreeAddFriend(uid, requester string) (message.ResolveFriendResult, error) {
	return e.resolveFriend(uid, requester, true)
}

func (e *Engine) RefuseAddFriend(uid, requester string) (message.ResolveFriendResult, error) {
	return e.resolveFriend(uid, requester, false)
}

func (e *Engine) resolveFriend(uid, requester string, accept bool) (message.ResolveFriendResult, error) {
	req, err := e.dao.FriendRequest(uid, requester)
	if errors.Is(err, model.ErrNil) {
		return message.ResolveFriendNotFound, nil
	}
	if err != nil {
		return "", err
	}
	if !req.Pending() {
		return message.ResolveFriendHandled, nil
	}
	friends, err := e.dao.IsFriend(uid, requester)
	if err != nil {
		return "", err
	}
	if friends {
		return message.ResolveFriendAlready, nil
	}

	req.State = message.RequestRejected
	verb := "rejected"
	if accept {
		req.State = message.RequestAccepted
		verb = "accepted"
	}
	if err := e.dao.PutFriendRequest(req); err != nil {
		return "", err
	}
	if _, err := e.dao.IncrUnread(uid, model.CategorySystem, -1); err != nil {
		return "", err
	}
	if accept {
		if err := e.dao.AddFriendEdge(uid, requester); err != nil {
			return "", fmt.Errorf("add friend edge %s-%s: %w", uid, requester, err)
		}
	}
	if err := e.notice(requester, fmt.Sprintf("%s %s your friend request", e.label(uid), verb)); err != nil {
		return "", err
	}
	return message.ResolveFriendOK, nil
}

func (e *Engine) DeleteFriend(uid, peer string) (message.DeleteFriendResult, error) {
	ok, err := e.dao.IsFriend(uid, peer)
	if err != nil {
		return "", err
	}
	if !ok {
		return message.DeleteFriendNotFound, nil
	}
	if err := e.dao.RemoveFriendEdge(uid, peer); err != nil {
		return "", fmt.Errorf("remove friend edge %s-%s: %w", uid, peer, err)
	}
	if err := e.notice(peer, fmt.Sprintf("%s removed you from the friend list", e.label(uid))); err != nil {
		return "", err
	}
	return message.DeleteFriendOK, nil
}

// ShieldFriend silently stops live delivery from peer.
func (e *Engine) ShieldFriend(uid, peer string) (message.ShieldResult, error) {
	ok, err := e.dao.IsFriend(uid, peer)
	if err != nil {
		return "", err
	}
	if !ok {
		return message.ShieldNotFriend, nil
	}
	added, err := e.dao.Shield(uid, peer)
	if err != nil {
		return "", err
	}
	if !added {
		return message.ShieldAlready, nil
	}
	return message.ShieldOK, nil
}

func (e *Engine) RestoreFriend(uid, peer string) (message.RestoreResult, error) {
	ok, err := e.dao.IsFriend(uid, peer)
	if err != nil {
		return "", err
	}
	if !ok {
		return message.RestoreNotFriend, nil
	}
	removed, err := e.dao.Unshield(uid, peer)
	if err != nil {
		return "", err
	}
	if !removed {
		return message.RestoreNotShielded, nil
	}
	return message.RestoreOK, nil
}

// ListFriend renders one line per friend. Shielded friends carry no online
// marker.
func (e *Engine) ListFriend(uid string) (message.ListResult, []string, error) {
	friends, err := e.dao.Friends(uid)
	if err != nil {
		return "", nil, err
	}
	if len(friends) == 0 {
		return message.ListNone, nil, nil
	}
	ids := make([]string, 0, len(friends))
	for id := range friends {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	lines := make([]string, 0, len(ids))
	for _, id := range ids {
		state := "offline"
		shielded, err := e.dao.IsShielded(uid, id)
		if err != nil {
			return "", nil, err
		}
		if shielded {
			state = "shielded"
		} else if online, err := e.mgr.IsOnline(id); err == nil && online {
			state = "online"
		}
		lines = append(lines, fmt.Sprintf("%s(%s) [%s]", friends[id], id, state))
	}
	return message.ListEnd, lines, nil
}
