package processes

import (
	"chatserver/common/message"
	"chatserver/server/model"
	"fmt"
	"sort"
	"time"
)

// ChatFriend opens the conversation with peer: it sets the active peer,
// clears the unread counter of peer and returns the history oldest first.
func (e *Engine) ChatFriend(uid, peer string) (message.OpenChatResult, []string, error) {
	n, err := e.dao.FriendCount(uid)
	if err != nil {
		return "", nil, err
	}
	if n == 0 {
		return message.OpenChatNone, nil, nil
	}
	ok, err := e.dao.IsFriend(uid, peer)
	if err != nil {
		return "", nil, err
	}
	if !ok {
		return message.OpenChatNotFound, nil, nil
	}
	if err := e.openChat(uid, peer); err != nil {
		return "", nil, err
	}
	history, err := e.dao.ChatHistory(uid, peer)
	if err != nil {
		return "", nil, err
	}
	return message.OpenChatHave, history, nil
}

func (e *Engine) openChat(uid, peer string) error {
	if err := e.mgr.SetActivePeer(uid, peer); err != nil {
		return err
	}
	return e.dao.ClearUnread(uid, model.CategoryFrom(peer))
}

// FriendMsg appends text to both sides of the conversation, echoes it to the
// sender and delivers it to peer.
func (e *Engine) FriendMsg(from, to, text string) (message.SendResult, error) {
	ok, err := e.dao.IsFriend(from, to)
	if err != nil {
		return "", err
	}
	if !ok {
		return message.SendNoPeer, nil
	}
	if err := e.sendDirect(from, to, text); err != nil {
		return "", err
	}
	return message.SendOK, nil
}

func (e *Engine) sendDirect(from, to, text string) error {
	now := time.Now()
	mine := message.FormatLine("me", text, now)
	theirs := message.FormatLine(e.dao.DisplayName(from), text, now)
	if err := e.dao.AppendChat(from, to, mine); err != nil {
		return err
	}
	if err := e.dao.AppendChat(to, from, theirs); err != nil {
		return err
	}
	e.archiveMsg(model.ScopeDirect, from, to, text)
	e.mgr.Push(from, mine)
	return e.deliver(to, from, theirs, "new message from "+e.label(from), true)
}

// deliver applies the live-push versus unread-counter rule for one
// recipient. source is the friend or group the event belongs to.
func (e *Engine) deliver(uid, source, line, ping string, direct bool) error {
	if direct {
		shielded, err := e.dao.IsShielded(uid, source)
		if err != nil {
			return err
		}
		if shielded {
			return nil
		}
	}
	acc, err := e.dao.GetAccount(uid)
	if err != nil {
		return err
	}
	if acc.IsOnline() && acc.Peer == source {
		e.mgr.Push(uid, line)
		return nil
	}
	if _, err := e.dao.IncrUnread(uid, model.CategoryFrom(source), 1); err != nil {
		return err
	}
	if acc.IsOnline() {
		e.mgr.Push(uid, ping)
	}
	return nil
}

// ExitChat leaves the current conversation, direct or group.
func (e *Engine) ExitChat(uid string) (message.ExitChatResult, error) {
	peer, err := e.mgr.GetActivePeer(uid)
	if err != nil {
		return "", err
	}
	if peer == "" || peer == message.NoPeer {
		return message.ExitChatNotIn, nil
	}
	if err := e.mgr.SetActivePeer(uid, message.NoPeer); err != nil {
		return "", err
	}
	return message.ExitChatOK, nil
}

// ChatGroup opens the group conversation of gid for uid.
func (e *Engine) ChatGroup(uid, gid string) (message.OpenChatResult, []string, error) {
	groups, err := e.dao.UserGroups(uid)
	if err != nil {
		return "", nil, err
	}
	if len(groups) == 0 {
		return message.OpenChatNone, nil, nil
	}
	_, member, err := e.dao.Role(gid, uid)
	if err != nil {
		return "", nil, err
	}
	if !member {
		return message.OpenChatNoGroup, nil, nil
	}
	if err := e.openChat(uid, gid); err != nil {
		return "", nil, err
	}
	history, err := e.dao.GroupHistory(gid)
	if err != nil {
		return "", nil, err
	}
	names := map[string]string{}
	lines := make([]string, 0, len(history))
	for _, mes := range history {
		name, ok := names[mes.From]
		if !ok {
			name = e.dao.DisplayName(mes.From)
			names[mes.From] = name
		}
		lines = append(lines, mes.Render(uid, name))
	}
	return message.OpenChatHave, lines, nil
}

// GroupMsg appends text to the group conversation and delivers it to every
// other member.
func (e *Engine) GroupMsg(from, gid, text string) (message.SendResult, error) {
	_, member, err := e.dao.Role(gid, from)
	if err != nil {
		return "", err
	}
	if !member {
		return message.SendNoPeer, nil
	}
	if err := e.sendGroup(from, gid, text); err != nil {
		return "", err
	}
	return message.SendOK, nil
}

func (e *Engine) sendGroup(from, gid, text string) error {
	mes := &message.GroupChatMes{From: from, Content: text, Time: time.Now()}
	if err := e.dao.AppendGroupChat(gid, mes); err != nil {
		return err
	}
	e.archiveMsg(model.ScopeGroup, from, gid, text)
	name := e.dao.DisplayName(from)
	e.mgr.Push(from, mes.Render(from, name))

	members, err := e.dao.Members(gid)
	if err != nil {
		return err
	}
	uids := make([]string, 0, len(members))
	for uid := range members {
		if uid != from {
			uids = append(uids, uid)
		}
	}
	sort.Strings(uids)
	line := fmt.Sprintf("[%s] %s", gid, mes.Render("", name))
	ping := "new message in group " + e.groupLabel(gid)
	for _, uid := range uids {
		if err := e.deliver(uid, gid, line, ping, false); err != nil {
			return fmt.Errorf("deliver group %s message to %s: %w", gid, uid, err)
		}
	}
	return nil
}
