package processes

import (
	"chatserver/common/message"
	"chatserver/server/model"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"
	"unicode"
)

// parseMemberList splits the CreateGroup member argument on any non-digit.
func parseMemberList(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool { return !unicode.IsDigit(r) })
}

// CreateGroup checks that every listed member is a friend of founder,
// creates the group and adds them with role member.
func (e *Engine) CreateGroup(founder, memberList, name string) (message.CreateGroupResult, error) {
	members := parseMemberList(memberList)
	if len(members) == 0 {
		return message.CreateGroupResult{Missing: memberList}, nil
	}
	seen := make(map[string]bool, len(members))
	uniq := members[:0]
	for _, m := range members {
		ok, err := e.dao.IsFriend(founder, m)
		if err != nil {
			return message.CreateGroupResult{}, err
		}
		if !ok {
			return message.CreateGroupResult{Missing: m}, nil
		}
		if !seen[m] {
			seen[m] = true
			uniq = append(uniq, m)
		}
	}

	gc, err := e.dao.CreateGroupChat(founder, name)
	if err != nil {
		return message.CreateGroupResult{}, err
	}
	text := fmt.Sprintf("%s added you to group %s(%s)", e.label(founder), gc.GroupName, gc.GroupID)
	for _, m := range uniq {
		if err := e.dao.AddMember(gc.GroupID, m, message.GroupChatMember, gc.GroupName); err != nil {
			return message.CreateGroupResult{}, err
		}
		if err := e.notice(m, text); err != nil {
			return message.CreateGroupResult{}, err
		}
	}
	e.log.Info("%s created group %s with %d members", founder, gc.GroupID, len(uniq))
	return message.CreateGroupResult{GroupID: gc.GroupID}, nil
}

func (e *Engine) ListGroup(uid string) (message.ListResult, []string, error) {
	groups, err := e.dao.UserGroups(uid)
	if err != nil {
		return "", nil, err
	}
	if len(groups) == 0 {
		return message.ListNone, nil, nil
	}
	gids := make([]string, 0, len(groups))
	for gid := range groups {
		gids = append(gids, gid)
	}
	sort.Strings(gids)
	lines := make([]string, 0, len(gids))
	for _, gid := range gids {
		role, _, err := e.dao.Role(gid, uid)
		if err != nil {
			return "", nil, err
		}
		line := fmt.Sprintf("%s(%s) [%s]", groups[gid], gid, role.Visualize())
		if gc, err := e.dao.GetGroupChat(gid); err == nil {
			line = fmt.Sprintf("%s [%s]", gc.Label(), role.Visualize())
		}
		lines = append(lines, line)
	}
	return message.ListEnd, lines, nil
}

// AddGroup files a join application and tells every manager of the group.
func (e *Engine) AddGroup(uid, gid, note string) (message.AddGroupResult, error) {
	exists, err := e.dao.GroupExists(gid)
	if err != nil {
		return "", err
	}
	if !exists {
		return message.AddGroupNotFound, nil
	}
	_, member, err := e.dao.Role(gid, uid)
	if err != nil {
		return "", err
	}
	if member {
		return message.AddGroupAlready, nil
	}
	req, err := e.dao.GroupApply(gid, uid)
	if err != nil && !errors.Is(err, model.ErrNil) {
		return "", err
	}
	if req != nil && req.Pending() {
		return message.AddGroupPending, nil
	}
	req = &message.Request{
		From:  uid,
		To:    gid,
		Note:  note,
		Time:  time.Now(),
		State: message.RequestPending,
	}
	if err := e.dao.PutGroupApply(req); err != nil {
		return "", err
	}
	managers, err := e.dao.Managers(gid)
	if err != nil {
		return "", err
	}
	text := fmt.Sprintf("%s applies to join group %s: %s", e.label(uid), e.groupLabel(gid), note)
	if err := e.noticeAll(managers, "", text); err != nil {
		return "", err
	}
	return message.AddGroupOK, nil
}

func (e *Engine) AboutGroup(uid, gid string) (message.AboutGroupResult, error) {
	exists, err := e.dao.GroupExists(gid)
	if err != nil {
		return "", err
	}
	if !exists {
		return message.AboutGroupNoGroup, nil
	}
	_, member, err := e.dao.Role(gid, uid)
	if err != nil {
		return "", err
	}
	if !member {
		return message.AboutGroupNotMember, nil
	}
	return message.AboutGroupMember, nil
}

// RequestList shows the join applications of gid to its managers.
func (e *Engine) RequestList(uid, gid string) (message.ListResult, []string, error) {
	role, member, err := e.dao.Role(gid, uid)
	if err != nil {
		return "", nil, err
	}
	if !member || !role.CanManage() {
		return message.ListForbidden, nil, nil
	}
	reqs, err := e.dao.GroupApplies(gid)
	if err != nil {
		return "", nil, err
	}
	if len(reqs) == 0 {
		return message.ListNone, nil, nil
	}
	lines := make([]string, 0, len(reqs))
	for _, req := range reqs {
		lines = append(lines, req.ApplyLine())
	}
	return message.ListEnd, lines, nil
}

func (e *Engine) PassApply(actor, gid, applicant string) (message.ResolveApplyResult, error) {
	return e.resolveApply(actor, gid, applicant, true)
}

func (e *Engine) DenyApply(actor, gid, applicant string) (message.ResolveApplyResult, error) {
	return e.resolveApply(actor, gid, applicant, false)
}

func (e *Engine) resolveApply(actor, gid, applicant string, approve bool) (message.ResolveApplyResult, error) {
	role, member, err := e.dao.Role(gid, actor)
	if err != nil {
		return "", err
	}
	if !member || !role.CanManage() {
		return message.ResolveApplyForbidden, nil
	}
	_, already, err := e.dao.Role(gid, applicant)
	if err != nil {
		return "", err
	}
	if already {
		return message.ResolveApplyAlready, nil
	}
	req, err := e.dao.GroupApply(gid, applicant)
	if errors.Is(err, model.ErrNil) {
		return message.ResolveApplyNotFound, nil
	}
	if err != nil {
		return "", err
	}
	if !req.Pending() {
		return message.ResolveApplyHandled, nil
	}

	gc, err := e.dao.GetGroupChat(gid)
	if err != nil {
		return "", err
	}
	req.State = message.RequestRejected
	verb := "denied"
	if approve {
		req.State = message.RequestAccepted
		verb = "approved"
	}
	if err := e.dao.PutGroupApply(req); err != nil {
		return "", err
	}
	if approve {
		if err := e.dao.AddMember(gid, applicant, message.GroupChatMember, gc.GroupName); err != nil {
			return "", err
		}
	}
	group := fmt.Sprintf("%s(%s)", gc.GroupName, gid)
	if err := e.notice(applicant, fmt.Sprintf("your application to %s was %s by %s", group, verb, e.label(actor))); err != nil {
		return "", err
	}
	managers, err := e.dao.Managers(gid)
	if err != nil {
		return "", err
	}
	text := fmt.Sprintf("%s %s the application of %s to %s", e.label(actor), verb, e.label(applicant), group)
	if err := e.noticeAll(managers, actor, text); err != nil {
		return "", err
	}
	return message.ResolveApplyOK, nil
}

// SetMember changes the role of target. Asking for the owner role transfers
// ownership: the caller becomes a plain member in the same store command.
func (e *Engine) SetMember(owner, gid, target, roleArg string) (message.SetMemberResult, error) {
	role, member, err := e.dao.Role(gid, owner)
	if err != nil {
		return "", err
	}
	if !member || role != message.GroupChatOwner {
		return message.SetMemberForbidden, nil
	}
	cur, member, err := e.dao.Role(gid, target)
	if err != nil {
		return "", err
	}
	if !member {
		return message.SetMemberNotMember, nil
	}
	if target == owner {
		return message.SetMemberSelf, nil
	}
	want, ok := message.ParseRole(roleArg)
	if !ok {
		return message.SetMemberBadRole, nil
	}
	if cur == want {
		return message.SetMemberAlready, nil
	}

	group := e.groupLabel(gid)
	var text string
	if want == message.GroupChatOwner {
		if err := e.dao.TransferOwner(gid, owner, target); err != nil {
			return "", err
		}
		text = fmt.Sprintf("%s transferred the ownership of %s to you", e.label(owner), group)
	} else {
		if err := e.dao.SetRole(gid, target, want); err != nil {
			return "", err
		}
		text = fmt.Sprintf("%s made you %s of %s", e.label(owner), want.Visualize(), group)
	}
	if err := e.notice(target, text); err != nil {
		return "", err
	}
	return message.SetMemberOK, nil
}

func (e *Engine) ExitGroup(uid, gid string) (message.ExitGroupResult, error) {
	role, member, err := e.dao.Role(gid, uid)
	if err != nil {
		return "", err
	}
	if !member {
		return message.ExitGroupNotMember, nil
	}
	if role == message.GroupChatOwner {
		return message.ExitGroupOwner, nil
	}
	group := e.groupLabel(gid)
	if err := e.dao.RemoveMember(gid, uid); err != nil {
		return "", err
	}
	if err := e.leaveChat(uid, gid); err != nil {
		return "", err
	}
	managers, err := e.dao.Managers(gid)
	if err != nil {
		return "", err
	}
	if err := e.noticeAll(managers, uid, fmt.Sprintf("%s left group %s", e.label(uid), group)); err != nil {
		return "", err
	}
	return message.ExitGroupOK, nil
}

// leaveChat resets the active peer of uid if it was viewing gid.
func (e *Engine) leaveChat(uid, gid string) error {
	peer, err := e.mgr.GetActivePeer(uid)
	if err != nil || peer != gid {
		return err
	}
	return e.mgr.SetActivePeer(uid, message.NoPeer)
}

// DisplayMember lists the roster of gid, online members first.
func (e *Engine) DisplayMember(uid, gid string) (message.ListResult, []string, error) {
	exists, err := e.dao.GroupExists(gid)
	if err != nil {
		return "", nil, err
	}
	if !exists {
		return message.ListNoGroup, nil, nil
	}
	members, err := e.dao.Members(gid)
	if err != nil {
		return "", nil, err
	}
	uids := make([]string, 0, len(members))
	for id := range members {
		uids = append(uids, id)
	}
	sort.Strings(uids)
	var online, offline []string
	for _, id := range uids {
		up, err := e.mgr.IsOnline(id)
		if err != nil && !errors.Is(err, model.ErrAccountNotExists) {
			return "", nil, err
		}
		if up {
			online = append(online, fmt.Sprintf("%s %s [online]", e.label(id), members[id].Visualize()))
		} else {
			offline = append(offline, fmt.Sprintf("%s %s [offline]", e.label(id), members[id].Visualize()))
		}
	}
	return message.ListEnd, append(online, offline...), nil
}

func (e *Engine) RemoveMember(actor, gid, target string) (message.RemoveMemberResult, error) {
	role, member, err := e.dao.Role(gid, actor)
	if err != nil {
		return "", err
	}
	if !member || !role.CanManage() {
		return message.RemoveMemberForbidden, nil
	}
	trole, tmember, err := e.dao.Role(gid, target)
	if err != nil {
		return "", err
	}
	if !tmember {
		return message.RemoveMemberNotMember, nil
	}
	if trole != message.GroupChatMember {
		return message.RemoveMemberPrivileged, nil
	}
	group := e.groupLabel(gid)
	if err := e.dao.RemoveMember(gid, target); err != nil {
		return "", err
	}
	if err := e.leaveChat(target, gid); err != nil {
		return "", err
	}
	if err := e.notice(target, fmt.Sprintf("you were removed from %s by %s", group, e.label(actor))); err != nil {
		return "", err
	}
	managers, err := e.dao.Managers(gid)
	if err != nil {
		return "", err
	}
	text := fmt.Sprintf("%s removed %s from %s", e.label(actor), e.label(target), group)
	if err := e.noticeAll(managers, actor, text); err != nil {
		return "", err
	}
	return message.RemoveMemberOK, nil
}

// Dissolve deletes gid and tells every former member.
func (e *Engine) Dissolve(owner, gid string) (message.DissolveResult, error) {
	exists, err := e.dao.GroupExists(gid)
	if err != nil {
		return "", err
	}
	if !exists {
		return message.DissolveNoGroup, nil
	}
	role, member, err := e.dao.Role(gid, owner)
	if err != nil {
		return "", err
	}
	if !member || role != message.GroupChatOwner {
		return message.DissolveForbidden, nil
	}
	group := e.groupLabel(gid)
	members, err := e.dao.DeleteGroupChat(gid)
	if err != nil {
		return "", err
	}
	if err := os.RemoveAll(e.stagingDir("", gid, true)); err != nil {
		e.log.Warn("remove files of group %s: %v", gid, err)
	}
	uids := make([]string, 0, len(members))
	for uid := range members {
		if err := e.leaveChat(uid, gid); err != nil {
			return "", err
		}
		uids = append(uids, uid)
	}
	sort.Strings(uids)
	if err := e.noticeAll(uids, owner, fmt.Sprintf("group %s was dissolved by %s", group, e.label(owner))); err != nil {
		return "", err
	}
	e.log.Info("%s dissolved group %s", owner, gid)
	return message.DissolveOK, nil
}
