package model

import (
	"chatserver/common/message"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// CreateGroupChat allocates a 3-digit gid and records owner as its only
// member.
func (UD *UserDao) CreateGroupChat(owner, name string) (*message.GroupChat, error) {
	gid, err := UD.allocID(GroupsKey, 100, 999)
	if err != nil {
		return nil, fmt.Errorf("allocate gid: %w", err)
	}
	if name == "" {
		name = fmt.Sprintf("%s's group %s", UD.DisplayName(owner), gid)
	}
	gc := &message.GroupChat{
		GroupID:   gid,
		GroupName: name,
		Created:   time.Now().Format(message.TimeLayout),
		Intro:     "none",
		Announce:  "none",
	}
	err = UD.store.HMSet(groupKey(gid), map[string]string{
		FieldGroupID:  gc.GroupID,
		FieldName:     gc.GroupName,
		FieldCreated:  gc.Created,
		FieldIntro:    gc.Intro,
		FieldAnnounce: gc.Announce,
	})
	if err != nil {
		return nil, fmt.Errorf("save group %s: %w", gid, err)
	}
	if err := UD.store.LPush(groupChatKey(gid), HistoryOrigin); err != nil {
		return nil, err
	}
	if err := UD.AddMember(gid, owner, message.GroupChatOwner, name); err != nil {
		return nil, err
	}
	return gc, nil
}

func (UD *UserDao) GroupExists(gid string) (bool, error) {
	return UD.store.SIsMember(GroupsKey, gid)
}

// GetGroupChat returns ErrGroupNotExists for unknown or dissolved groups.
func (UD *UserDao) GetGroupChat(gid string) (*message.GroupChat, error) {
	ok, err := UD.GroupExists(gid)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrGroupNotExists
	}
	fields, err := UD.store.HGetAll(groupKey(gid))
	if err != nil {
		return nil, fmt.Errorf("load group %s: %w", gid, err)
	}
	return &message.GroupChat{
		GroupID:   gid,
		GroupName: fields[FieldName],
		Created:   fields[FieldCreated],
		Intro:     fields[FieldIntro],
		Announce:  fields[FieldAnnounce],
	}, nil
}

// Role returns the role of uid in gid; ok is false for non-members.
func (UD *UserDao) Role(gid, uid string) (role message.RoleInGroupChat, ok bool, err error) {
	v, err := UD.store.HGet(membersKey(gid), uid)
	if errors.Is(err, ErrNil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return message.RoleInGroupChat(v), true, nil
}

// AddMember writes the roster entry and the member's own group list entry.
func (UD *UserDao) AddMember(gid, uid string, role message.RoleInGroupChat, groupName string) error {
	if err := UD.store.HSet(membersKey(gid), uid, string(role)); err != nil {
		return err
	}
	return UD.store.HSet(groupListKey(uid), gid, groupName)
}

func (UD *UserDao) SetRole(gid, uid string, role message.RoleInGroupChat) error {
	return UD.store.HSet(membersKey(gid), uid, string(role))
}

// TransferOwner swaps the owner and target roles in a single command.
func (UD *UserDao) TransferOwner(gid, owner, target string) error {
	return UD.store.HMSet(membersKey(gid), map[string]string{
		owner:  string(message.GroupChatMember),
		target: string(message.GroupChatOwner),
	})
}

func (UD *UserDao) RemoveMember(gid, uid string) error {
	if err := UD.store.HDel(membersKey(gid), uid); err != nil {
		return err
	}
	return UD.store.HDel(groupListKey(uid), gid)
}

func (UD *UserDao) Members(gid string) (map[string]message.RoleInGroupChat, error) {
	all, err := UD.store.HGetAll(membersKey(gid))
	if err != nil {
		return nil, err
	}
	out := make(map[string]message.RoleInGroupChat, len(all))
	for uid, role := range all {
		out[uid] = message.RoleInGroupChat(role)
	}
	return out, nil
}

// Managers lists the owner and admins of gid.
func (UD *UserDao) Managers(gid string) ([]string, error) {
	members, err := UD.Members(gid)
	if err != nil {
		return nil, err
	}
	var out []string
	for uid, role := range members {
		if role.CanManage() {
			out = append(out, uid)
		}
	}
	return out, nil
}

// UserGroups maps each group of uid to its name.
func (UD *UserDao) UserGroups(uid string) (map[string]string, error) {
	return UD.store.HGetAll(groupListKey(uid))
}

func (UD *UserDao) GroupApply(gid, applicant string) (*message.Request, error) {
	return UD.getRequest(appliesKey(gid), applicant)
}

func (UD *UserDao) PutGroupApply(req *message.Request) error {
	return UD.putRequest(appliesKey(req.To), req)
}

func (UD *UserDao) GroupApplies(gid string) ([]*message.Request, error) {
	return UD.listRequests(appliesKey(gid))
}

func (UD *UserDao) AppendGroupChat(gid string, mes *message.GroupChatMes) error {
	data, err := json.Marshal(mes)
	if err != nil {
		return fmt.Errorf("encode group message: %w", err)
	}
	return UD.store.LPush(groupChatKey(gid), string(data))
}

// GroupHistory returns the group conversation oldest first.
func (UD *UserDao) GroupHistory(gid string) ([]*message.GroupChatMes, error) {
	items, err := UD.store.LRange(groupChatKey(gid), 0, -1)
	if err != nil {
		return nil, err
	}
	reverse(items)
	items = dropOrigin(items)
	out := make([]*message.GroupChatMes, 0, len(items))
	for _, raw := range items {
		mes := &message.GroupChatMes{}
		if err := json.Unmarshal([]byte(raw), mes); err != nil {
			return nil, fmt.Errorf("decode group message: %w", err)
		}
		out = append(out, mes)
	}
	return out, nil
}

// DeleteGroupChat removes the group from every member's list and drops all
// of its data. It returns the roster as it was before deletion.
func (UD *UserDao) DeleteGroupChat(gid string) (map[string]message.RoleInGroupChat, error) {
	members, err := UD.Members(gid)
	if err != nil {
		return nil, err
	}
	for uid := range members {
		if err := UD.store.HDel(groupListKey(uid), gid); err != nil {
			return nil, err
		}
	}
	if _, err := UD.store.SRem(GroupsKey, gid); err != nil {
		return nil, err
	}
	if err := UD.store.Del(groupKey(gid), membersKey(gid), appliesKey(gid), groupChatKey(gid)); err != nil {
		return nil, err
	}
	return members, nil
}
