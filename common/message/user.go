package message

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	uidPattern = regexp.MustCompile(`^[1-9][0-9]{3}$`)
	gidPattern = regexp.MustCompile(`^[1-9][0-9]{2}$`)
)

// ValidUID reports whether s is a 4-digit account id.
func ValidUID(s string) bool { return uidPattern.MatchString(s) }

// ValidGID reports whether s is a 3-digit group id.
func ValidGID(s string) bool { return gidPattern.MatchString(s) }

// Account is the stored profile and presence record of a user.
type Account struct {
	UID      string
	Password string
	Name     string
	Gender   string
	Bio      string
	Online   string // Offline or the interactive descriptor
	Notify   string // Offline or the notification descriptor
	Peer     string // NoPeer or the friend/group being viewed
}

const (
	Offline = "-1"
	NoPeer  = "none"
)

func (a *Account) IsOnline() bool { return a.Online != "" && a.Online != Offline }

// Label renders an account the way rosters and lists show it.
func (a *Account) Label() string { return fmt.Sprintf("%s(%s)", a.Name, a.UID) }

type RoleInGroupChat string

const (
	GroupChatOwner  RoleInGroupChat = "owner"
	GroupChatAdmin  RoleInGroupChat = "admin"
	GroupChatMember RoleInGroupChat = "member"
)

// CanManage reports whether the role may handle applications and remove members.
func (r RoleInGroupChat) CanManage() bool {
	return r == GroupChatOwner || r == GroupChatAdmin
}

func (r RoleInGroupChat) Visualize() string {
	switch r {
	case GroupChatOwner:
		return "owner"
	case GroupChatAdmin:
		return "admin"
	case GroupChatMember:
		return "member"
	default:
		return "unknown"
	}
}

// ParseRole maps the role argument of SetMember. "leader"/"owner" ask for an
// ownership transfer.
func ParseRole(s string) (RoleInGroupChat, bool) {
	switch strings.ToLower(s) {
	case "member":
		return GroupChatMember, true
	case "manager", "admin":
		return GroupChatAdmin, true
	case "leader", "owner":
		return GroupChatOwner, true
	}
	return "", false
}

// GroupChat is the info record of a group.
type GroupChat struct {
	GroupID   string
	GroupName string
	Created   string
	Intro     string
	Announce  string
}

func (g *GroupChat) Label() string {
	return fmt.Sprintf("%s(%s) intro: %s announcement: %s created %s", g.GroupName, g.GroupID, g.Intro, g.Announce, g.Created)
}
