package processes

import (
	"chatserver/common/message"
	"strings"
)

// CreateGroup returns the new group id, or "nofind<uid>" naming the first
// listed account that is not a friend.
func (c *Client) CreateGroup(name string, members ...string) (string, error) {
	return c.Call(message.CreateGroup, strings.Join(members, ","), name)
}

func (c *Client) AddGroup(gid, note string) (string, error) {
	return c.Call(message.AddGroup, gid, note)
}

func (c *Client) AboutGroup(gid string) (string, error) {
	return c.Call(message.AboutGroup, gid)
}

func (c *Client) RequestList(gid string) ([]string, string, error) {
	return c.CallList(message.RequestList, gid)
}

func (c *Client) PassApply(gid, uid string) (string, error) {
	return c.Call(message.PassApply, gid, uid)
}

func (c *Client) DenyApply(gid, uid string) (string, error) {
	return c.Call(message.DenyApply, gid, uid)
}

func (c *Client) SetMember(gid, uid string, role message.RoleInGroupChat) (string, error) {
	return c.Call(message.SetMember, gid, uid, string(role))
}

func (c *Client) RemoveMember(gid, uid string) (string, error) {
	return c.Call(message.RemoveMember, gid, uid)
}

func (c *Client) ExitGroup(gid string) (string, error) {
	return c.Call(message.ExitGroup, gid)
}

func (c *Client) Dissolve(gid string) (string, error) {
	return c.Call(message.Dissolve, gid)
}

func (c *Client) ListGroup() ([]string, string, error) {
	return c.CallList(message.ListGroup)
}

func (c *Client) DisplayMember(gid string) ([]string, string, error) {
	return c.CallList(message.DisplayMember, gid)
}
