package processes

import "chatserver/common/message"

func (c *Client) AddFriend(uid, note string) (string, error) {
	return c.Call(message.AddFriend, uid, note)
}

func (c *Client) AgreeAddFriend(uid string) (string, error) {
	return c.Call(message.AgreeAddFriend, uid)
}

func (c *Client) RefuseAddFriend(uid string) (string, error) {
	return c.Call(message.RefuseAddFriend, uid)
}

func (c *Client) DeleteFriend(uid string) (string, error) {
	return c.Call(message.DeleteFriend, uid)
}

func (c *Client) ShieldFriend(uid string) (string, error) {
	return c.Call(message.ShieldFriend, uid)
}

func (c *Client) RestoreFriend(uid string) (string, error) {
	return c.Call(message.RestoreFriend, uid)
}

func (c *Client) ListFriend() ([]string, string, error) {
	return c.CallList(message.ListFriend)
}
