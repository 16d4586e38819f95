package processes

import "chatserver/common/message"

// OpenChat opens the conversation with a friend. status is "have" with the
// history, or "none"/"nofind".
func (c *Client) OpenChat(uid string) ([]string, string, error) {
	return c.CallList(message.ChatFriend, uid)
}

func (c *Client) SendMessage(uid, text string) (string, error) {
	return c.Call(message.FriendMsg, uid, text)
}

func (c *Client) ExitChat() (string, error) {
	return c.Call(message.ExitChat)
}

func (c *Client) OpenGroupChat(gid string) ([]string, string, error) {
	return c.CallList(message.ChatGroup, gid)
}

func (c *Client) SendGroupMessage(gid, text string) (string, error) {
	return c.Call(message.GroupMsg, gid, text)
}

func (c *Client) ExitGroupChat() (string, error) {
	return c.Call(message.ExitGroupChat)
}
