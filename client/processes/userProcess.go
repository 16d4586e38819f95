package processes

import (
	"chatserver/common/message"
	"chatserver/common/utils"
	"fmt"
)

// Register creates an account and returns its id.
func (c *Client) Register(password, name string) (string, error) {
	args := []string{password}
	if name != "" {
		args = append(args, name)
	}
	reply, err := c.Call(message.Register, args...)
	if err != nil {
		return "", err
	}
	if !message.ValidUID(reply) {
		return "", fmt.Errorf("register: %s", reply)
	}
	return reply, nil
}

// Login checks the credentials and, on success, opens and binds the
// notification connection.
func (c *Client) Login(uid, password string) (message.LoginResult, error) {
	c.Usr.UID = uid
	reply, err := c.Call(message.LoginCheck, password)
	if err != nil || reply != message.LoginOK.Token() {
		c.Usr.UID = ""
		return message.LoginResult(reply), err
	}
	c.Usr.LoggedIn = true
	if err := c.bindNotify(); err != nil {
		return message.LoginOK, fmt.Errorf("bind notification channel: %w", err)
	}
	return message.LoginOK, nil
}

func (c *Client) bindNotify() error {
	conn, err := c.dial()
	if err != nil {
		return err
	}
	tf := utils.NewTransfer(conn)
	data, err := message.NewCommand(c.Usr.UID, message.SetRecvFd).Encode()
	if err == nil {
		err = tf.WritePkg(data)
	}
	var reply string
	if err == nil {
		reply, err = tf.ReadString()
	}
	if err == nil && reply != message.BindOK.Token() {
		err = fmt.Errorf("server replied %q", reply)
	}
	if err != nil {
		conn.Close()
		return err
	}
	c.notify, c.ntf = conn, tf
	c.Usr.Bound = true
	c.wg.Add(1)
	go c.readPushes()
	return nil
}

// Info returns the profile of uid, or of the caller when uid is empty.
func (c *Client) Info(uid string) ([]string, string, error) {
	if !c.Usr.LoggedIn {
		return nil, "", ErrNotLoggedIn
	}
	if uid == "" {
		return c.CallList(message.Info)
	}
	return c.CallList(message.Info, uid)
}

func (c *Client) NewMessage() ([]string, error) {
	lines, _, err := c.CallList(message.NewMessage)
	return lines, err
}

func (c *Client) LookSystem() ([]string, string, error) { return c.CallList(message.LookSystem) }

func (c *Client) LookNotice() ([]string, string, error) { return c.CallList(message.LookNotice) }
