package processes

import (
	"chatserver/client/model"
	"chatserver/common/message"
	"chatserver/common/utils"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"
)

const pushBuffer = 256

var ErrNotLoggedIn = errors.New("not logged in")

// Client speaks the chat protocol over an interactive connection and, after
// login, a notification connection whose frames arrive on Pushes.
type Client struct {
	Addr    string
	Timeout time.Duration
	Usr     model.CurUser

	mu     sync.Mutex
	conn   net.Conn
	tf     *utils.Transfer
	notify net.Conn
	ntf    *utils.Transfer
	pushes chan string
	wg     sync.WaitGroup
}

func Dial(addr string) (*Client, error) {
	c := &Client{Addr: addr, Timeout: 5 * time.Second, pushes: make(chan string, pushBuffer)}
	conn, err := c.dial()
	if err != nil {
		return nil, err
	}
	c.conn = conn
	c.tf = utils.NewTransfer(conn)
	return c, nil
}

func (c *Client) dial() (net.Conn, error) {
	conn, err := net.DialTimeout("tcp", c.Addr, c.Timeout)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", c.Addr, err)
	}
	return conn, nil
}

// Pushes delivers every frame received on the notification connection. It
// is closed when that connection ends.
func (c *Client) Pushes() <-chan string { return c.pushes }

func (c *Client) send(flag message.OpCode, args ...string) error {
	data, err := message.NewCommand(c.Usr.EnvelopeUID(), flag, args...).Encode()
	if err != nil {
		return err
	}
	return c.tf.WritePkg(data)
}

// Call sends one command and returns the single-token reply.
func (c *Client) Call(flag message.OpCode, args ...string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.send(flag, args...); err != nil {
		return "", err
	}
	return c.tf.ReadString()
}

// isStatus reports whether a first reply line is a bare status instead of
// the start of a listing.
func isStatus(s string) bool {
	switch s {
	case message.TokenEnd, message.TokenNone, message.TokenFail, message.TokenInvalid,
		message.TokenUnauth, message.TokenNo, "cannot", "nohave", "nofind":
		return true
	}
	return false
}

// CallList sends one command and collects reply lines up to the end
// sentinel. status is "end", "have" for a history, or the bare token that
// replaced the listing.
func (c *Client) CallList(flag message.OpCode, args ...string) (lines []string, status string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.send(flag, args...); err != nil {
		return nil, "", err
	}
	first, err := c.tf.ReadString()
	if err != nil {
		return nil, "", err
	}
	if isStatus(first) {
		return nil, first, nil
	}
	status = message.TokenEnd
	if first == message.TokenHave {
		status = message.TokenHave
	} else {
		lines = append(lines, first)
	}
	for {
		line, err := c.tf.ReadString()
		if err != nil {
			return lines, "", err
		}
		if line == message.TokenEnd {
			return lines, status, nil
		}
		lines = append(lines, line)
	}
}

func (c *Client) readPushes() {
	defer c.wg.Done()
	defer close(c.pushes)
	for {
		line, err := c.ntf.ReadString()
		if err != nil {
			return
		}
		c.pushes <- line
	}
}

// Quit sends the quit sentinel on both connections and closes them.
func (c *Client) Quit() error {
	c.mu.Lock()
	err := c.tf.WriteString(message.QuitSentinel)
	c.mu.Unlock()
	if c.ntf != nil {
		c.ntf.WriteString(message.CloseSentinel)
	}
	c.Close()
	return err
}

func (c *Client) Close() error {
	err := c.conn.Close()
	if c.notify != nil {
		c.notify.Close()
		c.wg.Wait()
	}
	c.Usr = model.CurUser{}
	return err
}
