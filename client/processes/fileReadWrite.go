package processes

import (
	"chatserver/common/message"
	"fmt"
	"io"
	"strconv"
)

// SendFile announces size bytes named name for peer (a friend, or a group
// when group is set) and streams them from r once the server accepts.
func (c *Client) SendFile(peer, name string, size int64, r io.Reader, group bool) (string, error) {
	flag := message.SendFile
	if group {
		flag = message.SendFileGroup
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.send(flag, peer, name, strconv.FormatInt(size, 10)); err != nil {
		return "", err
	}
	reply, err := c.tf.ReadString()
	if err != nil || reply != message.FileReady.Token() {
		return reply, err
	}
	if err := c.tf.WriteRaw(r, size); err != nil {
		return "", err
	}
	return c.tf.ReadString()
}

// RecvFile fetches a file staged by peer (or in group peer) into w and
// returns its size. A missing file yields the server's token and size -1.
func (c *Client) RecvFile(peer, name string, w io.Writer, group bool) (int64, string, error) {
	flag := message.RecvFile
	if group {
		flag = message.RecvFileGroup
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.send(flag, peer, name); err != nil {
		return -1, "", err
	}
	reply, err := c.tf.ReadString()
	if err != nil {
		return -1, "", err
	}
	size, perr := strconv.ParseInt(reply, 10, 64)
	if perr != nil {
		return -1, reply, nil
	}
	if size < 0 {
		return -1, reply, fmt.Errorf("bad file size %d", size)
	}
	if err := c.tf.ReadRaw(w, size); err != nil {
		return -1, "", err
	}
	return size, reply, nil
}
