package utils

import (
	"chatserver/common/message"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"syscall"
)

// DefaultMaxFrame bounds a single framed payload.
const DefaultMaxFrame = 1 << 20

var (
	ErrPeerClosed    = errors.New("peer closed the connection")
	ErrFrameTooLarge = errors.New("frame exceeds the size limit")
)

// Transfer reads and writes length-prefixed frames on one connection.
// Writes are serialized so concurrent pushes never interleave.
type Transfer struct {
	Conn     net.Conn
	MaxFrame uint32
	wmu      sync.Mutex
}

func NewTransfer(conn net.Conn) *Transfer {
	return &Transfer{Conn: conn, MaxFrame: DefaultMaxFrame}
}

// closedErr folds the ways a peer can go away into ErrPeerClosed.
func closedErr(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, net.ErrClosed) || errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE) {
		return ErrPeerClosed
	}
	return err
}

// ReadPkg reads one frame. A short read is reported as ErrPeerClosed, never
// as a partial payload.
func (tf *Transfer) ReadPkg() ([]byte, error) {
	var header [4]byte
	if _, err := io.ReadFull(tf.Conn, header[:]); err != nil {
		return nil, closedErr(err)
	}
	pkgLen := binary.BigEndian.Uint32(header[:])
	if tf.MaxFrame > 0 && pkgLen > tf.MaxFrame {
		return nil, fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, pkgLen)
	}
	buf := make([]byte, pkgLen)
	if _, err := io.ReadFull(tf.Conn, buf); err != nil {
		return nil, closedErr(err)
	}
	return buf, nil
}

// WritePkg writes data as one frame with a single Write call.
func (tf *Transfer) WritePkg(data []byte) error {
	buf := make([]byte, 4+len(data))
	binary.BigEndian.PutUint32(buf[:4], uint32(len(data)))
	copy(buf[4:], data)

	tf.wmu.Lock()
	defer tf.wmu.Unlock()
	if _, err := tf.Conn.Write(buf); err != nil {
		return closedErr(err)
	}
	return nil
}

func (tf *Transfer) WriteString(s string) error {
	return tf.WritePkg([]byte(s))
}

// WriteStrings writes each line as its own frame while holding the write
// lock, so a list reply is never split by a push.
func (tf *Transfer) WriteStrings(lines ...string) error {
	tf.wmu.Lock()
	defer tf.wmu.Unlock()
	for _, line := range lines {
		buf := make([]byte, 4+len(line))
		binary.BigEndian.PutUint32(buf[:4], uint32(len(line)))
		copy(buf[4:], line)
		if _, err := tf.Conn.Write(buf); err != nil {
			return closedErr(err)
		}
	}
	return nil
}

func (tf *Transfer) ReadString() (string, error) {
	data, err := tf.ReadPkg()
	return string(data), err
}

func (tf *Transfer) WriteCommand(cmd *message.Command) error {
	data, err := cmd.Encode()
	if err != nil {
		return err
	}
	return tf.WritePkg(data)
}

// ReadRaw copies exactly n unframed bytes from the connection into w.
func (tf *Transfer) ReadRaw(w io.Writer, n int64) error {
	copied, err := io.CopyN(w, tf.Conn, n)
	if err != nil {
		return fmt.Errorf("raw read stopped after %d of %d bytes: %w", copied, n, closedErr(err))
	}
	return nil
}

// WriteRaw copies exactly n bytes from r to the connection without framing.
func (tf *Transfer) WriteRaw(r io.Reader, n int64) error {
	tf.wmu.Lock()
	defer tf.wmu.Unlock()
	copied, err := io.CopyN(tf.Conn, r, n)
	if err != nil {
		return fmt.Errorf("raw write stopped after %d of %d bytes: %w", copied, n, closedErr(err))
	}
	return nil
}
