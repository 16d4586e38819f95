package processes

import (
	"chatserver/common/message"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// FileTicket describes an accepted upload whose raw bytes have not been
// read yet.
type FileTicket struct {
	From   string
	Target string
	Name   string
	Size   int64
	Group  bool
	path   string
}

func validFileName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, `/\`) && filepath.Base(name) == name
}

// stagingDir is where files sent by from to target are kept. Group files
// are shared by every member.
func (e *Engine) stagingDir(from, target string, group bool) string {
	if group {
		return filepath.Join(e.fileDir, "group-"+target)
	}
	return filepath.Join(e.fileDir, from+"-"+target)
}

// StageUpload validates a SendFile/SendFileGroup handshake.
func (e *Engine) StageUpload(from, target, name, sizeArg string, group bool) (message.FileResult, *FileTicket, error) {
	var ok bool
	var err error
	if group {
		_, ok, err = e.dao.Role(target, from)
	} else {
		ok, err = e.dao.IsFriend(from, target)
	}
	if err != nil {
		return "", nil, err
	}
	if !ok {
		return message.FileNoPeer, nil, nil
	}
	size, err := strconv.ParseInt(sizeArg, 10, 64)
	if err != nil || size < 0 || (e.maxFile > 0 && size > e.maxFile) || !validFileName(name) {
		return message.FileInvalid, nil, nil
	}
	dir := e.stagingDir(from, target, group)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", nil, fmt.Errorf("create staging dir: %w", err)
	}
	return message.FileReady, &FileTicket{
		From:   from,
		Target: target,
		Name:   name,
		Size:   size,
		Group:  group,
		path:   filepath.Join(dir, name),
	}, nil
}

// StoreUpload lets read fill the staged file with exactly t.Size bytes and
// then records the transfer in the conversation. A failed read leaves no
// file behind.
func (e *Engine) StoreUpload(t *FileTicket, read func(w io.Writer, n int64) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(t.path), "."+t.Name+".part-*")
	if err != nil {
		return fmt.Errorf("create upload file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if err := read(tmp, t.Size); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close upload file: %w", err)
	}
	if err := os.Rename(tmp.Name(), t.path); err != nil {
		return fmt.Errorf("store upload file: %w", err)
	}
	e.log.Info("%s sent file %s (%d bytes) to %s", t.From, t.Name, t.Size, t.Target)
	text := "sent file: " + t.Name
	if t.Group {
		return e.sendGroup(t.From, t.Target, text)
	}
	return e.sendDirect(t.From, t.Target, text)
}

// OpenDownload finds a file staged for uid by peer (or in group peer). The
// caller closes the returned file.
func (e *Engine) OpenDownload(uid, peer, name string, group bool) (message.FileResult, *os.File, int64, error) {
	if !validFileName(name) {
		return message.FileMissing, nil, 0, nil
	}
	var path string
	if group {
		_, member, err := e.dao.Role(peer, uid)
		if err != nil {
			return "", nil, 0, err
		}
		if !member {
			return message.FileMissing, nil, 0, nil
		}
		path = filepath.Join(e.stagingDir(uid, peer, true), name)
	} else {
		path = filepath.Join(e.stagingDir(peer, uid, false), name)
	}
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return message.FileMissing, nil, 0, nil
	}
	if err != nil {
		return "", nil, 0, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return "", nil, 0, err
	}
	return message.FileReady, f, info.Size(), nil
}

// FinishDownload records a completed direct download in the conversation
// and lets the sender know.
func (e *Engine) FinishDownload(uid, peer, name string, group bool) error {
	if group {
		return nil
	}
	ok, err := e.dao.IsFriend(uid, peer)
	if err != nil || !ok {
		return err
	}
	return e.sendDirect(uid, peer, "received file: "+name)
}
