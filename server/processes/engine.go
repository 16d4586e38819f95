package processes

import (
	"chatserver/server/model"
	srvutils "chatserver/server/utils"
	"fmt"
	"time"
)

// Engine implements the social graph and messaging operations. Every method
// returns a protocol result for business outcomes and an error only when the
// store or a socket failed.
type Engine struct {
	dao     *model.UserDao
	mgr     *UserMgr
	archive model.MessageArchive
	fileDir string
	maxFile int64
	log     *srvutils.Logger
}

type EngineOptions struct {
	FileDir string
	MaxFile int64
	Archive model.MessageArchive
}

func NewEngine(dao *model.UserDao, mgr *UserMgr, opts EngineOptions, log *srvutils.Logger) *Engine {
	if opts.Archive == nil {
		opts.Archive = model.NopArchive{}
	}
	return &Engine{
		dao:     dao,
		mgr:     mgr,
		archive: opts.Archive,
		fileDir: opts.FileDir,
		maxFile: opts.MaxFile,
		log:     log,
	}
}

func (e *Engine) Registry() *UserMgr { return e.mgr }

// label renders an id together with its display name.
func (e *Engine) label(uid string) string {
	return fmt.Sprintf("%s(%s)", e.dao.DisplayName(uid), uid)
}

func (e *Engine) groupLabel(gid string) string {
	gc, err := e.dao.GetGroupChat(gid)
	if err != nil {
		return gid
	}
	return fmt.Sprintf("%s(%s)", gc.GroupName, gid)
}

// notice records text on the notice list of uid, bumps the notice counter
// and pushes it live when possible.
func (e *Engine) notice(uid, text string) error {
	if err := e.dao.AddNotice(uid, text); err != nil {
		return fmt.Errorf("add notice for %s: %w", uid, err)
	}
	if _, err := e.dao.IncrUnread(uid, model.CategoryNotice, 1); err != nil {
		return fmt.Errorf("count notice for %s: %w", uid, err)
	}
	e.mgr.Push(uid, text)
	return nil
}

// noticeAll sends the same notice to every uid except skip.
func (e *Engine) noticeAll(uids []string, skip, text string) error {
	for _, uid := range uids {
		if uid == skip {
			continue
		}
		if err := e.notice(uid, text); err != nil {
			return err
		}
	}
	return nil
}

// archiveMsg is best-effort: archive failures never reach the client.
func (e *Engine) archiveMsg(scope uint8, from, target, content string) {
	err := e.archive.SaveChatMsg(&model.ChatMsg{
		Scope:    scope,
		Sender:   from,
		Target:   target,
		Content:  content,
		CreateAt: time.Now(),
	})
	if err != nil {
		e.log.Warn("archive message %s -> %s: %v", from, target, err)
	}
}
