package model

import (
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/go-xorm/xorm"
	_ "github.com/mattn/go-sqlite3"
	"xorm.io/core"
)

// Archive scopes.
const (
	ScopeDirect uint8 = 1
	ScopeGroup  uint8 = 2
)

// ChatMsg is one archived message. Target is a uid for direct messages and
// a gid for group messages.
type ChatMsg struct {
	ID       int64     `xorm:"pk autoincr 'id'"`
	Scope    uint8     `xorm:"index"`
	Sender   string    `xorm:"varchar(8) index"`
	Target   string    `xorm:"varchar(8) index"`
	Content  string    `xorm:"varchar(2048)"`
	CreateAt time.Time `xorm:"created"`
}

// MessageArchive keeps an append-only copy of every message.
type MessageArchive interface {
	SaveChatMsg(msgs ...*ChatMsg) error
	Close() error
}

// NopArchive is used when no archive is configured.
type NopArchive struct{}

func (NopArchive) SaveChatMsg(...*ChatMsg) error { return nil }

func (NopArchive) Close() error { return nil }

// DbMessageArchive stores messages through xorm (mysql or sqlite3).
type DbMessageArchive struct {
	engine *xorm.Engine
}

// OpenArchive returns NopArchive when driver is empty.
func OpenArchive(driver, source string) (MessageArchive, error) {
	if driver == "" {
		return NopArchive{}, nil
	}
	return NewDbMessageArchive(driver, source)
}

func NewDbMessageArchive(driver, source string) (*DbMessageArchive, error) {
	if driver == "mysql" && !strings.Contains(source, "?") {
		source += "?charset=utf8mb4&parseTime=True&loc=Local"
	}
	engine, err := xorm.NewEngine(driver, source)
	if err != nil {
		return nil, fmt.Errorf("open %s archive: %w", driver, err)
	}
	engine.SetTableMapper(core.NewPrefixMapper(core.SnakeMapper{}, "t_"))
	engine.SetColumnMapper(core.SnakeMapper{})
	if err := engine.Sync2(new(ChatMsg)); err != nil {
		engine.Close()
		return nil, fmt.Errorf("sync archive tables: %w", err)
	}
	return &DbMessageArchive{engine: engine}, nil
}

func (s *DbMessageArchive) SaveChatMsg(msgs ...*ChatMsg) error {
	if len(msgs) == 0 {
		return nil
	}
	if _, err := s.engine.Insert(msgs); err != nil {
		return fmt.Errorf("archive %d messages: %w", len(msgs), err)
	}
	return nil
}

// History returns archived messages of one scope and target, oldest first.
func (s *DbMessageArchive) History(scope uint8, target string, limit int) ([]*ChatMsg, error) {
	var msgs []*ChatMsg
	err := s.engine.Where("scope = ? AND target = ?", scope, target).Asc("id").Limit(limit).Find(&msgs)
	if err != nil {
		return nil, err
	}
	return msgs, nil
}

func (s *DbMessageArchive) Close() error {
	return s.engine.Close()
}
