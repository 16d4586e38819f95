package model

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDbMessageArchive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "archive.db")
	archive, err := NewDbMessageArchive("sqlite3", path)
	require.NoError(t, err)
	defer archive.Close()

	require.NoError(t, archive.SaveChatMsg(
		&ChatMsg{Scope: ScopeDirect, Sender: "1001", Target: "1002", Content: "hello"},
		&ChatMsg{Scope: ScopeGroup, Sender: "1001", Target: "123", Content: "hi all"},
		&ChatMsg{Scope: ScopeDirect, Sender: "1001", Target: "1002", Content: "again"},
	))

	msgs, err := archive.History(ScopeDirect, "1002", 10)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "hello", msgs[0].Content)
	assert.Equal(t, "again", msgs[1].Content)
}

func TestOpenArchiveDisabled(t *testing.T) {
	archive, err := OpenArchive("", "")
	require.NoError(t, err)
	assert.NoError(t, archive.SaveChatMsg(&ChatMsg{Content: "dropped"}))
	assert.NoError(t, archive.Close())
}
