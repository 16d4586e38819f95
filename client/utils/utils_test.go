package utils

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitArgs(t *testing.T) {
	tests := []struct {
		line string
		n    int
		want []string
	}{
		{"1002 hello there  friend", 2, []string{"1002", "hello there  friend"}},
		{"  101   1003 admin ", 3, []string{"101", "1003", "admin"}},
		{"101", 3, []string{"101"}},
		{"", 2, nil},
		{"a b c", 1, []string{"a b c"}},
		{"a b", 0, nil},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SplitArgs(tt.line, tt.n), "%q/%d", tt.line, tt.n)
	}
}

func TestReadLine(t *testing.T) {
	var out bytes.Buffer
	in := NewInput(strings.NewReader(" login 1001 pw \n"), &out)

	line, ok := in.ReadLine("> ")
	assert.True(t, ok)
	assert.Equal(t, "login 1001 pw", line)
	assert.Equal(t, "> ", out.String())

	_, ok = in.ReadLine("")
	assert.False(t, ok)
}
