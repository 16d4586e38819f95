package utils

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Input reads prompted lines from a terminal.
type Input struct {
	sc  *bufio.Scanner
	out io.Writer
}

func NewInput(r io.Reader, w io.Writer) *Input {
	return &Input{sc: bufio.NewScanner(r), out: w}
}

// ReadLine prints prompt and returns the next trimmed line. ok is false at
// end of input.
func (in *Input) ReadLine(prompt string) (line string, ok bool) {
	if prompt != "" {
		fmt.Fprint(in.out, prompt)
	}
	if !in.sc.Scan() {
		return "", false
	}
	return strings.TrimSpace(in.sc.Text()), true
}

// SplitArgs splits line into at most n whitespace separated fields. The last
// field keeps the rest of the line, so message text may contain spaces.
func SplitArgs(line string, n int) []string {
	var out []string
	rest := strings.TrimSpace(line)
	for rest != "" && len(out) < n-1 {
		i := strings.IndexAny(rest, " \t")
		if i < 0 {
			break
		}
		out = append(out, rest[:i])
		rest = strings.TrimLeft(rest[i:], " \t")
	}
	if rest != "" && n > 0 {
		out = append(out, rest)
	}
	return out
}
