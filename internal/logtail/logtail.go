package logtail

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
)

// Ring retains the most recent lines written to it. It is safe for
// concurrent use: the daemon read loop writes while status handlers read.
type Ring struct {
	mu    sync.Mutex
	lines []string
	idx   int
	count int
}

// NewRing returns a Ring holding at most maxLines lines. A non-positive size
// yields a Ring that discards everything.
func NewRing(maxLines int) *Ring {
	if maxLines < 0 {
		maxLines = 0
	}
	return &Ring{lines: make([]string, maxLines)}
}

// Add records line, evicting the oldest entry when full.
func (r *Ring) Add(line string) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	size := len(r.lines)
	if size == 0 {
		return
	}
	r.lines[r.idx] = line
	r.idx = (r.idx + 1) % size
	if r.count < size {
		r.count++
	}
}

// Lines returns the retained lines, oldest first.
func (r *Ring) Lines() []string {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	size := len(r.lines)
	if r.count == 0 {
		return nil
	}
	out := make([]string, r.count)
	if r.count == size {
		for i := 0; i < r.count; i++ {
			out[i] = r.lines[(r.idx+i)%size]
		}
	} else {
		copy(out, r.lines[:r.count])
	}
	return out
}

// ReadLine reads one newline-terminated line and strips the terminator.
// A final unterminated line is returned together with io.EOF.
func ReadLine(reader *bufio.Reader) (string, error) {
	line, err := reader.ReadString('\n')
	return strings.TrimRight(line, "\r\n"), err
}

// Drain reads reader to EOF, passing every line (including a final
// unterminated one) to fn.
func Drain(reader *bufio.Reader, fn func(string)) error {
	for {
		line, err := reader.ReadString('\n')
		if line != "" {
			fn(strings.TrimRight(line, "\r\n"))
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("drain output: %w", err)
		}
	}
}
