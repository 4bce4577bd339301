// Package linebuf provides a thread-safe, append-and-read-by-line byte
// buffer with amortised O(1) line consumption.
package linebuf

import (
	"bytes"
	"sync"
)

// DefaultCompactionThreshold is the consumed-prefix size at which a
// LineBuffer drops its head and rewinds the cursor to 0.
const DefaultCompactionThreshold = 4 * 1024

// LineBuffer is an ordered byte sequence with a read cursor. The producer
// appends to the tail; the consumer reads complete lines from the cursor
// forward. Compaction is deferred to the read path so appends never block
// behind a copy of the unread tail.
type LineBuffer struct {
	mu           sync.Mutex
	data         []byte
	cursor       int
	compactAfter int
}

// New creates a LineBuffer that compacts once the consumed prefix reaches
// threshold bytes. A threshold of 0 uses DefaultCompactionThreshold.
func New(threshold int) *LineBuffer {
	if threshold <= 0 {
		threshold = DefaultCompactionThreshold
	}
	return &LineBuffer{compactAfter: threshold}
}

// Append concatenates b to the tail of the buffer. It never compacts.
func (lb *LineBuffer) Append(b []byte) {
	if len(b) == 0 {
		return
	}
	lb.mu.Lock()
	defer lb.mu.Unlock()
	lb.data = append(lb.data, b...)
}

// ReadLine returns the next complete line (including its trailing
// newline) starting at the cursor, advancing the cursor past it. If no
// complete line is available it returns an empty string without
// advancing. After a successful read, if the consumed prefix has grown
// to at least the compaction threshold, the consumed bytes are dropped
// and the cursor is rewound to 0.
func (lb *LineBuffer) ReadLine() string {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	rest := lb.data[lb.cursor:]
	idx := bytes.IndexByte(rest, '\n')
	if idx < 0 {
		return ""
	}

	line := string(rest[:idx+1])
	lb.cursor += idx + 1

	if lb.cursor >= lb.compactAfter {
		lb.data = append([]byte(nil), lb.data[lb.cursor:]...)
		lb.cursor = 0
	}

	return line
}

// ReadAll returns the unread remainder and resets the buffer to empty.
func (lb *LineBuffer) ReadAll() string {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	rest := string(lb.data[lb.cursor:])
	lb.data = nil
	lb.cursor = 0
	return rest
}

// Len reports the number of unread bytes currently buffered.
func (lb *LineBuffer) Len() int {
	lb.mu.Lock()
	defer lb.mu.Unlock()
	return len(lb.data) - lb.cursor
}
