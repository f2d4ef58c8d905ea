package backend

import (
	"bufio"
	"errors"
	"io"
)

// lineReader only hands out entire newline-terminated lines. A CSV file
// that is still being appended to can then be parsed without ever seeing
// half a record: a trailing partial line reads as io.EOF until its newline
// arrives.
type lineReader struct {
	r *bufio.Reader
	// partial is an unterminated line read so far.
	partial []byte
	// pending is the undelivered rest of a complete line.
	pending []byte
}

var _ io.Reader = (*lineReader)(nil)

func NewLineReader(r io.Reader) *lineReader {
	return &lineReader{
		r: bufio.NewReader(r),
	}
}

func (l *lineReader) Read(b []byte) (int, error) {
	if len(l.pending) == 0 {
		data, err := l.r.ReadBytes('\n')
		if err != nil {
			l.partial = append(l.partial, data...)
			if errors.Is(err, io.EOF) {
				return 0, io.EOF
			}
			return 0, err
		}
		l.pending = append(l.partial, data...)
		l.partial = nil
	}
	n := copy(b, l.pending)
	l.pending = l.pending[n:]
	return n, nil
}
