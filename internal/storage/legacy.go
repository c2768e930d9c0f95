package storage

import (
	"bufio"
	"io"
)

// legacyReader drops a comma that is followed, after optional whitespace,
// by the closing bracket of an array. Older versions wrote every record
// with a trailing separator, including the last one.
type legacyReader struct {
	r       *bufio.Reader
	queue   []byte // ready to be returned
	held    []byte // a comma and the whitespace read after it
	inStr   bool
	escaped bool
}

func newLegacyReader(r io.Reader) *legacyReader {
	return &legacyReader{r: bufio.NewReader(r)}
}

func (l *legacyReader) Read(p []byte) (int, error) {
	for len(l.queue) == 0 {
		b, err := l.r.ReadByte()
		if err != nil {
			l.queue = append(l.queue, l.held...)
			l.held = l.held[:0]
			if len(l.queue) == 0 {
				return 0, err
			}
			break
		}
		l.step(b)
	}
	n := copy(p, l.queue)
	l.queue = l.queue[n:]
	return n, nil
}

func (l *legacyReader) step(b byte) {
	switch {
	case l.inStr:
		l.queue = append(l.queue, b)
		switch {
		case l.escaped:
			l.escaped = false
		case b == '\\':
			l.escaped = true
		case b == '"':
			l.inStr = false
		}
	case len(l.held) > 0:
		switch b {
		case ' ', '\t', '\r', '\n':
			l.held = append(l.held, b)
			return
		case ']':
			l.queue = append(l.queue, l.held[1:]...)
		default:
			l.queue = append(l.queue, l.held...)
		}
		l.held = l.held[:0]
		l.step(b)
	case b == ',':
		l.held = append(l.held, b)
	default:
		l.queue = append(l.queue, b)
		if b == '"' {
			l.inStr = true
		}
	}
}
