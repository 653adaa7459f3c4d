package singer

import (
	"bufio"
	"bytes"
	"fmt"
	"io"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// MaxLineBytes bounds a single input line. Taps emitting wide records can
// produce multi-megabyte lines.
const MaxLineBytes = 64 << 20

// Line is one non-blank input line with its 1-based position.
type Line struct {
	Number int
	Text   []byte
}

// Reader yields non-blank lines from a tap's output. A leading UTF-8 BOM is
// dropped. Input must be valid UTF-8: an invalid byte sequence stops the
// reader with an error wrapping encoding.ErrInvalidUTF8.
type Reader struct {
	sc   *bufio.Scanner
	line int
	cur  Line
	err  error
}

// NewReader wraps r.
func NewReader(r io.Reader) *Reader {
	dec := transform.NewReader(r, transform.Chain(
		unicode.BOMOverride(transform.Nop),
		encoding.UTF8Validator,
	))
	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 0, 64*1024), MaxLineBytes)
	return &Reader{sc: sc}
}

// Next advances to the next non-blank line. It returns false at EOF or on a
// read error; check Err afterwards.
func (r *Reader) Next() bool {
	for r.sc.Scan() {
		r.line++
		text := bytes.TrimSpace(r.sc.Bytes())
		if len(text) == 0 {
			continue
		}
		r.cur = Line{Number: r.line, Text: text}
		return true
	}
	if err := r.sc.Err(); err != nil {
		r.err = fmt.Errorf("read input after line %d: %w", r.line, err)
	}
	return false
}

// Line returns the current line. Text is only valid until the next call to
// Next.
func (r *Reader) Line() Line { return r.cur }

func (r *Reader) Err() error { return r.err }
