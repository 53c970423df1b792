package recordio

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"iter"
	"strconv"
)

const maxTokenSize = 1024 * 1024

var ErrMalformedRecord = errors.New("malformed record")

// ParseError reports a token that is not a base-10 int64.
type ParseError struct {
	Index int64 // zero-based position of the token in the input
	Token string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: token %d %q: %v", ErrMalformedRecord, e.Index, e.Token, e.Err)
}

func (e *ParseError) Unwrap() []error {
	return []error{ErrMalformedRecord, e.Err}
}

// Tokens creates an iterator over the whitespace separated integers in r.
// Blank lines and repeated whitespace are skipped. Iteration stops after the
// first error is yielded.
func Tokens(r io.Reader) iter.Seq2[int64, error] {
	return func(yield func(int64, error) bool) {
		sc := bufio.NewScanner(r)
		sc.Buffer(make([]byte, 0, 64*1024), maxTokenSize)
		sc.Split(bufio.ScanWords)

		var index int64
		for sc.Scan() {
			tok := sc.Text()
			v, err := strconv.ParseInt(tok, 10, 64)
			if err != nil {
				yield(0, &ParseError{Index: index, Token: tok, Err: err})
				return
			}
			if !yield(v, nil) {
				return
			}
			index++
		}
		if err := sc.Err(); err != nil {
			yield(0, fmt.Errorf("error reading input: %w", err))
		}
	}
}

// TextWriter writes records one per line.
type TextWriter struct {
	w       *bufio.Writer
	scratch []byte
}

func NewTextWriter(w io.Writer) *TextWriter {
	return &TextWriter{
		w:       bufio.NewWriter(w),
		scratch: make([]byte, 0, 24),
	}
}

func (tw *TextWriter) Write(v int64) error {
	tw.scratch = strconv.AppendInt(tw.scratch[:0], v, 10)
	tw.scratch = append(tw.scratch, '\n')
	if _, err := tw.w.Write(tw.scratch); err != nil {
		return fmt.Errorf("error writing record: %w", err)
	}
	return nil
}

// Flush writes any buffered records to the underlying writer.
func (tw *TextWriter) Flush() error {
	return tw.w.Flush()
}
