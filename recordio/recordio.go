package recordio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"iter"
)

const formatVersion = byte(1)

var (
	Int64Size = int64(binary.Size(int64(0)))
	// MagicBytes Magic bytes to identify valid run files (RUN).
	MagicBytes            = []byte{0x52, 0x55, 0x4E}
	ErrInvalidMagicBytes  = errors.New("invalid magic bytes - not a valid run file")
	ErrUnsupportedVersion = errors.New("unsupported run format version")
	// HeaderSize is the number of bytes written ahead of the first record.
	HeaderSize = int64(len(MagicBytes) + 1)
)

// BinaryWriter handles writing binary data with error handling.
type BinaryWriter struct {
	w   io.Writer
	buf [8]byte
}

func NewBinaryWriter(w io.Writer) *BinaryWriter {
	return &BinaryWriter{w: w}
}

func (bw *BinaryWriter) WriteInt64(i int64) (int64, error) {
	binary.LittleEndian.PutUint64(bw.buf[:], uint64(i))
	n, err := bw.w.Write(bw.buf[:])
	if err != nil {
		return int64(n), err
	}
	return Int64Size, nil
}

// BinaryReader handles reading binary data with error handling.
type BinaryReader struct {
	r   io.Reader
	buf [8]byte
}

func NewBinaryReader(r io.Reader) *BinaryReader {
	return &BinaryReader{r: r}
}

// ReadInt64 reads one little-endian int64. A clean end of input returns
// io.EOF; a partial value returns io.ErrUnexpectedEOF.
func (br *BinaryReader) ReadInt64() (int64, error) {
	if _, err := io.ReadFull(br.r, br.buf[:]); err != nil {
		return 0, err
	}
	return int64(binary.LittleEndian.Uint64(br.buf[:])), nil
}

// Writer writes a run: a header followed by fixed-width records.
type Writer struct {
	bw      *BinaryWriter
	written int64
}

// NewWriter writes the run header to w and returns a Writer for its records.
func NewWriter(w io.Writer) (*Writer, error) {
	header := append(append(make([]byte, 0, HeaderSize), MagicBytes...), formatVersion)
	n, err := w.Write(header)
	if err != nil {
		return nil, fmt.Errorf("failed to write magic bytes: %w", err)
	}

	return &Writer{
		bw:      NewBinaryWriter(w),
		written: int64(n),
	}, nil
}

// Write writes a single record.
func (w *Writer) Write(v int64) error {
	n, err := w.bw.WriteInt64(v)
	w.written += n
	if err != nil {
		return fmt.Errorf("error writing record: %w", err)
	}
	return nil
}

// Written returns the number of bytes written so far, header included.
func (w *Writer) Written() int64 {
	return w.written
}

// Reader reads the records of a run written by Writer.
type Reader struct {
	br   *BinaryReader
	err  error
	done bool
}

// NewReader validates the run header on r.
func NewReader(r io.Reader) (*Reader, error) {
	header := make([]byte, HeaderSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, fmt.Errorf("failed to read magic bytes: %w", err)
	}
	if !bytes.Equal(header[:len(MagicBytes)], MagicBytes) {
		return nil, ErrInvalidMagicBytes
	}
	if v := header[len(MagicBytes)]; v != formatVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, v)
	}

	return &Reader{br: NewBinaryReader(r)}, nil
}

// Next returns the next record. It returns false at the end of the run or on
// the first error, which Err then reports.
func (r *Reader) Next() (int64, bool) {
	if r.done {
		return 0, false
	}
	v, err := r.br.ReadInt64()
	if err != nil {
		r.done = true
		if !errors.Is(err, io.EOF) {
			r.err = fmt.Errorf("error reading record: %w", err)
		}
		return 0, false
	}
	return v, true
}

// Err returns the first error encountered by Next other than io.EOF.
func (r *Reader) Err() error {
	return r.err
}

// Seq creates an iterator over the records of a run.
func (r *Reader) Seq() iter.Seq[int64] {
	return func(yield func(int64) bool) {
		for {
			v, ok := r.Next()
			if !ok || !yield(v) {
				return
			}
		}
	}
}

// Size calculates the total size in bytes of a run holding n records.
func Size(n int64) int64 {
	return HeaderSize + n*Int64Size
}
