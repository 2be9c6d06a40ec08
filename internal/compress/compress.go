// Package compress shrinks message payloads before they are chunked.
//
// Compression only helps on non-random data, so Deflate reports whether
// it actually reduced the payload; callers send the original bytes when
// it did not.
package compress

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/flate"
)

var (
	ErrCorrupt      = errors.New("compress: corrupt deflate stream")
	ErrSizeMismatch = errors.New("compress: inflated size mismatch")
)

// Deflate compresses data and reports whether the result is strictly
// smaller than the input. When it is not, the second return is false and
// the caller must transmit the input unchanged with original size 0.
func Deflate(data []byte) ([]byte, bool) {
	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, flate.DefaultCompression)
	if err != nil {
		return nil, false
	}
	if _, err := w.Write(data); err != nil {
		return nil, false
	}
	if err := w.Close(); err != nil {
		return nil, false
	}
	if buf.Len() >= len(data) {
		return nil, false
	}
	return buf.Bytes(), true
}

// Inflate reverses Deflate. originalSize 0 means the payload was never
// compressed and is returned unchanged; any other value must match the
// inflated length exactly.
func Inflate(data []byte, originalSize uint32) ([]byte, error) {
	if originalSize == 0 {
		return data, nil
	}

	r := flate.NewReader(bytes.NewReader(data))
	defer r.Close()

	out := make([]byte, 0, originalSize)
	buf := bytes.NewBuffer(out)
	n, err := io.Copy(buf, io.LimitReader(r, int64(originalSize)+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if n != int64(originalSize) {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrSizeMismatch, n, originalSize)
	}
	return buf.Bytes(), nil
}
