package emit

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// DefaultCompressThreshold skips precompressing files below 10 KiB.
const DefaultCompressThreshold = 10 * 1024

// Compression names a precompression algorithm.
type Compression string

const (
	Gzip Compression = "gzip"
	Zstd Compression = "zstd"
)

// ParseCompression parses an algorithm name.
func ParseCompression(s string) (Compression, error) {
	switch Compression(strings.ToLower(s)) {
	case Gzip, "gz":
		return Gzip, nil
	case Zstd, "zst":
		return Zstd, nil
	default:
		return "", fmt.Errorf("unknown compression %q (valid: gzip, zstd)", s)
	}
}

// Ext returns the sibling file suffix.
func (c Compression) Ext() string {
	if c == Zstd {
		return ".zst"
	}
	return ".gz"
}

// compress encodes data at the best compression level. The output only
// depends on the input, so unchanged files stay unchanged.
func compress(c Compression, data []byte) ([]byte, error) {
	var buf bytes.Buffer
	switch c {
	case Zstd:
		enc, err := zstd.NewWriter(&buf, zstd.WithEncoderLevel(zstd.SpeedBestCompression), zstd.WithEncoderConcurrency(1))
		if err != nil {
			return nil, err
		}
		if _, err := enc.Write(data); err != nil {
			enc.Close()
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
	default:
		zw, err := gzip.NewWriterLevel(&buf, gzip.BestCompression)
		if err != nil {
			return nil, err
		}
		if _, err := zw.Write(data); err != nil {
			return nil, err
		}
		if err := zw.Close(); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}
