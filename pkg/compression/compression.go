// Package compression wraps writers and readers in a streaming codec so the
// message archive can be stored compressed.
//
// The algorithm is usually picked from the archive file name:
//
//	algo := compression.AlgorithmForPath("s3://bucket/run.jsonl.zst") // Zstd
//	w, err := compression.NewWriter(dst, compression.Config{Algorithm: algo})
//	...
//	err = w.Close() // flushes the codec trailer; dst stays open
//
// Speed (fastest to slowest): LZ4 > Snappy/S2 > Zstd > Gzip
// Compression ratio (best to worst): Zstd > Gzip > Snappy/S2 > LZ4
package compression

import (
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/snappy"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/ajitpratap0/source-coda/pkg/errors"
)

// Algorithm represents a compression algorithm.
type Algorithm string

const (
	// None represents no compression
	None Algorithm = "none"
	// Gzip represents gzip compression
	Gzip Algorithm = "gzip"
	// Snappy represents framed snappy compression
	Snappy Algorithm = "snappy"
	// LZ4 represents lz4 frame compression
	LZ4 Algorithm = "lz4"
	// Zstd represents zstandard compression
	Zstd Algorithm = "zstd"
	// S2 represents s2 compression (Snappy compatible)
	S2 Algorithm = "s2"
)

// Level controls the trade-off between speed and ratio.
type Level int

const (
	// Fastest prioritizes speed over compression ratio.
	Fastest Level = 1
	// Default balances speed and compression.
	Default Level = 5
	// Better improves compression at cost of speed.
	Better Level = 7
	// Best maximizes compression ratio.
	Best Level = 9
)

// Config represents compressor configuration.
type Config struct {
	Algorithm Algorithm
	Level     Level
}

var extensions = map[string]Algorithm{
	".gz":     Gzip,
	".gzip":   Gzip,
	".zst":    Zstd,
	".zstd":   Zstd,
	".s2":     S2,
	".sz":     Snappy,
	".snappy": Snappy,
	".lz4":    LZ4,
}

// AlgorithmForPath picks the algorithm matching the extension of p, or None
func AlgorithmForPath(p string) Algorithm {
	if algo, ok := extensions[strings.ToLower(path.Ext(p))]; ok {
		return algo
	}
	return None
}

// ParseAlgorithm validates an algorithm name. The empty string means None.
func ParseAlgorithm(name string) (Algorithm, error) {
	algo := Algorithm(strings.ToLower(strings.TrimSpace(name)))
	switch algo {
	case "":
		return None, nil
	case None, Gzip, Snappy, LZ4, Zstd, S2:
		return algo, nil
	default:
		return "", errors.New(errors.ErrorTypeConfig, fmt.Sprintf("unsupported compression algorithm: %s", name))
	}
}

// NewWriter returns a writer that compresses into dst. Close flushes any
// buffered data and the stream trailer but does not close dst.
func NewWriter(dst io.Writer, cfg Config) (io.WriteCloser, error) {
	switch cfg.Algorithm {
	case None, "":
		return nopWriteCloser{dst}, nil
	case Gzip:
		w, err := gzip.NewWriterLevel(dst, mapGzipLevel(cfg.Level))
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to create gzip writer")
		}
		return w, nil
	case Snappy:
		return snappy.NewBufferedWriter(dst), nil
	case S2:
		return s2.NewWriter(dst, s2Options(cfg.Level)...), nil
	case Zstd:
		w, err := zstd.NewWriter(dst, zstd.WithEncoderLevel(mapZstdLevel(cfg.Level)))
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to create zstd writer")
		}
		return w, nil
	case LZ4:
		w := lz4.NewWriter(dst)
		if err := w.Apply(lz4.CompressionLevelOption(mapLZ4Level(cfg.Level))); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to configure lz4 writer")
		}
		return w, nil
	default:
		return nil, errors.New(errors.ErrorTypeConfig, fmt.Sprintf("unsupported compression algorithm: %s", cfg.Algorithm))
	}
}

// NewReader returns a reader that decompresses src
func NewReader(src io.Reader, algo Algorithm) (io.ReadCloser, error) {
	switch algo {
	case None, "":
		return io.NopCloser(src), nil
	case Gzip:
		r, err := gzip.NewReader(src)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeData, "invalid gzip stream")
		}
		return r, nil
	case Snappy:
		return io.NopCloser(snappy.NewReader(src)), nil
	case S2:
		return io.NopCloser(s2.NewReader(src)), nil
	case Zstd:
		dec, err := zstd.NewReader(src)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeData, "invalid zstd stream")
		}
		return dec.IOReadCloser(), nil
	case LZ4:
		return io.NopCloser(lz4.NewReader(src)), nil
	default:
		return nil, errors.New(errors.ErrorTypeConfig, fmt.Sprintf("unsupported compression algorithm: %s", algo))
	}
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

func mapGzipLevel(level Level) int {
	switch level {
	case Fastest:
		return gzip.BestSpeed
	case Best:
		return gzip.BestCompression
	default:
		return gzip.DefaultCompression
	}
}

func mapLZ4Level(level Level) lz4.CompressionLevel {
	switch level {
	case Fastest:
		return lz4.Fast
	case Best:
		return lz4.Level9
	default:
		return lz4.Level5
	}
}

func mapZstdLevel(level Level) zstd.EncoderLevel {
	switch level {
	case Fastest:
		return zstd.SpeedFastest
	case Better:
		return zstd.SpeedBetterCompression
	case Best:
		return zstd.SpeedBestCompression
	default:
		return zstd.SpeedDefault
	}
}

func s2Options(level Level) []s2.WriterOption {
	switch level {
	case Better:
		return []s2.WriterOption{s2.WriterBetterCompression()}
	case Best:
		return []s2.WriterOption{s2.WriterBestCompression()}
	default:
		return nil
	}
}
