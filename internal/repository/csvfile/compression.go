package csvfile

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4"
	"github.com/ulikunitz/xz"
	pb "gopkg.in/cheggaaa/pb.v1"
)

// Compression - кодек сжатия всего файла, выбирается по расширению
type Compression string

const (
	CompressionNone Compression = ""
	CompressionGzip Compression = "gzip"
	CompressionZstd Compression = "zstd"
	CompressionLz4  Compression = "lz4"
	CompressionXz   Compression = "xz"
)

// CompressionFor возвращает кодек по расширению path
func CompressionFor(path string) Compression {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz", ".gzip":
		return CompressionGzip
	case ".zst", ".zstd":
		return CompressionZstd
	case ".lz4":
		return CompressionLz4
	case ".xz":
		return CompressionXz
	default:
		return CompressionNone
	}
}

// ParseCompression принимает имя кодека; "" и "none" означают без сжатия
func ParseCompression(s string) (Compression, error) {
	switch c := Compression(strings.ToLower(strings.TrimSpace(s))); c {
	case "none":
		return CompressionNone, nil
	case CompressionNone, CompressionGzip, CompressionZstd, CompressionLz4, CompressionXz:
		return c, nil
	}
	return CompressionNone, fmt.Errorf("unknown compression %q", s)
}

// Extension возвращает суффикс файла для кодека
func (c Compression) Extension() string {
	switch c {
	case CompressionGzip:
		return ".gz"
	case CompressionZstd:
		return ".zst"
	case CompressionLz4:
		return ".lz4"
	case CompressionXz:
		return ".xz"
	default:
		return ""
	}
}

type readCloser struct {
	io.Reader
	closers []func() error
}

func (r *readCloser) Close() error {
	var first error
	for _, c := range r.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

type writeCloser struct {
	io.Writer
	closers []func() error
}

func (w *writeCloser) Close() error {
	var first error
	for _, c := range w.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// openReader открывает path и распаковывает по расширению. С progress
// прочитанные байты выводятся в stderr.
func openReader(path string, progress bool) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	var src io.Reader = f
	closers := []func() error{}
	if progress {
		if fi, err := f.Stat(); err == nil {
			bar := pb.New64(fi.Size()).SetUnits(pb.U_BYTES_DEC).SetWidth(79)
			bar.Output = os.Stderr
			bar.Start()
			src = bar.NewProxyReader(f)
			closers = append(closers, func() error {
				bar.NotPrint = true
				bar.Finish()
				return nil
			})
		}
	}

	var r io.Reader
	switch CompressionFor(path) {
	case CompressionGzip:
		gz, err := gzip.NewReader(src)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("gzip reader: %w", err)
		}
		r = gz
		closers = append(closers, gz.Close)
	case CompressionZstd:
		zr, err := zstd.NewReader(src)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("zstd reader: %w", err)
		}
		r = zr
		closers = append(closers, func() error { zr.Close(); return nil })
	case CompressionLz4:
		r = lz4.NewReader(src)
	case CompressionXz:
		xr, err := xz.NewReader(src)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("xz reader: %w", err)
		}
		r = xr
	default:
		r = src
	}

	closers = append(closers, f.Close)
	return &readCloser{Reader: r, closers: closers}, nil
}

// createWriter создаёт path и оборачивает кодеком по расширению. Close
// сбрасывает кодек перед закрытием файла.
func createWriter(path string) (io.WriteCloser, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}

	var w io.Writer
	closers := []func() error{}

	switch CompressionFor(path) {
	case CompressionGzip:
		gz := gzip.NewWriter(f)
		w = gz
		closers = append(closers, gz.Close)
	case CompressionZstd:
		zw, err := zstd.NewWriter(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("zstd writer: %w", err)
		}
		w = zw
		closers = append(closers, zw.Close)
	case CompressionLz4:
		lw := lz4.NewWriter(f)
		w = lw
		closers = append(closers, lw.Close)
	case CompressionXz:
		xw, err := xz.NewWriter(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("xz writer: %w", err)
		}
		w = xw
		closers = append(closers, xw.Close)
	default:
		w = f
	}

	closers = append(closers, f.Close)
	return &writeCloser{Writer: w, closers: closers}, nil
}
