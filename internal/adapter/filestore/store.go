// Package filestore writes the map payload to the local filesystem.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/couchcryptid/msm-weather-map/internal/domain"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// codec produces a precompressed sibling of the payload file.
type codec struct {
	ext  string
	wrap func(io.Writer) (io.WriteCloser, error)
}

var codecs = map[string]codec{
	"gzip": {ext: ".gz", wrap: func(w io.Writer) (io.WriteCloser, error) {
		return gzip.NewWriterLevel(w, gzip.BestCompression)
	}},
	"zstd": {ext: ".zst", wrap: func(w io.Writer) (io.WriteCloser, error) {
		return zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	}},
	"lz4": {ext: ".lz4", wrap: func(w io.Writer) (io.WriteCloser, error) {
		return lz4.NewWriter(w), nil
	}},
}

// Store writes the payload artifact and its compressed siblings. Every file
// is written to a temporary name in the target directory and renamed, so
// readers see either the previous payload or the complete new one.
// It implements pipeline.Loader and pipeline.Cleaner.
type Store struct {
	path         string
	compressions []string
	logger       *slog.Logger
}

// NewStore creates a Store writing to path. compressions names the siblings
// to produce: any of gzip, zstd and lz4.
func NewStore(path string, compressions []string, logger *slog.Logger) (*Store, error) {
	for _, name := range compressions {
		if _, ok := codecs[name]; !ok {
			return nil, fmt.Errorf("unknown compression %q", name)
		}
	}
	return &Store{path: path, compressions: compressions, logger: logger}, nil
}

// Path returns the payload file path.
func (s *Store) Path() string {
	return s.path
}

// SiblingPath returns the path of the compressed sibling for the named codec.
func (s *Store) SiblingPath(compression string) string {
	return s.path + codecs[compression].ext
}

// Load writes the artifact. The payload and every sibling are staged as
// temporary files first; nothing is renamed into place until all of them are
// written, and the payload itself is renamed last.
func (s *Store) Load(ctx context.Context, a domain.Artifact) error {
	start := time.Now()
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	var staged []stagedFile
	defer func() {
		for _, f := range staged {
			os.Remove(f.tmp) //nolint:errcheck // no-op after a successful rename
		}
	}()

	for _, name := range s.compressions {
		if err := ctx.Err(); err != nil {
			return err
		}
		c := codecs[name]
		f, err := stage(s.path+c.ext, func(w io.Writer) error {
			return compressTo(w, c, a.Data)
		})
		if err != nil {
			return fmt.Errorf("%s sibling: %w", name, err)
		}
		staged = append(staged, f)
	}

	f, err := stage(s.path, func(w io.Writer) error {
		_, err := w.Write(a.Data)
		return err
	})
	if err != nil {
		return err
	}
	staged = append(staged, f)

	if err := ctx.Err(); err != nil {
		return err
	}
	for _, f := range staged {
		if err := os.Rename(f.tmp, f.path); err != nil {
			return fmt.Errorf("rename %s: %w", f.path, err)
		}
	}

	s.logger.Info("payload written",
		"path", s.path,
		"bytes", len(a.Data),
		"digest", a.DigestHex(),
		"siblings", s.compressions,
		"duration", time.Since(start).Round(time.Millisecond),
	)
	return nil
}

// Remove deletes the given files. Files that do not exist are ignored.
func (s *Store) Remove(paths ...string) error {
	var errs []error
	for _, p := range paths {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func compressTo(w io.Writer, c codec, data []byte) error {
	cw, err := c.wrap(w)
	if err != nil {
		return err
	}
	if _, err := cw.Write(data); err != nil {
		cw.Close()
		return err
	}
	return cw.Close()
}

// stagedFile is a fully written temporary file awaiting its rename.
type stagedFile struct {
	tmp  string
	path string
}

// stage writes a temporary file next to path. The caller renames or removes it.
func stage(path string, write func(io.Writer) error) (stagedFile, error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return stagedFile{}, fmt.Errorf("create temp file: %w", err)
	}
	f := stagedFile{tmp: tmp.Name(), path: path}

	if err := write(tmp); err != nil {
		tmp.Close()
		os.Remove(f.tmp) //nolint:errcheck // best-effort cleanup
		return stagedFile{}, fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		os.Remove(f.tmp) //nolint:errcheck // best-effort cleanup
		return stagedFile{}, fmt.Errorf("chmod %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(f.tmp) //nolint:errcheck // best-effort cleanup
		return stagedFile{}, fmt.Errorf("close %s: %w", path, err)
	}
	return f, nil
}
