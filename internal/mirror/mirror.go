// Package mirror makes local disk content match a remote folder tree.
//
// The walk is single-threaded, depth-first recursion: each folder is
// listed, subfolders recurse, and files are fetched unless a local copy
// with the same byte size already exists. A file is satisfied iff it
// exists and its length equals the remote-reported size; content hashing
// is out of scope.
package mirror

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/Jaebeom-git/InferBiomechanics/internal/logging"
	"github.com/Jaebeom-git/InferBiomechanics/internal/metrics"
	"github.com/Jaebeom-git/InferBiomechanics/internal/remote"
)

const defaultChunkSize = 1 << 20 // 1MB

// ErrMaxDepth is returned when the remote tree is deeper than MaxDepth.
var ErrMaxDepth = errors.New("max folder depth exceeded")

// TransferError wraps a failure of a single file's transfer. By default it
// aborts the remaining siblings in the current folder; ContinueOnError
// isolates it to the one file.
type TransferError struct {
	Name string
	Err  error
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("transfer %s: %v", e.Name, e.Err)
}

func (e *TransferError) Unwrap() error {
	return e.Err
}

// ProgressFunc reports fractional transfer progress for a file. Fractions
// are monotonically non-decreasing and end at 1.
type ProgressFunc func(name string, fraction float64)

// Config holds mirror configuration.
type Config struct {
	Service        remote.Service
	SourceFolderID string
	DestRoot       string

	OnProgress ProgressFunc // optional

	// ContinueOnError isolates per-file transfer failures instead of
	// aborting the remaining siblings in the folder.
	ContinueOnError bool

	// MaxDepth bounds the recursion when > 0.
	MaxDepth int

	// ChunkSize is the transfer buffer size (default 1MB).
	ChunkSize int
}

// Stats holds counters for one mirror run.
type Stats struct {
	FilesDownloaded atomic.Int64
	FilesSkipped    atomic.Int64
	BytesDownloaded atomic.Int64
	TransferErrors  atomic.Int64
	FoldersVisited  atomic.Int64
}

// Mirror walks a remote folder tree and materializes it under DestRoot.
type Mirror struct {
	cfg   Config
	Stats Stats
}

// New creates a Mirror.
func New(cfg Config) *Mirror {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = defaultChunkSize
	}
	return &Mirror{cfg: cfg}
}

// Run mirrors the source folder into DestRoot and returns the local paths
// materialized during this run. Skipped files are not included.
func (m *Mirror) Run(ctx context.Context) ([]string, error) {
	return m.mirrorFolder(ctx, m.cfg.SourceFolderID, m.cfg.DestRoot, 1)
}

func (m *Mirror) mirrorFolder(ctx context.Context, folderID, dest string, depth int) ([]string, error) {
	if m.cfg.MaxDepth > 0 && depth > m.cfg.MaxDepth {
		return nil, fmt.Errorf("%w at %s", ErrMaxDepth, dest)
	}

	if err := os.MkdirAll(dest, 0755); err != nil {
		return nil, fmt.Errorf("create %s: %w", dest, err)
	}

	children, err := m.cfg.Service.ListChildren(ctx, folderID)
	if err != nil {
		return nil, err
	}
	m.Stats.FoldersVisited.Add(1)
	metrics.FolderVisited()
	logging.Debug("listed folder",
		logging.String("dest", dest),
		logging.Int("children", len(children)))

	var materialized []string
	for _, child := range children {
		if child.IsFolder() {
			paths, err := m.mirrorFolder(ctx, child.ID, filepath.Join(dest, child.Name), depth+1)
			materialized = append(materialized, paths...)
			if err != nil {
				return materialized, err
			}
			continue
		}

		path, err := m.fetchFile(ctx, child, dest)
		if err != nil {
			terr := &TransferError{Name: child.Name, Err: err}
			m.Stats.TransferErrors.Add(1)
			metrics.TransferFailed()
			if m.cfg.ContinueOnError {
				logging.Error("transfer failed, continuing", logging.Err(terr))
				continue
			}
			return materialized, terr
		}
		if path != "" {
			materialized = append(materialized, path)
		}
	}
	return materialized, nil
}

// fetchFile downloads one file unless the local copy is already satisfied.
// It returns the target path on download and "" on skip.
func (m *Mirror) fetchFile(ctx context.Context, node remote.Node, destDir string) (string, error) {
	// Re-query the size; native document types report none and count as 0.
	size, err := m.cfg.Service.FileSize(ctx, node.ID)
	if err != nil {
		return "", fmt.Errorf("probe size: %w", err)
	}

	target := filepath.Join(destDir, node.Name)
	if info, err := os.Stat(target); err == nil && !info.IsDir() && info.Size() == size {
		logging.Info("skip, already satisfied",
			logging.String("file", node.Name),
			logging.Int64("size", size))
		m.Stats.FilesSkipped.Add(1)
		metrics.FileSkipped()
		return "", nil
	}

	start := time.Now()
	body, err := m.cfg.Service.Download(ctx, node.ID)
	if err != nil {
		return "", err
	}
	defer body.Close()

	// Truncates: a size-mismatch re-download fully overwrites the old content.
	f, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", target, err)
	}

	written, err := m.copyChunks(node.Name, f, body, size)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", err
	}

	m.Stats.FilesDownloaded.Add(1)
	m.Stats.BytesDownloaded.Add(written)
	metrics.FileDownloaded(written, time.Since(start))
	logging.Info("downloaded",
		logging.String("file", node.Name),
		logging.Int64("bytes", written),
		logging.Duration("took", time.Since(start)))
	return target, nil
}

// copyChunks copies the stream in ChunkSize chunks, reporting progress
// after each one. Fractions never decrease; a 0-byte file reports 1
// immediately.
func (m *Mirror) copyChunks(name string, dst io.Writer, src io.Reader, total int64) (int64, error) {
	buf := make([]byte, m.cfg.ChunkSize)
	var written int64
	var last float64

	report := func(fraction float64) {
		if fraction > 1 {
			fraction = 1
		}
		if fraction < last {
			fraction = last
		}
		last = fraction
		if m.cfg.OnProgress != nil {
			m.cfg.OnProgress(name, fraction)
		}
	}

	for {
		n, rerr := src.Read(buf)
		if n > 0 {
			wn, werr := dst.Write(buf[:n])
			written += int64(wn)
			if werr != nil {
				return written, werr
			}
			if wn < n {
				return written, io.ErrShortWrite
			}
			if total > 0 {
				report(float64(written) / float64(total))
			}
		}
		if rerr == io.EOF {
			report(1)
			return written, nil
		}
		if rerr != nil {
			return written, rerr
		}
	}
}
