// Package staging manages per-request download directories
package staging

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Marinerbyte/Ytmagic/config"
)

// Area is the root directory under which every request gets its own directory
type Area struct {
	root   string
	logger zerolog.Logger
}

// NewArea creates the staging root if it does not exist
func NewArea(cfg *config.MediaConfig, logger zerolog.Logger) (*Area, error) {
	if err := os.MkdirAll(cfg.DownloadPath, 0o755); err != nil {
		return nil, fmt.Errorf("create staging root %s: %w", cfg.DownloadPath, err)
	}

	return &Area{
		root:   cfg.DownloadPath,
		logger: logger.With().Str("component", "staging").Logger(),
	}, nil
}

// Root returns the staging root
func (a *Area) Root() string {
	return a.root
}

// Request is a directory owned by exactly one delivery
type Request struct {
	Dir string
}

// NewRequest creates a fresh, uniquely named request directory
func (a *Area) NewRequest() (*Request, error) {
	dir := filepath.Join(a.root, uuid.NewString())
	if err := os.Mkdir(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create request dir: %w", err)
	}
	return &Request{Dir: dir}, nil
}

// FilePath returns the staged file path for a video/format pair
func (r *Request) FilePath(videoID string, formatID int) string {
	return filepath.Join(r.Dir, fmt.Sprintf("%s_%d.mp4", videoID, formatID))
}

// Release removes the request directory and everything in it
func (a *Area) Release(r *Request) {
	if r == nil {
		return
	}
	if err := os.RemoveAll(r.Dir); err != nil {
		a.logger.Error().Err(err).Str("dir", r.Dir).Msg("Failed to remove staged files")
		return
	}
	a.logger.Debug().Str("dir", r.Dir).Msg("Staged files removed")
}

// Purge removes request directories left over from a previous run. Only
// directories untouched for longer than olderThan are removed, so instances
// sharing the staging root do not delete each other's in-flight files.
func (a *Area) Purge(olderThan time.Duration) (int, error) {
	entries, err := os.ReadDir(a.root)
	if err != nil {
		return 0, fmt.Errorf("read staging root: %w", err)
	}

	removed := 0
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if _, err := uuid.Parse(entry.Name()); err != nil {
			continue
		}
		info, err := entry.Info()
		if err != nil || time.Since(info.ModTime()) < olderThan {
			continue
		}
		if err := os.RemoveAll(filepath.Join(a.root, entry.Name())); err != nil {
			a.logger.Warn().Err(err).Str("dir", entry.Name()).Msg("Failed to purge stale request dir")
			continue
		}
		removed++
	}
	return removed, nil
}
