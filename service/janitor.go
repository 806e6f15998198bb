package service

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// Janitor deletes aged files from the working directories. It runs on its
// own schedule, independent of the in-memory result cache: cache expiry and
// file cleanup are deliberately unsynchronized.
type Janitor struct {
	dirs     []string
	maxAge   time.Duration
	interval time.Duration

	now func() time.Time
}

func NewJanitor(dirs []string, maxAge, interval time.Duration) *Janitor {
	return &Janitor{dirs: dirs, maxAge: maxAge, interval: interval, now: time.Now}
}

func (j *Janitor) Run(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			removed := j.Sweep(ctx)
			if removed > 0 {
				zerolog.Ctx(ctx).Info().Int("removed", removed).Msg("janitor removed aged files")
			}
		case <-ctx.Done():
			return
		}
	}
}

// Sweep removes regular files older than maxAge from the managed dirs and
// reports how many were deleted.
func (j *Janitor) Sweep(ctx context.Context) int {
	cutoff := j.now().Add(-j.maxAge)
	removed := 0
	for _, dir := range j.dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Str("dir", dir).Msg("janitor cannot read directory")
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			info, err := entry.Info()
			if err != nil {
				continue
			}
			if info.ModTime().After(cutoff) {
				continue
			}
			path := filepath.Join(dir, entry.Name())
			if err := os.Remove(path); err != nil {
				zerolog.Ctx(ctx).Warn().Err(err).Str("path", path).Msg("janitor failed to remove file")
				continue
			}
			removed++
		}
	}
	return removed
}
