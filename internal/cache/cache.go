package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ulikunitz/xz"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"quran-tui/internal/api"
)

const fileExt = ".json.xz"

// Cache is the offline store of chapter details, one xz-compressed JSON
// file per chapter.
type Cache struct {
	cacheDir string
}

// NewCache opens the cache at dir, or at the user's cache directory when
// dir is empty.
func NewCache(dir string) (*Cache, error) {
	if dir == "" {
		base, err := os.UserCacheDir()
		if err != nil {
			return nil, err
		}
		dir = filepath.Join(base, "quran-tui", "chapters")
	}

	// Create cache directory if it doesn't exist
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	return &Cache{cacheDir: dir}, nil
}

func (c *Cache) Dir() string { return c.cacheDir }

func (c *Cache) path(id int) string {
	return filepath.Join(c.cacheDir, fmt.Sprintf("%03d%s", id, fileExt))
}

// IsCached checks if a chapter is already downloaded
func (c *Cache) IsCached(id int) bool {
	_, err := os.Stat(c.path(id))
	return err == nil
}

// GetChapter retrieves a chapter from cached data
func (c *Cache) GetChapter(id int) (*api.ChapterDetail, error) {
	f, err := os.Open(c.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("chapter %d not cached", id)
		}
		return nil, err
	}
	defer f.Close()

	r, err := xz.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("chapter %d: %w", id, err)
	}

	var detail api.ChapterDetail
	if err := json.NewDecoder(r).Decode(&detail); err != nil {
		return nil, fmt.Errorf("chapter %d: %w", id, err)
	}

	return &detail, nil
}

// SaveChapter writes a chapter atomically: a temp file in the cache
// directory is renamed over the final path.
func (c *Cache) SaveChapter(detail *api.ChapterDetail) error {
	tmp, err := os.CreateTemp(c.cacheDir, fmt.Sprintf("%03d-*.tmp", detail.Number))
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	w, err := xz.NewWriter(tmp)
	if err != nil {
		return err
	}
	if err := json.NewEncoder(w).Encode(detail); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), c.path(detail.Number))
}

// ListCached returns the cached chapter ids in ascending order
func (c *Cache) ListCached() ([]int, error) {
	entries, err := os.ReadDir(c.cacheDir)
	if err != nil {
		return nil, err
	}

	var ids []int
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, fileExt) {
			continue
		}
		id, err := strconv.Atoi(strings.TrimSuffix(name, fileExt))
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	sort.Ints(ids)

	return ids, nil
}

// ClearCache removes all cached chapters
func (c *Cache) ClearCache() error {
	return os.RemoveAll(c.cacheDir)
}

// RemoveChapter removes a specific cached chapter
func (c *Cache) RemoveChapter(id int) error {
	return os.Remove(c.path(id))
}

// GetCacheSize returns the total size of cached data in bytes
func (c *Cache) GetCacheSize() (int64, error) {
	var size int64
	entries, err := os.ReadDir(c.cacheDir)
	if err != nil {
		return 0, err
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			info, err := entry.Info()
			if err != nil {
				continue
			}
			size += info.Size()
		}
	}

	return size, nil
}

type ChapterFetcher interface {
	GetChapter(ctx context.Context, id int) (*api.ChapterDetail, error)
}

type DownloadOptions struct {
	Concurrency int
	// RatePerSecond caps request starts; zero means unlimited.
	RatePerSecond float64
	// Force re-downloads chapters that are already cached.
	Force bool
	// Progress, if set, is written one line per stored chapter.
	Progress io.Writer
	Logger   *zap.Logger
}

// Download fetches the given chapters and stores them. Every stored
// chapter is validated first; the first failure cancels the rest.
func (c *Cache) Download(ctx context.Context, fetcher ChapterFetcher, ids []int, opts DownloadOptions) error {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	limit := rate.Inf
	if opts.RatePerSecond > 0 {
		limit = rate.Limit(opts.RatePerSecond)
	}
	limiter := rate.NewLimiter(limit, 1)

	g, ctx := errgroup.WithContext(ctx)
	if opts.Concurrency > 0 {
		g.SetLimit(opts.Concurrency)
	}

	var progressMu sync.Mutex
	start := time.Now()
	for _, id := range ids {
		if !opts.Force && c.IsCached(id) {
			continue
		}
		g.Go(func() error {
			if err := limiter.Wait(ctx); err != nil {
				return err
			}
			detail, err := fetcher.GetChapter(ctx, id)
			if err != nil {
				return err
			}
			if err := api.ValidateDetail(detail); err != nil {
				return err
			}
			if err := c.SaveChapter(detail); err != nil {
				return fmt.Errorf("store chapter %d: %w", id, err)
			}
			logger.Debug("chapter cached", zap.Int("chapter", id), zap.Int("verses", len(detail.Verses)))
			if opts.Progress != nil {
				progressMu.Lock()
				defer progressMu.Unlock()
				fmt.Fprintf(opts.Progress, "%3d %s (%d verses)\n", detail.Number, detail.NameLatin, len(detail.Verses))
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("download finished", zap.Int("chapters", len(ids)), zap.Duration("elapsed", time.Since(start)))
	return nil
}
