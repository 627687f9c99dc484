package cache

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	"quran-tui/internal/api"
)

type ChapterLister interface {
	ListChapters(ctx context.Context) ([]api.Chapter, error)
}

// ChapterList holds the chapter list for the lifetime of the session.
// Concurrent callers share a single request; failures are not cached.
type ChapterList struct {
	lister ChapterLister
	group  singleflight.Group

	mu       sync.RWMutex
	chapters []api.Chapter
}

func NewChapterList(lister ChapterLister) *ChapterList {
	return &ChapterList{lister: lister}
}

// Get returns the cached list, fetching it on first use. A cancelled ctx
// returns early without aborting the shared request, so a later caller can
// still pick up its result.
func (l *ChapterList) Get(ctx context.Context) ([]api.Chapter, error) {
	if chapters, ok := l.Cached(); ok {
		return chapters, nil
	}

	ch := l.group.DoChan("chapters", func() (any, error) {
		chapters, err := l.lister.ListChapters(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		l.mu.Lock()
		l.chapters = chapters
		l.mu.Unlock()
		return chapters, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]api.Chapter), nil
	}
}

func (l *ChapterList) Cached() ([]api.Chapter, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.chapters, l.chapters != nil
}

// Set seeds the cache, e.g. from a list the UI already loaded.
func (l *ChapterList) Set(chapters []api.Chapter) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.chapters = chapters
}

func (l *ChapterList) Invalidate() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.chapters = nil
}
