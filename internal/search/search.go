// Package search implements the debounced chapter search used by the search
// overlay and the search subcommand.
package search

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"quran-tui/internal/api"
)

type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// State is one published search result. Seq identifies the input that
// produced it.
type State struct {
	Seq     uint64
	Query   string
	Results []api.Chapter
	Status  Status
	Err     error
}

type Source interface {
	Get(ctx context.Context) ([]api.Chapter, error)
}

type Options struct {
	Debounce  time.Duration
	MinLength int
	Limit     int
}

func DefaultOptions() Options {
	return Options{
		Debounce:  300 * time.Millisecond,
		MinLength: 1,
		Limit:     20,
	}
}

// Filter matches the query case-insensitively against the transliterated
// name, the meaning and the chapter number, keeping at most limit results.
func Filter(chapters []api.Chapter, query string, limit int) []api.Chapter {
	q := strings.ToLower(strings.TrimSpace(query))
	results := []api.Chapter{}
	if q == "" {
		return results
	}
	for _, ch := range chapters {
		if limit > 0 && len(results) >= limit {
			break
		}
		if strings.Contains(strings.ToLower(ch.NameLatin), q) ||
			strings.Contains(strings.ToLower(ch.Meaning), q) ||
			strings.Contains(strconv.Itoa(ch.Number), q) {
			results = append(results, ch)
		}
	}
	return results
}

// Controller debounces input and publishes the state of the most recent
// search only. Earlier in-flight searches are cancelled.
type Controller struct {
	source Source
	opts   Options
	logger *zap.Logger

	ctx     context.Context
	stop    context.CancelFunc
	updates chan State

	mu     sync.Mutex
	seq    uint64
	timer  *time.Timer
	cancel context.CancelFunc
	state  State
	closed bool

	wg sync.WaitGroup
}

func NewController(source Source, opts Options, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	defaults := DefaultOptions()
	if opts.Debounce < 0 {
		opts.Debounce = 0
	}
	if opts.MinLength <= 0 {
		opts.MinLength = defaults.MinLength
	}
	if opts.Limit <= 0 {
		opts.Limit = defaults.Limit
	}

	ctx, stop := context.WithCancel(context.Background())
	return &Controller{
		source:  source,
		opts:    opts,
		logger:  logger,
		ctx:     ctx,
		stop:    stop,
		updates: make(chan State, 1),
	}
}

// MinLength is the shortest trimmed query that is searched, after defaults
// are applied.
func (c *Controller) MinLength() int {
	return c.opts.MinLength
}

// Updates delivers published states. Only the latest unread state is kept.
// The channel is closed by Close.
func (c *Controller) Updates() <-chan State {
	return c.updates
}

// State returns the last published state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Input records a keystroke. The search runs once the input has been quiet
// for the debounce interval.
func (c *Controller) Input(query string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.seq++
	seq := c.seq
	c.cancelLocked()
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.opts.Debounce, func() { c.fire(seq, query) })
}

// Reset clears results and returns to idle, discarding pending input.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.seq++
	c.cancelLocked()
	if c.timer != nil {
		c.timer.Stop()
	}
	c.state = State{Seq: c.seq, Status: StatusIdle}
	c.publishLocked(c.state)
}

func (c *Controller) fire(seq uint64, query string) {
	c.mu.Lock()
	if c.closed || seq != c.seq {
		c.mu.Unlock()
		return
	}

	if len(strings.TrimSpace(query)) < c.opts.MinLength {
		c.state = State{Seq: seq, Query: query, Status: StatusIdle}
		c.publishLocked(c.state)
		c.mu.Unlock()
		return
	}

	ctx, cancel := context.WithCancel(c.ctx)
	c.cancel = cancel
	c.state = State{Seq: seq, Query: query, Status: StatusLoading}
	c.publishLocked(c.state)
	c.wg.Add(1)
	c.mu.Unlock()

	defer c.wg.Done()
	defer cancel()

	st := c.run(ctx, query)
	st.Seq = seq

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || seq != c.seq || ctx.Err() != nil {
		c.logger.Debug("search superseded", zap.String("query", query), zap.Uint64("seq", seq))
		return
	}
	c.state = st
	c.publishLocked(st)
}

// Search runs a query immediately, without debounce or sequencing.
func (c *Controller) Search(ctx context.Context, query string) State {
	if len(strings.TrimSpace(query)) < c.opts.MinLength {
		return State{Query: query, Status: StatusIdle}
	}
	return c.run(ctx, query)
}

func (c *Controller) run(ctx context.Context, query string) State {
	chapters, err := c.source.Get(ctx)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			c.logger.Error("search failed", zap.String("query", query), zap.Error(err))
		}
		return State{Query: query, Status: StatusError, Results: []api.Chapter{}, Err: err}
	}
	return State{
		Query:   query,
		Status:  StatusSuccess,
		Results: Filter(chapters, query, c.opts.Limit),
	}
}

func (c *Controller) cancelLocked() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

// publishLocked replaces any unread state with s. It never blocks: the
// buffer holds one state and only the holder of c.mu sends.
func (c *Controller) publishLocked(s State) {
	select {
	case <-c.updates:
	default:
	}
	c.updates <- s
}

// Close cancels pending and in-flight searches, waits for them and closes
// the updates channel.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	if c.timer != nil {
		c.timer.Stop()
	}
	c.cancelLocked()
	c.stop()
	c.mu.Unlock()

	c.wg.Wait()
	close(c.updates)
}
