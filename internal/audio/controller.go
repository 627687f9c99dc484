// Package audio serializes playback of at most one audio resource at a time
// and publishes completion events to subscribers.
package audio

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

var ErrClosed = errors.New("audio controller closed")

// Handle is a started playback. Done is closed when playback ends, either
// naturally or through Stop. Stop rewinds to position zero.
type Handle interface {
	Done() <-chan struct{}
	Err() error
	Stop()
}

type Backend interface {
	Start(url string) (Handle, error)
}

type EventKind int

const (
	// Finished is sent when the active track plays to its end.
	Finished EventKind = iota
	// Failed is sent when the active track ends with an error.
	Failed
)

func (k EventKind) String() string {
	switch k {
	case Finished:
		return "finished"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

type Event struct {
	Kind    EventKind
	TrackID string
	Err     error
}

// State is Idle when TrackID is empty, Playing(TrackID) otherwise.
type State struct {
	TrackID string
}

func (s State) Playing() bool { return s.TrackID != "" }

const subscriberBuffer = 8

type Controller struct {
	backend Backend
	logger  *zap.Logger

	mu      sync.Mutex
	current Handle
	track   string
	gen     uint64
	subs    map[int]chan Event
	nextSub int
	closed  bool

	wg sync.WaitGroup
}

func NewController(backend Backend, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		backend: backend,
		logger:  logger,
		subs:    make(map[int]chan Event),
	}
}

// Play starts url as trackID. A different active track is stopped first;
// calling Play with the active trackID stops it instead.
func (c *Controller) Play(url, trackID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}

	if c.current != nil {
		active := c.track
		c.stopLocked()
		if active == trackID {
			c.logger.Debug("playback toggled off", zap.String("track", trackID))
			return nil
		}
	}

	h, err := c.backend.Start(url)
	if err != nil {
		c.logger.Error("start playback", zap.String("track", trackID), zap.String("url", url), zap.Error(err))
		return fmt.Errorf("play %s: %w", trackID, err)
	}

	c.gen++
	c.current = h
	c.track = trackID
	c.logger.Debug("playback started", zap.String("track", trackID))

	c.wg.Add(1)
	go c.watch(c.gen, trackID, h)

	return nil
}

// Stop halts the active track, if any.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
}

func (c *Controller) stopLocked() {
	if c.current == nil {
		return
	}
	c.current.Stop()
	c.current = nil
	c.track = ""
	c.gen++
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return State{TrackID: c.track}
}

// IsPlaying reports whether trackID is the active track.
func (c *Controller) IsPlaying(trackID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current != nil && c.track == trackID
}

// Subscribe returns a channel of playback events and a function that
// detaches it. Events are dropped for a subscriber whose buffer is full.
func (c *Controller) Subscribe() (<-chan Event, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := make(chan Event, subscriberBuffer)
	if c.closed {
		close(ch)
		return ch, func() {}
	}

	id := c.nextSub
	c.nextSub++
	c.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			if sub, ok := c.subs[id]; ok {
				delete(c.subs, id)
				close(sub)
			}
		})
	}
}

func (c *Controller) watch(gen uint64, trackID string, h Handle) {
	defer c.wg.Done()
	<-h.Done()

	c.mu.Lock()
	defer c.mu.Unlock()

	// Superseded or stopped: nothing to report.
	if gen != c.gen {
		return
	}
	c.current = nil
	c.track = ""
	c.gen++

	ev := Event{Kind: Finished, TrackID: trackID}
	if err := h.Err(); err != nil {
		ev = Event{Kind: Failed, TrackID: trackID, Err: err}
		c.logger.Warn("playback failed", zap.String("track", trackID), zap.Error(err))
	} else {
		c.logger.Debug("playback finished", zap.String("track", trackID))
	}
	c.publishLocked(ev)
}

func (c *Controller) publishLocked(ev Event) {
	for id, ch := range c.subs {
		select {
		case ch <- ev:
		default:
			c.logger.Warn("dropping playback event", zap.Int("subscriber", id), zap.Stringer("kind", ev.Kind))
		}
	}
}

// Close stops playback, waits for watchers and closes every subscriber.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.stopLocked()
	c.mu.Unlock()

	c.wg.Wait()

	c.mu.Lock()
	defer c.mu.Unlock()
	for id, ch := range c.subs {
		delete(c.subs, id)
		close(ch)
	}
}
