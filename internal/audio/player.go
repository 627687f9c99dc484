package audio

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// DefaultPlayer streams a URL without opening a window.
const DefaultPlayer = "mpv --no-video --really-quiet"

// ExecBackend plays audio by running an external player with the URL as its
// last argument. A killed player is a stop, not a failure.
type ExecBackend struct {
	command string
	args    []string
	logger  *zap.Logger
}

// NewExecBackend parses a command line such as DefaultPlayer.
func NewExecBackend(commandLine string, logger *zap.Logger) (*ExecBackend, error) {
	fields := strings.Fields(commandLine)
	if len(fields) == 0 {
		return nil, errors.New("empty player command")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExecBackend{command: fields[0], args: fields[1:], logger: logger}, nil
}

// Available reports whether the player binary can be found in PATH.
func (b *ExecBackend) Available() bool {
	_, err := exec.LookPath(b.command)
	return err == nil
}

func (b *ExecBackend) Start(url string) (Handle, error) {
	ctx, cancel := context.WithCancel(context.Background())
	args := append(append([]string{}, b.args...), url)
	cmd := exec.CommandContext(ctx, b.command, args...)

	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("start %s: %w", b.command, err)
	}
	b.logger.Debug("player started", zap.String("command", b.command), zap.Int("pid", cmd.Process.Pid))

	h := &processHandle{cancel: cancel, done: make(chan struct{})}
	go func() {
		err := cmd.Wait()
		h.mu.Lock()
		if !h.stopped && err != nil {
			h.err = fmt.Errorf("%s: %w", b.command, err)
		}
		h.mu.Unlock()
		cancel()
		close(h.done)
	}()

	return h, nil
}

type processHandle struct {
	cancel context.CancelFunc
	done   chan struct{}

	mu      sync.Mutex
	stopped bool
	err     error
}

func (h *processHandle) Done() <-chan struct{} { return h.done }

func (h *processHandle) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

// Stop kills the player. The next Start begins a fresh process, so playback
// always restarts from the beginning.
func (h *processHandle) Stop() {
	h.mu.Lock()
	h.stopped = true
	h.mu.Unlock()
	h.cancel()
	<-h.done
}
