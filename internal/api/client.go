package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultBaseURL = "https://equran.id/api/v2"
	DefaultTimeout = 10 * time.Second
)

type CacheInterface interface {
	IsCached(id int) bool
	GetChapter(id int) (*ChapterDetail, error)
}

type Client struct {
	httpClient *http.Client
	baseURL    string
	cache      CacheInterface
	logger     *zap.Logger
}

type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		baseURL:    DefaultBaseURL,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) SetCache(cache CacheInterface) {
	c.cache = cache
}

// envelope is the wrapper every equran.id response uses.
type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (c *Client) ListChapters(ctx context.Context) ([]Chapter, error) {
	var chapters []Chapter
	if err := c.get(ctx, "/surat", &chapters); err != nil {
		c.logger.Error("fetch chapters", zap.Error(err))
		return nil, &FetchError{Resource: "chapters", Err: err}
	}
	return chapters, nil
}

func (c *Client) GetChapter(ctx context.Context, id int) (*ChapterDetail, error) {
	if id < 1 || id > ChapterCount {
		return nil, &FetchError{Resource: fmt.Sprintf("chapter %d", id), Err: ErrNotFound}
	}

	// Try offline cache first if available
	if c.cache != nil && c.cache.IsCached(id) {
		detail, err := c.cache.GetChapter(id)
		if err == nil {
			return detail, nil
		}
		c.logger.Warn("cached chapter unreadable, falling back to API", zap.Int("chapter", id), zap.Error(err))
	}

	var detail *ChapterDetail
	if err := c.get(ctx, fmt.Sprintf("/surat/%d", id), &detail); err != nil {
		c.logger.Error("fetch chapter", zap.Int("chapter", id), zap.Error(err))
		return nil, &FetchError{Resource: fmt.Sprintf("chapter %d", id), Err: err}
	}
	if detail == nil || detail.Number == 0 {
		return nil, &FetchError{Resource: fmt.Sprintf("chapter %d", id), Err: ErrNotFound}
	}

	return detail, nil
}

func (c *Client) GetTafsir(ctx context.Context, id int) (*Tafsir, error) {
	if id < 1 || id > ChapterCount {
		return nil, &FetchError{Resource: fmt.Sprintf("tafsir %d", id), Err: ErrNotFound}
	}

	var t *Tafsir
	if err := c.get(ctx, fmt.Sprintf("/tafsir/%d", id), &t); err != nil {
		c.logger.Error("fetch tafsir", zap.Int("chapter", id), zap.Error(err))
		return nil, &FetchError{Resource: fmt.Sprintf("tafsir %d", id), Err: err}
	}
	if t == nil {
		return nil, &FetchError{Resource: fmt.Sprintf("tafsir %d", id), Err: ErrNotFound}
	}

	return t, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("API returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return ErrNotFound
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode data: %w", err)
	}

	return nil
}
