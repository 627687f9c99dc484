package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"quran-tui/internal/api"
	"quran-tui/internal/config"
)

func setGlobals(t *testing.T) {
	t.Helper()
	prevCfg, prevLog := cfg, log
	cfg = &config.Config{Download: config.Download{Concurrency: 4, RPS: 1000}}
	log = zap.NewNop()
	t.Cleanup(func() { cfg, log = prevCfg, prevLog })
}

func TestChapterArg(t *testing.T) {
	id, err := chapterArg("114")
	require.NoError(t, err)
	assert.Equal(t, 114, id)

	for _, bad := range []string{"0", "115", "-1", "al-kahf", ""} {
		_, err := chapterArg(bad)
		assert.Error(t, err, bad)
	}
}

func TestChapterArgs(t *testing.T) {
	all, err := chapterArgs(nil)
	require.NoError(t, err)
	require.Len(t, all, api.ChapterCount)
	assert.Equal(t, 1, all[0])
	assert.Equal(t, 114, all[113])

	ids, err := chapterArgs([]string{"2", "18"})
	require.NoError(t, err)
	assert.Equal(t, []int{2, 18}, ids)

	_, err = chapterArgs([]string{"2", "x", "200"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"x"`)
	assert.Contains(t, err.Error(), `"200"`)
}

func TestPrintChapters(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printChapters(&buf, []api.Chapter{
		{Number: 1, NameLatin: "Al-Fatihah", Name: "الفاتحة", Meaning: "Pembukaan", VerseCount: 7, Revelation: "Mekah"},
	}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "NO"))
	assert.Contains(t, lines[1], "Al-Fatihah")
	assert.Contains(t, lines[1], "Mekah")
}

type fetcherFunc func(ctx context.Context, id int) (*api.ChapterDetail, error)

func (f fetcherFunc) GetChapter(ctx context.Context, id int) (*api.ChapterDetail, error) {
	return f(ctx, id)
}

func detailWith(id, verses int) *api.ChapterDetail {
	d := &api.ChapterDetail{Chapter: api.Chapter{Number: id, VerseCount: verses}}
	for i := 1; i <= verses; i++ {
		d.Verses = append(d.Verses, api.Verse{Number: i})
	}
	return d
}

func TestVerifyChapters(t *testing.T) {
	setGlobals(t)

	fetcher := fetcherFunc(func(_ context.Context, id int) (*api.ChapterDetail, error) {
		switch id {
		case 3:
			d := detailWith(id, 4)
			d.Verses[2].Number = 9
			return d, nil
		case 5:
			return nil, &api.FetchError{Resource: fmt.Sprintf("chapter %d", id), Err: errors.New("boom")}
		default:
			return detailWith(id, id), nil
		}
	})

	advertised := map[int]int{1: 1, 2: 2, 3: 4, 4: 7, 5: 5, 6: 6}
	failures := verifyChapters(context.Background(), fetcher, []int{1, 2, 3, 4, 5, 6}, advertised)

	require.Len(t, failures, 3)
	assert.ErrorIs(t, failures[0], api.ErrInvalidDetail)
	assert.Contains(t, failures[0].Error(), "chapter 3")
	assert.ErrorIs(t, failures[1], api.ErrInvalidDetail)
	assert.Contains(t, failures[1].Error(), "list advertises 7")
	assert.ErrorIs(t, failures[2], api.ErrFetch)
}

func TestVerifyChapters_Cancelled(t *testing.T) {
	setGlobals(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	fetcher := fetcherFunc(func(ctx context.Context, id int) (*api.ChapterDetail, error) {
		return detailWith(id, id), nil
	})

	failures := verifyChapters(ctx, fetcher, []int{1, 2}, nil)
	require.Len(t, failures, 2)
	assert.ErrorIs(t, failures[0], context.Canceled)
}
