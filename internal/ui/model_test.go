package ui

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quran-tui/internal/api"
	"quran-tui/internal/audio"
	"quran-tui/internal/search"
	"quran-tui/internal/state"
)

// testDetail builds chapter n with verses that have audio for "01" and "05".
func testDetail(n, verses int) *api.ChapterDetail {
	d := &api.ChapterDetail{Chapter: api.Chapter{
		Number:     n,
		Name:       "سورة",
		NameLatin:  fmt.Sprintf("Surah-%d", n),
		Meaning:    "meaning",
		Revelation: "Mekah",
		VerseCount: verses,
		FullAudio:  map[string]string{"01": "full/01", "05": "full/05"},
	}}
	for i := 1; i <= verses; i++ {
		d.Verses = append(d.Verses, api.Verse{
			Number:      i,
			Arabic:      "بِسْمِ",
			Latin:       "bismi",
			Translation: fmt.Sprintf("translation %d", i),
			Audio: map[string]string{
				"01": fmt.Sprintf("01/%d/%d", n, i),
				"05": fmt.Sprintf("05/%d/%d", n, i),
			},
		})
	}
	if n > 1 {
		d.Prev = &api.ChapterRef{Number: n - 1}
	}
	if n < api.ChapterCount {
		d.Next = &api.ChapterRef{Number: n + 1}
	}
	return d
}

type fakeClient struct {
	mu        sync.Mutex
	tafsir    *api.Tafsir
	tafsirErr error
}

func (c *fakeClient) GetChapter(_ context.Context, id int) (*api.ChapterDetail, error) {
	if id < 1 || id > api.ChapterCount {
		return nil, &api.FetchError{Resource: fmt.Sprintf("chapter %d", id), Err: api.ErrNotFound}
	}
	return testDetail(id, 3), nil
}

func (c *fakeClient) GetTafsir(_ context.Context, id int) (*api.Tafsir, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tafsirErr != nil {
		return nil, c.tafsirErr
	}
	return c.tafsir, nil
}

type fakeSource []api.Chapter

func (s fakeSource) Get(context.Context) ([]api.Chapter, error) { return s, nil }

type fakeHandle struct {
	done chan struct{}
	once sync.Once
}

func (h *fakeHandle) Done() <-chan struct{} { return h.done }
func (h *fakeHandle) Err() error            { return nil }
func (h *fakeHandle) Stop()                 { h.once.Do(func() { close(h.done) }) }

type fakeBackend struct {
	mu   sync.Mutex
	urls []string
}

func (b *fakeBackend) Start(url string) (audio.Handle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.urls = append(b.urls, url)
	return &fakeHandle{done: make(chan struct{})}, nil
}

func testChapters() []api.Chapter {
	return []api.Chapter{
		{Number: 1, NameLatin: "Al-Fatihah", Meaning: "Pembukaan", VerseCount: 7},
		{Number: 2, NameLatin: "Al-Baqarah", Meaning: "Sapi Betina", VerseCount: 286},
		{Number: 18, NameLatin: "Al-Kahf", Meaning: "Gua", VerseCount: 110},
	}
}

type harness struct {
	client  *fakeClient
	backend *fakeBackend
	player  *audio.Controller
	search  *search.Controller
	app     *state.App
	opened  []int
}

func newHarness(t *testing.T) (*harness, Model) {
	t.Helper()
	h := &harness{
		client:  &fakeClient{},
		backend: &fakeBackend{},
		app:     state.NewApp(true, "01"),
	}
	h.player = audio.NewController(h.backend, nil)
	h.search = search.NewController(fakeSource(testChapters()), search.Options{Debounce: 0}, nil)

	m := NewModel(Deps{
		Client:    h.client,
		Chapters:  fakeSource(testChapters()),
		Search:    h.search,
		Player:    h.player,
		App:       h.app,
		OnChapter: func(id int) { h.opened = append(h.opened, id) },
	})
	t.Cleanup(func() {
		m.Close()
		h.search.Close()
		h.player.Close()
	})

	m = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})
	m = update(t, m, chaptersLoadedMsg{testChapters()})
	return h, m
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

// press sends a key and, when the key started a chapter or tafsir load,
// runs the load and applies its result. Other commands (cursor blink) are
// dropped.
func press(t *testing.T, m Model, k tea.KeyMsg) Model {
	t.Helper()
	next, cmd := m.Update(k)
	m = next.(Model)
	if cmd == nil || (m.pending == 0 && !m.tafsirLoading) {
		return m
	}
	return update(t, m, cmd())
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

var (
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
	keyEsc   = tea.KeyMsg{Type: tea.KeyEsc}
	keySpace = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
)

func TestModel_OpenChapterFromList(t *testing.T) {
	h, m := newHarness(t)
	assert.Contains(t, m.View(), "Al-Fatihah")

	m = press(t, m, runes("j"))
	m = press(t, m, keyEnter)

	require.NotNil(t, m.detail)
	assert.Equal(t, modeChapter, m.mode)
	assert.Equal(t, 2, m.detail.Number)
	assert.Equal(t, 1, m.verse)
	assert.Equal(t, []int{2}, h.opened)
	assert.Contains(t, m.View(), "Surah-2")
	assert.Contains(t, m.View(), "translation 1")

	m = press(t, m, keyEsc)
	assert.Equal(t, modeList, m.mode)
}

func TestModel_StaleChapterLoadIgnored(t *testing.T) {
	_, m := newHarness(t)

	next, _ := m.openChapter(5)
	m = next.(Model)
	m = update(t, m, chapterLoadedMsg{id: 4, detail: testDetail(4, 3)})
	assert.Nil(t, m.detail)
	assert.True(t, m.loading)

	m = update(t, m, chapterLoadedMsg{id: 5, detail: testDetail(5, 3)})
	require.NotNil(t, m.detail)
	assert.Equal(t, 5, m.detail.Number)
	assert.False(t, m.loading)
}

func TestModel_ChapterNotFound(t *testing.T) {
	h, m := newHarness(t)

	next, cmd := m.openChapter(200)
	m = update(t, next.(Model), cmd())

	assert.Nil(t, m.detail)
	require.Error(t, m.err)
	assert.Equal(t, "chapter 200 not found", m.err.Error())
	assert.Contains(t, m.View(), "chapter 200 not found")
	assert.Empty(t, h.opened)
}

func openChapter(t *testing.T, m Model, id int) Model {
	t.Helper()
	next, cmd := m.openChapter(id)
	return update(t, next.(Model), cmd())
}

func TestModel_PlayVerseAndAutoAdvance(t *testing.T) {
	h, m := newHarness(t)
	m = openChapter(t, m, 1)

	m = press(t, m, keySpace)
	assert.Equal(t, "ayah-1-1", h.player.State().TrackID)
	assert.Contains(t, m.View(), "Ayat 1")

	m = update(t, m, audioEventMsg{Kind: audio.Finished, TrackID: "ayah-1-1"})
	assert.Equal(t, "ayah-1-2", h.player.State().TrackID)
	assert.Equal(t, 2, m.verse, "cursor follows playback")

	m = update(t, m, audioEventMsg{Kind: audio.Finished, TrackID: "ayah-1-2"})
	assert.Equal(t, "ayah-1-3", h.player.State().TrackID)

	// Last verse: the handle really finishes and nothing follows.
	h.player.Stop()
	m = update(t, m, audioEventMsg{Kind: audio.Finished, TrackID: "ayah-1-3"})
	assert.False(t, h.player.State().Playing())
	assert.Equal(t, 3, m.verse)
	assert.Equal(t, []string{"01/1/1", "01/1/2", "01/1/3"}, h.backend.urls)
}

func TestModel_ToggleVerseStops(t *testing.T) {
	h, m := newHarness(t)
	m = openChapter(t, m, 1)

	m = press(t, m, keySpace)
	assert.True(t, h.player.IsPlaying("ayah-1-1"))
	m = press(t, m, keySpace)
	assert.False(t, h.player.State().Playing())

	m = press(t, m, runes("f"))
	assert.True(t, h.player.IsPlaying("full-1"))
	assert.Contains(t, m.View(), "Full surah")

	m = press(t, m, runes("s"))
	assert.False(t, h.player.State().Playing())
}

func TestModel_FailedPlaybackShowsStatus(t *testing.T) {
	_, m := newHarness(t)
	m = openChapter(t, m, 1)

	m = update(t, m, audioEventMsg{Kind: audio.Failed, TrackID: "full-1", Err: errors.New("player exited")})
	assert.Contains(t, m.status, "player exited")
}

func TestModel_CycleReciter(t *testing.T) {
	h, m := newHarness(t)
	m = openChapter(t, m, 1)
	m = press(t, m, keySpace)

	m = press(t, m, runes("r"))
	assert.Equal(t, "05", m.seq.Reciter())
	assert.Equal(t, "05", h.app.Reciter.Get())
	assert.False(t, h.player.State().Playing(), "changing reciter stops playback")
	assert.Contains(t, m.View(), "Misyari Rasyid Al-Afasi")

	m = press(t, m, runes("r"))
	assert.Equal(t, "01", m.seq.Reciter())
}

func TestModel_NavigationStopsPlayback(t *testing.T) {
	h, m := newHarness(t)
	m = openChapter(t, m, 1)
	m = press(t, m, keySpace)
	require.True(t, h.player.State().Playing())

	m = press(t, m, runes("n"))
	assert.Equal(t, 2, m.detail.Number)
	assert.False(t, h.player.State().Playing())

	m = press(t, m, runes("p"))
	assert.Equal(t, 1, m.detail.Number)
	assert.Equal(t, []int{1, 2, 1}, h.opened)
}

func TestModel_FooterShowsNeighbours(t *testing.T) {
	_, m := newHarness(t)
	m = openChapter(t, m, 2)
	m.detail.Prev.NameLatin = "Al-Fatihah"

	view := m.View()
	assert.Contains(t, view, "‹ Al-Fatihah")
	assert.Contains(t, view, "Surah 2 of 114")
	assert.Contains(t, view, "Surah 3 ›", "unnamed neighbour falls back to its number")

	m = openChapter(t, m, 114)
	view = m.View()
	assert.Contains(t, view, "Surah 114 of 114")
	assert.NotContains(t, view, "›")
}

func TestModel_VerseCursor(t *testing.T) {
	_, m := newHarness(t)
	m = openChapter(t, m, 1)

	m = press(t, m, runes("k"))
	assert.Equal(t, 1, m.verse)
	m = press(t, m, runes("j"))
	m = press(t, m, runes("j"))
	m = press(t, m, runes("j"))
	assert.Equal(t, 3, m.verse)
	m = press(t, m, runes("g"))
	assert.Equal(t, 1, m.verse)
	m = press(t, m, runes("G"))
	assert.Equal(t, 3, m.verse)
}

func TestModel_Tafsir(t *testing.T) {
	h, m := newHarness(t)
	h.client.tafsir = &api.Tafsir{
		Chapter: api.Chapter{Number: 1},
		Body:    api.PerVerse{Texts: []string{"Pembuka kitab", "Segala puji"}},
	}
	m = openChapter(t, m, 1)
	m = press(t, m, runes("j"))

	m = press(t, m, runes("t"))
	assert.True(t, h.app.Modal.Get())
	assert.False(t, m.tafsirLoading)
	assert.Contains(t, m.tafsirContent(), "Segala")
	assert.Contains(t, m.View(), "Tafsir Surah-1 : 2")

	m = press(t, m, keyEsc)
	assert.False(t, h.app.Modal.Get())
	assert.Equal(t, modeChapter, m.mode, "closing the modal keeps the chapter open")

	m = press(t, m, runes("j"))
	m = press(t, m, runes("t"))
	assert.Contains(t, m.tafsirContent(), "No tafsir for verse 3")
}

func TestModel_TafsirError(t *testing.T) {
	h, m := newHarness(t)
	h.client.tafsirErr = &api.FetchError{Resource: "tafsir 1", Err: errors.New("timeout")}
	m = openChapter(t, m, 1)

	m = press(t, m, runes("t"))
	assert.True(t, h.app.Modal.Get())
	assert.Contains(t, m.tafsirContent(), "Failed to load tafsir")
}

func TestModel_LateTafsirReplyIsCached(t *testing.T) {
	h, m := newHarness(t)
	h.client.tafsir = &api.Tafsir{Body: api.PerVerse{Texts: []string{"Tafsir pertama"}}}
	m = openChapter(t, m, 2)
	m = press(t, m, runes("t"))
	require.Contains(t, m.tafsirContent(), "Tafsir pertama")
	m = press(t, m, keyEsc)

	m = press(t, m, runes("p"))
	require.Equal(t, 1, m.detail.Number)

	// Leave chapter 1 before its tafsir arrives.
	next, held := m.Update(runes("t"))
	m = next.(Model)
	require.True(t, m.tafsirLoading)
	require.NotNil(t, held)
	m = press(t, m, keyEsc)
	m = press(t, m, runes("n"))
	require.Equal(t, 2, m.detail.Number)
	assert.False(t, m.tafsirLoading)

	m = update(t, m, held())
	assert.Contains(t, m.tafsir, 1, "reply for a chapter left behind is still cached")

	m = press(t, m, runes("t"))
	assert.False(t, m.tafsirLoading)
	assert.NotContains(t, m.tafsirContent(), "Loading tafsir")
	assert.Contains(t, m.tafsirContent(), "Tafsir pertama")
}

func TestModel_TafsirSpinnerAnimates(t *testing.T) {
	_, m := newHarness(t)
	m = openChapter(t, m, 1)

	next, _ := m.Update(runes("t"))
	m = next.(Model)
	require.True(t, m.tafsirLoading)
	first := m.spinner.View()

	m = update(t, m, m.spinner.Tick())
	require.NotEqual(t, first, m.spinner.View())
	assert.Contains(t, m.modal.View(), m.spinner.View())
}

// waitSearch reads published states until one satisfies done.
func waitSearch(t *testing.T, c *search.Controller, done func(search.State) bool) search.State {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case st := <-c.Updates():
			if done(st) {
				return st
			}
		case <-deadline:
			t.Fatal("timed out waiting for search")
			return search.State{}
		}
	}
}

func TestModel_Search(t *testing.T) {
	h, m := newHarness(t)

	m = press(t, m, runes("/"))
	assert.Equal(t, modeSearch, m.mode)

	for _, r := range "kah" {
		m = press(t, m, runes(string(r)))
	}
	assert.Equal(t, "kah", m.input.Value())

	st := waitSearch(t, h.search, func(s search.State) bool {
		return s.Status == search.StatusSuccess && s.Query == "kah"
	})
	m = update(t, m, searchStateMsg(st))
	require.Len(t, m.results.Results, 1)
	assert.Contains(t, m.View(), "Al-Kahf")

	m = press(t, m, keyEnter)
	require.NotNil(t, m.detail)
	assert.Equal(t, 18, m.detail.Number)
	assert.Equal(t, modeChapter, m.mode)
	assert.Empty(t, m.input.Value())
}

func TestModel_SearchEscReturns(t *testing.T) {
	h, m := newHarness(t)

	m = press(t, m, runes("/"))
	m = press(t, m, runes("x"))
	m = press(t, m, keyEsc)
	assert.Equal(t, modeList, m.mode)
	assert.Empty(t, m.input.Value())

	st := waitSearch(t, h.search, func(s search.State) bool { return s.Status == search.StatusIdle })
	assert.Empty(t, st.Results)
}

func TestModel_ToggleTheme(t *testing.T) {
	h, m := newHarness(t)
	before := m.styles.Number.GetForeground()

	m = press(t, m, runes("d"))
	assert.False(t, h.app.Dark.Get())
	assert.NotEqual(t, before, m.styles.Number.GetForeground())
}
