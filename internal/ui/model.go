package ui

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"go.uber.org/zap"

	"quran-tui/internal/api"
	"quran-tui/internal/audio"
	"quran-tui/internal/search"
	"quran-tui/internal/state"
	"quran-tui/internal/theme"
)

type viewMode int

const (
	modeList viewMode = iota
	modeChapter
	modeSearch
)

const (
	headerHeight = 2
	footerHeight = 2
)

// Client fetches chapter details and commentary.
type Client interface {
	GetChapter(ctx context.Context, id int) (*api.ChapterDetail, error)
	GetTafsir(ctx context.Context, id int) (*api.Tafsir, error)
}

// Deps are the collaborators the model is built from. Search, Player and App
// are owned by the caller, which closes them after the program exits.
type Deps struct {
	Client   Client
	Chapters search.Source
	Search   *search.Controller
	Player   *audio.Controller
	App      *state.App
	Logger   *zap.Logger

	// StartChapter opens a chapter right away when non-zero.
	StartChapter int
	// OnChapter is called with the number of every chapter that is opened.
	OnChapter func(id int)
}

type Model struct {
	client    Client
	chapters  search.Source
	search    *search.Controller
	player    *audio.Controller
	seq       *audio.Sequencer
	app       *state.App
	logger    *zap.Logger
	onChapter func(int)

	audioEvents <-chan audio.Event
	unsubscribe func()

	viewport viewport.Model
	modal    viewport.Model
	input    textinput.Model
	spinner  spinner.Model
	renderer *glamour.TermRenderer
	styles   theme.Styles

	mode    viewMode
	width   int
	height  int
	ready   bool
	loading bool
	err     error
	status  string

	list       []api.Chapter
	listCursor int

	pending int // chapter being loaded, 0 for none
	start   int
	detail  *api.ChapterDetail
	verse   int
	offsets []int

	results      search.State
	resultCursor int

	tafsir        map[int]*api.Tafsir
	tafsirErr     error
	tafsirLoading bool
}

type errMsg struct{ err error }
type chaptersLoadedMsg struct{ chapters []api.Chapter }
type chapterLoadedMsg struct {
	id     int
	detail *api.ChapterDetail
	err    error
}
type tafsirLoadedMsg struct {
	id     int
	tafsir *api.Tafsir
	err    error
}
type searchStateMsg search.State
type audioEventMsg audio.Event

func (e errMsg) Error() string { return e.err.Error() }

func NewModel(deps Deps) Model {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	ti := textinput.New()
	ti.Placeholder = "Search by name, meaning or number (e.g. kahfi, 36)"
	ti.CharLimit = 50
	ti.Width = 50

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	events, unsubscribe := deps.Player.Subscribe()

	m := Model{
		client:      deps.Client,
		chapters:    deps.Chapters,
		search:      deps.Search,
		player:      deps.Player,
		seq:         audio.NewSequencer(deps.Player, deps.App.Reciter.Get()),
		app:         deps.App,
		logger:      logger,
		onChapter:   deps.OnChapter,
		audioEvents: events,
		unsubscribe: unsubscribe,
		input:       ti,
		spinner:     sp,
		mode:        modeList,
		loading:     true,
		start:       deps.StartChapter,
		tafsir:      make(map[int]*api.Tafsir),
	}
	return m.applyTheme()
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		m.spinner.Tick,
		loadChapters(m.chapters),
		waitForSearch(m.search.Updates()),
		waitForAudio(m.audioEvents),
	}
	if m.start > 0 {
		cmds = append(cmds, loadChapter(m.client, m.start))
	}
	return tea.Batch(cmds...)
}

// Close stops playback and detaches from the audio controller.
func (m Model) Close() {
	m.seq.Stop()
	m.unsubscribe()
}

func loadChapters(src search.Source) tea.Cmd {
	return func() tea.Msg {
		chapters, err := src.Get(context.Background())
		if err != nil {
			return errMsg{err}
		}
		return chaptersLoadedMsg{chapters}
	}
}

func loadChapter(client Client, id int) tea.Cmd {
	return func() tea.Msg {
		detail, err := client.GetChapter(context.Background(), id)
		return chapterLoadedMsg{id: id, detail: detail, err: err}
	}
}

func loadTafsir(client Client, id int) tea.Cmd {
	return func() tea.Msg {
		t, err := client.GetTafsir(context.Background(), id)
		return tafsirLoadedMsg{id: id, tafsir: t, err: err}
	}
}

func waitForSearch(ch <-chan search.State) tea.Cmd {
	return func() tea.Msg {
		st, ok := <-ch
		if !ok {
			return nil
		}
		return searchStateMsg(st)
	}
}

func waitForAudio(ch <-chan audio.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return audioEventMsg(ev)
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		bodyHeight := max(msg.Height-headerHeight-footerHeight, 1)

		if !m.ready {
			m.viewport = viewport.New(msg.Width, bodyHeight)
			m.viewport.YPosition = headerHeight
			m.modal = viewport.New(modalWidth(msg.Width), max(bodyHeight-4, 1))
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = bodyHeight
			m.modal.Width = modalWidth(msg.Width)
			m.modal.Height = max(bodyHeight-4, 1)
		}
		m = m.applyTheme()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if m.tafsirLoading {
			m.refreshModal()
		}
		return m, cmd

	case chaptersLoadedMsg:
		m.list = msg.chapters
		if m.pending == 0 {
			m.loading = false
		}
		return m, nil

	case chapterLoadedMsg:
		return m.chapterLoaded(msg), nil

	case tafsirLoadedMsg:
		if msg.err == nil {
			m.tafsir[msg.id] = msg.tafsir
		}
		// The user moved to another chapter while this was in flight.
		if m.detail == nil || msg.id != m.detail.Number {
			return m, nil
		}
		m.tafsirLoading = false
		m.tafsirErr = msg.err
		if msg.err != nil {
			m.logger.Warn("tafsir load failed", zap.Int("chapter", msg.id), zap.Error(msg.err))
		}
		m.refreshModal()
		return m, nil

	case searchStateMsg:
		m.results = search.State(msg)
		m.resultCursor = min(m.resultCursor, max(len(m.results.Results)-1, 0))
		if m.results.Status == search.StatusError {
			m.logger.Warn("search failed", zap.String("query", m.results.Query), zap.Error(m.results.Err))
		}
		return m, waitForSearch(m.search.Updates())

	case audioEventMsg:
		m = m.audioEvent(audio.Event(msg))
		return m, waitForAudio(m.audioEvents)

	case errMsg:
		m.err = msg.err
		m.loading = false
		return m, nil
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	if m.app.Modal.Get() {
		switch msg.String() {
		case "esc", "t", "q":
			m.app.CloseModal()
			return m, nil
		}
		var cmd tea.Cmd
		m.modal, cmd = m.modal.Update(msg)
		return m, cmd
	}

	switch m.mode {
	case modeSearch:
		return m.handleSearchKey(msg)
	case modeChapter:
		return m.handleChapterKey(msg)
	default:
		return m.handleListKey(msg)
	}
}

func (m Model) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "j", "down":
		m.listCursor = min(m.listCursor+1, max(len(m.list)-1, 0))
	case "k", "up":
		m.listCursor = max(m.listCursor-1, 0)
	case "g", "home":
		m.listCursor = 0
	case "G", "end":
		m.listCursor = max(len(m.list)-1, 0)
	case "enter":
		if m.listCursor < len(m.list) {
			return m.openChapter(m.list[m.listCursor].Number)
		}
	case "/", "ctrl+k":
		return m.enterSearch()
	case "d":
		return m.toggleTheme(), nil
	}
	return m, nil
}

func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.search.Reset()
		m.input.SetValue("")
		m.input.Blur()
		m.resultCursor = 0
		m.mode = modeList
		if m.detail != nil {
			m.mode = modeChapter
		}
		return m, nil
	case "enter":
		if m.resultCursor < len(m.results.Results) {
			id := m.results.Results[m.resultCursor].Number
			m.search.Reset()
			m.input.SetValue("")
			m.input.Blur()
			m.resultCursor = 0
			return m.openChapter(id)
		}
		return m, nil
	case "down", "ctrl+n", "tab":
		m.resultCursor = min(m.resultCursor+1, max(len(m.results.Results)-1, 0))
		return m, nil
	case "up", "ctrl+p", "shift+tab":
		m.resultCursor = max(m.resultCursor-1, 0)
		return m, nil
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if value := m.input.Value(); value != before {
		m.resultCursor = 0
		m.search.Input(value)
	}
	return m, cmd
}

func (m Model) handleChapterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.detail == nil {
		if msg.String() == "esc" || msg.String() == "q" {
			m.mode = modeList
			m.err = nil
		}
		return m, nil
	}

	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "esc", "backspace":
		m.seq.Stop()
		m.mode = modeList
		return m, nil
	case "j", "down":
		m = m.selectVerse(m.verse + 1)
	case "k", "up":
		m = m.selectVerse(m.verse - 1)
	case "g", "home":
		m = m.selectVerse(1)
	case "G", "end":
		m = m.selectVerse(len(m.detail.Verses))
	case "pgdown", "pgup", "ctrl+d", "ctrl+u":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	case " ", "enter":
		m.reportAudio(m.seq.PlayVerse(m.verse))
		m.refreshChapter()
	case "f":
		m.reportAudio(m.seq.PlayChapter())
		m.refreshChapter()
	case "s":
		m.seq.Stop()
		m.status = ""
		m.refreshChapter()
	case "r":
		m = m.cycleReciter()
	case "t":
		return m.openTafsir()
	case "n":
		if m.detail.Next != nil {
			return m.openChapter(m.detail.Next.Number)
		}
	case "p":
		if m.detail.Prev != nil {
			return m.openChapter(m.detail.Prev.Number)
		}
	case "/", "ctrl+k":
		return m.enterSearch()
	case "d":
		return m.toggleTheme(), nil
	}
	return m, nil
}

func (m Model) enterSearch() (tea.Model, tea.Cmd) {
	m.mode = modeSearch
	m.resultCursor = 0
	return m, m.input.Focus()
}

func (m Model) openChapter(id int) (tea.Model, tea.Cmd) {
	m.pending = id
	m.loading = true
	m.err = nil
	m.status = ""
	return m, loadChapter(m.client, id)
}

func (m Model) chapterLoaded(msg chapterLoadedMsg) Model {
	// A newer navigation superseded this load.
	if msg.id != m.pending {
		return m
	}
	m.pending = 0
	m.loading = false

	if msg.err != nil {
		m.logger.Warn("chapter load failed", zap.Int("chapter", msg.id), zap.Error(msg.err))
		m.err = msg.err
		if errors.Is(msg.err, api.ErrNotFound) {
			m.err = fmt.Errorf("chapter %d not found", msg.id)
		}
		m.detail = nil
		m.seq.Load(nil)
		m.mode = modeChapter
		return m
	}

	m.detail = msg.detail
	m.seq.Load(msg.detail)
	m.app.Reciter.Set(m.seq.Reciter())
	m.verse = 1
	m.mode = modeChapter
	m.err = nil
	m.tafsirErr = nil
	m.tafsirLoading = false
	m.listCursor = msg.detail.Number - 1
	if m.onChapter != nil {
		m.onChapter(msg.detail.Number)
	}

	m.refreshChapter()
	m.viewport.GotoTop()
	return m
}

func (m Model) selectVerse(n int) Model {
	if m.detail == nil || len(m.detail.Verses) == 0 {
		return m
	}
	m.verse = min(max(n, 1), len(m.detail.Verses))
	m.refreshChapter()
	m.scrollToVerse()
	return m
}

// scrollToVerse moves the viewport when the selected verse is off screen.
func (m *Model) scrollToVerse() {
	if m.verse < 1 || m.verse > len(m.offsets) {
		return
	}
	line := m.offsets[m.verse-1]
	if line < m.viewport.YOffset || line >= m.viewport.YOffset+m.viewport.Height-2 {
		m.viewport.SetYOffset(line)
	}
}

func (m Model) cycleReciter() Model {
	reciters := m.detail.Reciters()
	if len(reciters) == 0 {
		return m
	}
	next := reciters[0]
	if i := slices.Index(reciters, m.seq.Reciter()); i >= 0 {
		next = reciters[(i+1)%len(reciters)]
	}
	m.seq.SetReciter(next)
	m.app.Reciter.Set(next)
	m.status = "Reciter: " + audio.ReciterName(next)
	m.refreshChapter()
	return m
}

func (m Model) openTafsir() (tea.Model, tea.Cmd) {
	m.app.OpenModal()
	m.modal.GotoTop()
	if _, ok := m.tafsir[m.detail.Number]; ok {
		m.tafsirLoading = false
		m.tafsirErr = nil
		m.refreshModal()
		return m, nil
	}
	m.tafsirLoading = true
	m.tafsirErr = nil
	m.refreshModal()
	return m, loadTafsir(m.client, m.detail.Number)
}

func (m Model) toggleTheme() Model {
	m.app.ToggleTheme()
	return m.applyTheme()
}

// applyTheme rebuilds styles and the markdown renderer for the current theme
// and width, then re-renders whatever is on screen.
func (m Model) applyTheme() Model {
	th := theme.For(m.app.Dark.Get())
	m.styles = th.Styles()

	wrap := 76
	if m.width > 0 {
		wrap = max(modalWidth(m.width)-4, 20)
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(th.GlamourStyle()),
		glamour.WithWordWrap(wrap),
	)
	if err != nil {
		m.logger.Warn("markdown renderer unavailable", zap.Error(err))
		renderer = nil
	}
	m.renderer = renderer

	m.refreshChapter()
	m.refreshModal()
	return m
}

func (m Model) audioEvent(ev audio.Event) Model {
	verse, err := m.seq.HandleEvent(ev)
	if err == nil && ev.Kind == audio.Failed {
		err = ev.Err
	}
	m.reportAudio(err)
	if verse > 0 {
		m = m.selectVerse(verse)
		return m
	}
	m.refreshChapter()
	return m
}

func (m *Model) reportAudio(err error) {
	if err == nil {
		m.status = ""
		return
	}
	m.logger.Warn("audio", zap.Error(err))
	m.status = "Audio: " + err.Error()
}

func (m *Model) refreshChapter() {
	if !m.ready || m.detail == nil {
		return
	}
	content, offsets := formatChapter(m.detail, chapterView{
		styles:   m.styles,
		width:    m.width,
		selected: m.verse,
		playing:  m.seq.CurrentVerse(),
		reciter:  m.seq.Reciter(),
	})
	m.offsets = offsets
	m.viewport.SetContent(content)
}

func (m *Model) refreshModal() {
	if !m.ready || m.detail == nil {
		return
	}
	m.modal.SetContent(m.tafsirContent())
}

func (m Model) tafsirContent() string {
	switch {
	case m.tafsirLoading:
		return m.spinner.View() + " Loading tafsir..."
	case m.tafsirErr != nil:
		return m.styles.Error.Render("Failed to load tafsir: " + m.tafsirErr.Error())
	}

	t, ok := m.tafsir[m.detail.Number]
	if !ok {
		return ""
	}
	text, ok := t.ForVerse(m.verse)
	if !ok || text == "" {
		return m.styles.Muted.Render(fmt.Sprintf("No tafsir for verse %d.", m.verse))
	}
	return m.renderMarkdown(text)
}

func (m Model) renderMarkdown(text string) string {
	if m.renderer == nil {
		return text
	}
	out, err := m.renderer.Render(text)
	if err != nil {
		m.logger.Debug("markdown render failed", zap.Error(err))
		return text
	}
	return out
}

func modalWidth(width int) int {
	return max(min(width-8, 100), 20)
}
