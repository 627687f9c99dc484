package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"quran-tui/internal/api"
	"quran-tui/internal/audio"
	"quran-tui/internal/search"
)

func (m Model) View() string {
	if !m.ready {
		return "\n  Initializing..."
	}

	var header, body string
	switch m.mode {
	case modeSearch:
		header = m.styles.Header.Render("Search") + "\n" + m.input.View()
		body = m.searchView()
	case modeChapter:
		header = m.chapterHeader()
		body = m.chapterBody()
	default:
		header = m.styles.Header.Render(m.styles.Title.Render("Al-Qur'an") + "  " + m.styles.Muted.Render("114 surah"))
		body = m.listView()
	}

	if m.app.Modal.Get() && m.detail != nil {
		body = m.modalView()
	}

	return fmt.Sprintf("%s\n%s\n%s", header, body, m.footer())
}

func (m Model) bodyHeight() int {
	return max(m.height-headerHeight-footerHeight, 1)
}

func (m Model) listView() string {
	if m.err != nil && len(m.list) == 0 {
		return m.styles.Error.Render("Error: " + m.err.Error())
	}
	if len(m.list) == 0 {
		return m.spinner.View() + " Loading surah..."
	}

	height := m.bodyHeight()
	cursor := min(m.listCursor, len(m.list)-1)
	offset := max(min(cursor-height/2, len(m.list)-height), 0)
	end := min(offset+height, len(m.list))

	rows := make([]string, 0, end-offset)
	for i := offset; i < end; i++ {
		rows = append(rows, formatChapterRow(m.list[i], m.styles, i == cursor))
	}
	return strings.Join(rows, "\n")
}

func (m Model) searchView() string {
	st := m.results
	switch st.Status {
	case search.StatusLoading:
		return m.spinner.View() + " Searching..."
	case search.StatusError:
		return m.styles.Error.Render("Error: " + st.Err.Error())
	case search.StatusIdle:
		return m.styles.Muted.Render("Type to search by name, meaning or number.")
	}

	if len(st.Results) == 0 {
		return m.styles.Muted.Render(fmt.Sprintf("No surah matches %q.", strings.TrimSpace(st.Query)))
	}

	// The search header is one line taller than the others.
	limit := max(m.bodyHeight()-1, 1)
	offset := max(m.resultCursor-limit+1, 0)
	end := min(offset+limit, len(st.Results))

	rows := make([]string, 0, end-offset)
	for i := offset; i < end; i++ {
		rows = append(rows, formatChapterRow(st.Results[i], m.styles, i == m.resultCursor))
	}
	return strings.Join(rows, "\n")
}

func (m Model) chapterHeader() string {
	if m.detail == nil {
		return m.styles.Header.Render("Surah")
	}
	return m.styles.Header.Render(m.styles.Title.Render(chapterTitle(m.detail)))
}

func (m Model) chapterBody() string {
	if m.pending != 0 && m.detail == nil {
		return m.spinner.View() + " Loading surah..."
	}
	if m.detail == nil {
		if m.err != nil {
			return m.styles.Error.Render("Error: " + m.err.Error())
		}
		return ""
	}
	return m.viewport.View()
}

func (m Model) modalView() string {
	title := m.styles.Title.Render(fmt.Sprintf("Tafsir %s : %d", m.detail.NameLatin, m.verse))
	box := m.styles.Modal.Render(title + "\n\n" + m.modal.View())
	return lipgloss.Place(m.width, m.bodyHeight(), lipgloss.Center, lipgloss.Center, box)
}

func (m Model) footer() string {
	var parts []string

	if m.loading {
		parts = append(parts, m.spinner.View()+" Loading...")
	}
	if st := m.player.State(); st.Playing() {
		parts = append(parts, m.styles.Playing.Render("♪ "+m.playingLabel(st.TrackID)))
	}
	if m.mode == modeChapter && m.detail != nil {
		parts = append(parts, m.pagination())
		parts = append(parts, m.styles.Muted.Render(audio.ReciterName(m.seq.Reciter())))
	}
	if m.status != "" {
		parts = append(parts, m.styles.Warning.Render(m.status))
	}
	if m.err != nil && m.mode == modeChapter && m.detail != nil {
		parts = append(parts, m.styles.Error.Render("Error: "+m.err.Error()))
	}

	status := strings.Join(parts, "  ·  ")
	return status + "\n" + m.styles.Help.Render(m.helpLine())
}

// pagination names the neighbouring surah either side of the position.
func (m Model) pagination() string {
	var sb strings.Builder
	if ref := m.detail.Prev; ref != nil {
		sb.WriteString("‹ " + refName(ref) + "  ")
	}
	sb.WriteString(fmt.Sprintf("Surah %d of %d", m.detail.Number, api.ChapterCount))
	if ref := m.detail.Next; ref != nil {
		sb.WriteString("  " + refName(ref) + " ›")
	}
	return m.styles.Muted.Render(sb.String())
}

func refName(ref *api.ChapterRef) string {
	if ref.NameLatin == "" {
		return fmt.Sprintf("Surah %d", ref.Number)
	}
	return ref.NameLatin
}

func (m Model) playingLabel(trackID string) string {
	if _, verse, ok := audio.ParseVerseTrack(trackID); ok {
		return fmt.Sprintf("Ayat %d", verse)
	}
	return "Full surah"
}

func (m Model) helpLine() string {
	if m.app.Modal.Get() {
		return "j/k: scroll | esc: close"
	}
	switch m.mode {
	case modeSearch:
		return "type to search | ↑/↓: select | enter: open | esc: back"
	case modeChapter:
		return "j/k: verse | space: play | f: full surah | s: stop | r: reciter | t: tafsir | n/p: next/prev | d: theme | esc: back | q: quit"
	default:
		return "j/k: move | enter: open | /: search | d: theme | q: quit"
	}
}
