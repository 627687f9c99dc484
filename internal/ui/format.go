package ui

import (
	"fmt"
	"html"
	"regexp"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"quran-tui/internal/api"
	"quran-tui/internal/audio"
	"quran-tui/internal/theme"
)

var (
	htmlTag    = regexp.MustCompile(`<[^>]*>`)
	blankLines = regexp.MustCompile(`\n{3,}`)
)

// stripHTMLTags removes markup and entities from API descriptions.
func stripHTMLTags(s string) string {
	s = strings.ReplaceAll(s, "<br>", "\n")
	s = strings.ReplaceAll(s, "<br/>", "\n")
	s = htmlTag.ReplaceAllString(s, "")
	s = html.UnescapeString(s)
	return strings.TrimSpace(blankLines.ReplaceAllString(s, "\n\n"))
}

var arabicDigits = []rune("٠١٢٣٤٥٦٧٨٩")

// arabicNumber writes n with Arabic-Indic digits.
func arabicNumber(n int) string {
	var sb strings.Builder
	for _, r := range strconv.Itoa(n) {
		if r >= '0' && r <= '9' {
			sb.WriteRune(arabicDigits[r-'0'])
		} else {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// chapterView carries what formatChapter needs besides the detail itself.
type chapterView struct {
	styles   theme.Styles
	width    int
	selected int    // verse under the cursor
	playing  int    // verse being played, 0 for none
	reciter  string // verses without audio for it are marked
}

// formatChapter renders the description and verses of a chapter. The second
// result holds the line on which each verse starts, indexed by verse-1.
func formatChapter(d *api.ChapterDetail, v chapterView) (string, []int) {
	width := v.width
	if width <= 0 {
		width = 80
	}
	textWidth := max(width-4, 20)

	var sb strings.Builder
	lines := 0
	write := func(block string) {
		sb.WriteString(block)
		sb.WriteString("\n")
		lines += lipgloss.Height(block)
	}

	if desc := stripHTMLTags(d.Description); desc != "" {
		write(v.styles.Muted.Width(textWidth).Render(desc))
		write("")
	}

	offsets := make([]int, 0, len(d.Verses))
	for _, verse := range d.Verses {
		offsets = append(offsets, lines)
		write(verseHeader(verse, v))
		write(v.styles.Arabic.Width(textWidth).Align(lipgloss.Right).Render(verse.Arabic))
		if verse.Latin != "" {
			write(v.styles.Latin.Width(textWidth).Render(stripHTMLTags(verse.Latin)))
		}
		write(v.styles.Translation.Width(textWidth).Render(stripHTMLTags(verse.Translation)))
		write("")
	}

	return sb.String(), offsets
}

func verseHeader(verse api.Verse, v chapterView) string {
	marker := "  "
	if verse.Number == v.selected {
		marker = "▸ "
	}

	label := fmt.Sprintf("%s%d ﴿%s﴾", marker, verse.Number, arabicNumber(verse.Number))
	style := v.styles.Number
	if verse.Number == v.selected {
		style = v.styles.Selected
	}
	header := style.Render(label)

	switch {
	case verse.Number == v.playing:
		header += "  " + v.styles.Playing.Render("♪ playing")
	case v.reciter != "" && verse.Audio[v.reciter] == "":
		header += "  " + v.styles.Muted.Render("no audio for "+audio.ReciterName(v.reciter))
	}
	return header
}

// formatChapterRow renders one line of the chapter list.
func formatChapterRow(c api.Chapter, s theme.Styles, selected bool) string {
	row := fmt.Sprintf("%3d  %-18s %s  ·  %s · %d ayat",
		c.Number, c.NameLatin, c.Name, c.Meaning, c.VerseCount)
	if selected {
		return s.Selected.Render("▸ " + row)
	}
	return "  " + row
}

// chapterTitle is the one-line heading for an open chapter.
func chapterTitle(d *api.ChapterDetail) string {
	return fmt.Sprintf("%d. %s  %s  ·  %s · %s · %d ayat",
		d.Number, d.NameLatin, d.Name, d.Meaning, d.Revelation, d.VerseCount)
}
