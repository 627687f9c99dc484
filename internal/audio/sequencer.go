package audio

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"

	"quran-tui/internal/api"
)

// DefaultReciter is the reciter selected before the user picks one.
const DefaultReciter = "01"

var ErrNoAudio = errors.New("no audio for reciter")

var reciterNames = map[string]string{
	"01": "Abdullah Al-Juhany",
	"02": "Abdul Muhsin Al-Qasim",
	"03": "Abdurrahman as-Sudais",
	"04": "Ibrahim Al-Dossari",
	"05": "Misyari Rasyid Al-Afasi",
}

// ReciterName returns the display name for a reciter key, or the key itself
// when it is unknown.
func ReciterName(key string) string {
	if name, ok := reciterNames[key]; ok {
		return name
	}
	return key
}

func VerseTrackID(chapter, verse int) string {
	return fmt.Sprintf("ayah-%d-%d", chapter, verse)
}

func ChapterTrackID(chapter int) string {
	return fmt.Sprintf("full-%d", chapter)
}

// ParseVerseTrack is the inverse of VerseTrackID.
func ParseVerseTrack(trackID string) (chapter, verse int, ok bool) {
	rest, found := strings.CutPrefix(trackID, "ayah-")
	if !found {
		return 0, 0, false
	}
	c, v, found := strings.Cut(rest, "-")
	if !found {
		return 0, 0, false
	}
	chapter, err := strconv.Atoi(c)
	if err != nil {
		return 0, 0, false
	}
	verse, err = strconv.Atoi(v)
	if err != nil {
		return 0, 0, false
	}
	return chapter, verse, true
}

// NextVerse returns the verse after current if it exists and has audio for
// reciter. When it doesn't, sequential playback ends.
func NextVerse(detail *api.ChapterDetail, current int, reciter string) (api.Verse, bool) {
	if detail == nil || current < 1 {
		return api.Verse{}, false
	}
	next := current + 1
	if next > len(detail.Verses) {
		return api.Verse{}, false
	}
	v, ok := detail.Verse(next)
	if !ok || v.Audio[reciter] == "" {
		return api.Verse{}, false
	}
	return v, true
}

// Sequencer drives playback for one open chapter: single verses, the full
// chapter, and auto-advance when a verse finishes.
type Sequencer struct {
	ctrl *Controller

	mu      sync.Mutex
	detail  *api.ChapterDetail
	reciter string
	verse   int
}

func NewSequencer(ctrl *Controller, reciter string) *Sequencer {
	if reciter == "" {
		reciter = DefaultReciter
	}
	return &Sequencer{ctrl: ctrl, reciter: reciter}
}

// Load switches to a new chapter. Playback of the previous chapter stops.
// The reciter falls back to the first one the chapter offers when the
// current choice is unavailable.
func (s *Sequencer) Load(detail *api.ChapterDetail) {
	s.ctrl.Stop()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.detail = detail
	s.verse = 0
	if detail == nil {
		return
	}
	reciters := detail.Reciters()
	if len(reciters) > 0 && !slices.Contains(reciters, s.reciter) {
		s.reciter = reciters[0]
	}
}

func (s *Sequencer) Reciter() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reciter
}

// SetReciter changes the reciter and stops anything playing. Setting the
// current reciter again is a no-op.
func (s *Sequencer) SetReciter(reciter string) {
	s.mu.Lock()
	if s.reciter == reciter {
		s.mu.Unlock()
		return
	}
	s.reciter = reciter
	s.verse = 0
	s.mu.Unlock()

	s.ctrl.Stop()
}

// CurrentVerse is the verse being played sequentially, zero when the
// controller is idle or playing the full chapter.
func (s *Sequencer) CurrentVerse() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.detail == nil || !s.ctrl.IsPlaying(VerseTrackID(s.detail.Number, s.verse)) {
		return 0
	}
	return s.verse
}

// PlayVerse plays one verse, or stops it if it is the one playing.
func (s *Sequencer) PlayVerse(number int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.detail == nil {
		return ErrNoAudio
	}
	v, ok := s.detail.Verse(number)
	if !ok {
		return fmt.Errorf("verse %d: %w", number, api.ErrNotFound)
	}
	url := v.Audio[s.reciter]
	if url == "" {
		return fmt.Errorf("verse %d: %w %s", number, ErrNoAudio, s.reciter)
	}

	track := VerseTrackID(s.detail.Number, number)
	wasActive := s.ctrl.IsPlaying(track)
	if err := s.ctrl.Play(url, track); err != nil {
		s.verse = 0
		return err
	}
	if wasActive {
		s.verse = 0
	} else {
		s.verse = number
	}
	return nil
}

// PlayChapter plays the full-chapter recording for the reciter.
func (s *Sequencer) PlayChapter() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.detail == nil {
		return ErrNoAudio
	}
	url := s.detail.FullAudio[s.reciter]
	if url == "" {
		return fmt.Errorf("chapter %d: %w %s", s.detail.Number, ErrNoAudio, s.reciter)
	}
	s.verse = 0
	return s.ctrl.Play(url, ChapterTrackID(s.detail.Number))
}

func (s *Sequencer) Stop() {
	s.mu.Lock()
	s.verse = 0
	s.mu.Unlock()
	s.ctrl.Stop()
}

// HandleEvent advances to the next verse when the verse that was playing
// finishes. It returns the verse now playing, or zero when playback ended.
func (s *Sequencer) HandleEvent(ev Event) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.detail == nil || s.verse == 0 || ev.TrackID != VerseTrackID(s.detail.Number, s.verse) {
		return 0, nil
	}
	if ev.Kind != Finished {
		s.verse = 0
		return 0, ev.Err
	}

	next, ok := NextVerse(s.detail, s.verse, s.reciter)
	if !ok {
		s.verse = 0
		return 0, nil
	}

	track := VerseTrackID(s.detail.Number, next.Number)
	if err := s.ctrl.Play(next.Audio[s.reciter], track); err != nil {
		s.verse = 0
		return 0, err
	}
	s.verse = next.Number
	return next.Number, nil
}
