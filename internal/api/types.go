package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// ChapterCount is the number of chapters in the corpus.
const ChapterCount = 114

type Chapter struct {
	Number      int               `json:"nomor"`
	Name        string            `json:"nama"`
	NameLatin   string            `json:"namaLatin"`
	VerseCount  int               `json:"jumlahAyat"`
	Revelation  string            `json:"tempatTurun"`
	Meaning     string            `json:"arti"`
	Description string            `json:"deskripsi"`
	FullAudio   map[string]string `json:"audioFull"`
}

type Verse struct {
	Number      int               `json:"nomorAyat"`
	Arabic      string            `json:"teksArab"`
	Latin       string            `json:"teksLatin"`
	Translation string            `json:"teksIndonesia"`
	Audio       map[string]string `json:"audio"`
}

// ChapterRef is the short form used for previous/next links.
type ChapterRef struct {
	Number     int    `json:"nomor"`
	Name       string `json:"nama"`
	NameLatin  string `json:"namaLatin"`
	VerseCount int    `json:"jumlahAyat"`
}

type ChapterDetail struct {
	Chapter
	Verses     []Verse     `json:"ayat"`
	Commentary []Tafsir    `json:"tafsir,omitempty"`
	Next       *ChapterRef `json:"suratSelanjutnya"`
	Prev       *ChapterRef `json:"suratSebelumnya"`
}

// UnmarshalJSON accepts `false` as well as null for the boundary links;
// the API sends false for the first and last chapter.
func (d *ChapterDetail) UnmarshalJSON(b []byte) error {
	type alias ChapterDetail
	aux := struct {
		*alias
		Next json.RawMessage `json:"suratSelanjutnya"`
		Prev json.RawMessage `json:"suratSebelumnya"`
	}{alias: (*alias)(d)}

	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}

	var err error
	if d.Next, err = decodeRef(aux.Next); err != nil {
		return fmt.Errorf("suratSelanjutnya: %w", err)
	}
	if d.Prev, err = decodeRef(aux.Prev); err != nil {
		return fmt.Errorf("suratSebelumnya: %w", err)
	}
	return nil
}

func decodeRef(raw json.RawMessage) (*ChapterRef, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return nil, nil
	}
	var ref ChapterRef
	if err := json.Unmarshal(raw, &ref); err != nil {
		return nil, err
	}
	return &ref, nil
}

// Verse returns the verse with the given number.
func (d *ChapterDetail) Verse(number int) (Verse, bool) {
	if number >= 1 && number <= len(d.Verses) && d.Verses[number-1].Number == number {
		return d.Verses[number-1], true
	}
	for _, v := range d.Verses {
		if v.Number == number {
			return v, true
		}
	}
	return Verse{}, false
}

// Reciters lists the reciter ids advertised by the first verse, sorted.
func (d *ChapterDetail) Reciters() []string {
	if len(d.Verses) == 0 {
		return sortedKeys(d.FullAudio)
	}
	return sortedKeys(d.Verses[0].Audio)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Tafsir is the commentary payload. The shape of the `tafsir` field varies
// between endpoints and is resolved into a Commentary when decoded.
type Tafsir struct {
	Chapter
	Verse int        `json:"ayat,omitempty"`
	Body  Commentary `json:"-"`
}

func (t *Tafsir) UnmarshalJSON(b []byte) error {
	type alias Tafsir
	aux := struct {
		*alias
		Raw json.RawMessage `json:"tafsir"`
	}{alias: (*alias)(t)}

	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}

	body, err := ParseCommentary(aux.Raw)
	if err != nil {
		return err
	}
	t.Body = body
	return nil
}

func (t Tafsir) MarshalJSON() ([]byte, error) {
	type alias Tafsir
	raw, err := MarshalCommentary(t.Body)
	if err != nil {
		return nil, err
	}
	return json.Marshal(struct {
		alias
		Raw json.RawMessage `json:"tafsir,omitempty"`
	}{alias: alias(t), Raw: raw})
}

// ForVerse looks up the commentary for a verse number.
func (t *Tafsir) ForVerse(number int) (string, bool) {
	if t == nil || t.Body == nil {
		return "", false
	}
	return t.Body.ForVerse(number)
}
