package api

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCommentary(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		want  Commentary
		verse int
		text  string
		found bool
	}{
		{"null", `null`, nil, 1, "", false},
		{"plain", `"satu teks"`, Plain{Text: "satu teks"}, 5, "satu teks", true},
		{"string_list", `["a","b","c"]`, PerVerse{Texts: []string{"a", "b", "c"}}, 2, "b", true},
		{
			"teks_objects",
			`[{"ayat":1,"teks":"x"},{"ayat":2,"teks":"y"}]`,
			PerVerse{Texts: []string{"x", "y"}}, 2, "y", true,
		},
		{
			"tafsir_objects",
			`[{"tafsir":"x"},{"tafsir":"y"}]`,
			PerVerse{Texts: []string{"x", "y"}}, 1, "x", true,
		},
		{
			"varying_keys",
			`[{"tafsir":"x"},{"kemenangan":"k"}]`,
			LegacyKeyed{Entries: []map[string]string{{"tafsir": "x"}, {"kemenangan": "k"}}}, 2, "k", true,
		},
		{"list_out_of_range", `["a"]`, PerVerse{Texts: []string{"a"}}, 2, "", false},
		{"object_known_key", `{"teks":"z"}`, Plain{Text: "z"}, 9, "z", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCommentary(json.RawMessage(tt.raw))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			if got == nil {
				return
			}
			text, ok := got.ForVerse(tt.verse)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.text, text)
		})
	}
}

func TestParseCommentary_Unsupported(t *testing.T) {
	_, err := ParseCommentary(json.RawMessage(`42`))
	assert.Error(t, err)

	_, err = ParseCommentary(json.RawMessage(`[42]`))
	assert.Error(t, err)
}

func TestLegacyKeyed_FallbackKey(t *testing.T) {
	l := LegacyKeyed{Entries: []map[string]string{{"zeta": "z", "alpha": "a"}, {}}}

	text, ok := l.ForVerse(1)
	assert.True(t, ok)
	assert.Equal(t, "a", text)

	_, ok = l.ForVerse(2)
	assert.False(t, ok)
	_, ok = l.ForVerse(0)
	assert.False(t, ok)
}

func TestTafsir_JSONRoundTrip(t *testing.T) {
	in := Tafsir{
		Chapter: Chapter{Number: 7, NameLatin: "Al-A'raf"},
		Body:    LegacyKeyed{Entries: []map[string]string{{"kemenangan": "k"}}},
	}
	b, err := json.Marshal(in)
	require.NoError(t, err)

	var out Tafsir
	require.NoError(t, json.Unmarshal(b, &out))
	assert.Equal(t, in.Number, out.Number)
	assert.Equal(t, in.Body, out.Body)
}

func TestChapterDetail_Commentary(t *testing.T) {
	raw := `{"nomor":1,"jumlahAyat":1,"ayat":[{"nomorAyat":1}],
		"tafsir":[{"ayat":1,"tafsir":"plain text"}],
		"suratSelanjutnya":null,"suratSebelumnya":false}`

	var d ChapterDetail
	require.NoError(t, json.Unmarshal([]byte(raw), &d))
	require.Len(t, d.Commentary, 1)
	assert.Equal(t, 1, d.Commentary[0].Verse)
	assert.Equal(t, Plain{Text: "plain text"}, d.Commentary[0].Body)
	assert.Nil(t, d.Next)
	assert.Nil(t, d.Prev)
}
