package api

import "fmt"

// ValidateDetail checks that verses are numbered 1..n without gaps and that
// n matches the advertised verse count.
func ValidateDetail(d *ChapterDetail) error {
	if d == nil {
		return fmt.Errorf("%w: nil detail", ErrInvalidDetail)
	}
	for i, v := range d.Verses {
		if v.Number != i+1 {
			return fmt.Errorf("%w: chapter %d: verse at position %d is numbered %d",
				ErrInvalidDetail, d.Number, i+1, v.Number)
		}
	}
	if len(d.Verses) != d.VerseCount {
		return fmt.Errorf("%w: chapter %d: %d verses, advertised %d",
			ErrInvalidDetail, d.Number, len(d.Verses), d.VerseCount)
	}
	return nil
}
