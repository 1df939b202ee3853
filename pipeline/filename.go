package pipeline

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"ewintr.nl/vidsum/model"
)

// Filename derives the storage name for a summary. The same video processed
// again on the same day maps to the same name, so reprocessing overwrites
// instead of piling up copies. Two different videos that sanitize to the
// same name on the same day collide, which is accepted.
func Filename(channel, title string, id model.YoutubeVideoID, date time.Time) string {
	return fmt.Sprintf("summaries/%s_%s_%s_%s.txt", sanitize(channel), sanitize(title), id, date.Format("20060102"))
}

func sanitize(name string) string {
	if name == "" {
		return "Unknown"
	}
	var b strings.Builder
	for _, r := range name {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case r == ' ' || r == '_' || r == '-':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}

	return strings.TrimRight(b.String(), " ")
}
