package extract

import (
	"regexp"

	"ewintr.nl/vidsum/model"
)

// Notification payloads are inconsistent about what they carry: a bare ID, a
// full watch URL, or a feed style ID like "yt:video:dQw4w9WgXcQ". The URL
// shapes are tried first, then any contiguous 11 character run from the ID
// alphabet. The fallback can false-positive on arbitrary 11 character words,
// which is accepted: a bad ID fails later with a not-found transcript.
var (
	urlPattern = regexp.MustCompile(`(?:v=|youtu\.be/|embed/|shorts/)([A-Za-z0-9_-]{11})`)
	idPattern  = regexp.MustCompile(`[A-Za-z0-9_-]{11}`)
)

// VideoID resolves a video identifier from arbitrary text. It never fails;
// the second return value reports whether anything was found.
func VideoID(text string) (model.YoutubeVideoID, bool) {
	if m := urlPattern.FindStringSubmatch(text); m != nil {
		return model.YoutubeVideoID(m[1]), true
	}
	if m := idPattern.FindString(text); m != "" {
		return model.YoutubeVideoID(m), true
	}

	return "", false
}
