package pipeline_test

import (
	"testing"
	"time"

	"ewintr.nl/vidsum/pipeline"
	"github.com/stretchr/testify/assert"
)

func TestFilename(t *testing.T) {
	date := time.Date(2023, 5, 4, 12, 0, 0, 0, time.UTC)

	for _, tc := range []struct {
		name    string
		channel string
		title   string
		exp     string
	}{
		{
			name:    "plain",
			channel: "Channel One",
			title:   "A Video",
			exp:     "summaries/Channel One_A Video_dQw4w9WgXcQ_20230504.txt",
		},
		{
			name:    "special characters replaced",
			channel: "C/h:a*n?nel",
			title:   "What?! #5",
			exp:     "summaries/C_h_a_n_nel_What__ _5_dQw4w9WgXcQ_20230504.txt",
		},
		{
			name:    "empty names",
			channel: "",
			title:   "",
			exp:     "summaries/Unknown_Unknown_dQw4w9WgXcQ_20230504.txt",
		},
		{
			name:    "trailing spaces trimmed",
			channel: "Channel ",
			title:   "Title  ",
			exp:     "summaries/Channel_Title_dQw4w9WgXcQ_20230504.txt",
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.exp, pipeline.Filename(tc.channel, tc.title, "dQw4w9WgXcQ", date))
		})
	}
}
