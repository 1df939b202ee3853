package pipeline_test

import (
	"testing"

	"ewintr.nl/vidsum/model"
	"ewintr.nl/vidsum/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregate(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		report := pipeline.Aggregate([]model.ProcessingResult{})

		assert.Equal(t, 0, report.Total)
		assert.Equal(t, 0, report.Succeeded)
		assert.Equal(t, 0, report.Failed)
		assert.NotNil(t, report.Details)
		assert.Empty(t, report.Details)
	})

	t.Run("keeps delivery order", func(t *testing.T) {
		results := []model.ProcessingResult{
			{VideoID: "aaaaaaaaaaa", Success: true},
			{VideoID: "bbbbbbbbbbb", Success: false, Kind: model.ErrKindNoTranscript},
			{VideoID: "ccccccccccc", Success: true},
		}

		report := pipeline.Aggregate(results)

		assert.Equal(t, 3, report.Total)
		assert.Equal(t, 2, report.Succeeded)
		assert.Equal(t, 1, report.Failed)
		require.Len(t, report.Details, 3)
		assert.Equal(t, model.YoutubeVideoID("aaaaaaaaaaa"), report.Details[0].VideoID)
		assert.Equal(t, model.YoutubeVideoID("bbbbbbbbbbb"), report.Details[1].VideoID)
		assert.Equal(t, model.YoutubeVideoID("ccccccccccc"), report.Details[2].VideoID)
	})
}
