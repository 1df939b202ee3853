package pipeline_test

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"ewintr.nl/vidsum/model"
	"ewintr.nl/vidsum/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"
)

type transcriptStub struct {
	text  string
	err   error
	calls int
}

func (t *transcriptStub) Fetch(_ context.Context, _ model.YoutubeVideoID) (string, error) {
	t.calls++
	return t.text, t.err
}

type summarizerStub struct {
	text  string
	err   error
	calls int
}

func (s *summarizerStub) Summarize(_ context.Context, _ string) (string, error) {
	s.calls++
	return s.text, s.err
}

type storeStub struct {
	err       error
	calls     int
	filenames []string
}

func (s *storeStub) Put(_ context.Context, filename, _, _ string) (string, error) {
	s.calls++
	s.filenames = append(s.filenames, filename)
	if s.err != nil {
		return "", s.err
	}
	return "https://store.example.com/" + filename, nil
}

type metadataStub struct {
	mds   map[model.YoutubeVideoID]model.Metadata
	calls int
}

func (m *metadataStub) FetchMetadata(_ context.Context, ids []model.YoutubeVideoID) (map[model.YoutubeVideoID]model.Metadata, error) {
	m.calls++
	return m.mds, nil
}

type recorderStub struct {
	recorded []model.ProcessingResult
}

func (r *recorderStub) Record(_ context.Context, result model.ProcessingResult) error {
	r.recorded = append(r.recorded, result)
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard))
}

func testEvent() model.NotificationEvent {
	return model.NotificationEvent{
		YoutubeID:    "dQw4w9WgXcQ",
		ChannelTitle: "Channel",
		Title:        "Title",
		Source:       model.SourceAtomXML,
	}
}

func TestProcessSuccess(t *testing.T) {
	transcripts := &transcriptStub{text: "a transcript"}
	summarizer := &summarizerStub{text: "a summary"}
	store := &storeStub{}
	recorder := &recorderStub{}
	p := pipeline.NewPipeline(transcripts, nil, summarizer, store, recorder, nil, false, time.Second, testLogger())

	result := p.Process(context.Background(), testEvent())

	assert.True(t, result.Success)
	assert.Equal(t, model.YoutubeVideoID("dQw4w9WgXcQ"), result.VideoID)
	assert.Equal(t, len("a transcript"), result.TranscriptLength)
	assert.Equal(t, len("a summary"), result.SummaryLength)
	assert.NotEmpty(t, result.StorageURL)
	assert.Equal(t, model.ErrKindNone, result.Kind)
	require.Len(t, recorder.recorded, 1)
	assert.True(t, recorder.recorded[0].Success)
}

func TestProcessNoTranscript(t *testing.T) {
	for _, tc := range []struct {
		name string
		stub *transcriptStub
	}{
		{name: "empty transcript", stub: &transcriptStub{text: ""}},
		{name: "not found", stub: &transcriptStub{err: model.ErrTranscriptNotFound}},
		{name: "disabled", stub: &transcriptStub{err: model.ErrTranscriptsDisabled}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			summarizer := &summarizerStub{text: "never used"}
			store := &storeStub{}
			p := pipeline.NewPipeline(tc.stub, nil, summarizer, store, nil, nil, false, time.Second, testLogger())

			result := p.Process(context.Background(), testEvent())

			assert.False(t, result.Success)
			assert.Equal(t, model.ErrKindNoTranscript, result.Kind)
			assert.Equal(t, 0, summarizer.calls, "summarizer must not run without a transcript")
			assert.Equal(t, 0, store.calls)
		})
	}
}

func TestProcessSummarizationFailed(t *testing.T) {
	for _, tc := range []struct {
		name string
		stub *summarizerStub
	}{
		{name: "error", stub: &summarizerStub{err: errors.New("model unavailable")}},
		{name: "empty response", stub: &summarizerStub{text: ""}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			store := &storeStub{}
			p := pipeline.NewPipeline(&transcriptStub{text: "a transcript"}, nil, tc.stub, store, nil, nil, false, time.Second, testLogger())

			result := p.Process(context.Background(), testEvent())

			assert.False(t, result.Success)
			assert.Equal(t, model.ErrKindSummarizationFailed, result.Kind)
			assert.Equal(t, 0, store.calls)
		})
	}
}

func TestProcessStoragePolicy(t *testing.T) {
	t.Run("strict", func(t *testing.T) {
		store := &storeStub{err: errors.New("bucket gone")}
		p := pipeline.NewPipeline(&transcriptStub{text: "a transcript"}, nil, &summarizerStub{text: "a summary"}, store, nil, nil, false, time.Second, testLogger())

		result := p.Process(context.Background(), testEvent())

		assert.False(t, result.Success)
		assert.Equal(t, model.ErrKindStorageFailed, result.Kind)
		assert.Empty(t, result.StorageURL)
	})
	t.Run("best effort", func(t *testing.T) {
		store := &storeStub{err: errors.New("bucket gone")}
		p := pipeline.NewPipeline(&transcriptStub{text: "a transcript"}, nil, &summarizerStub{text: "a summary"}, store, nil, nil, true, time.Second, testLogger())

		result := p.Process(context.Background(), testEvent())

		assert.True(t, result.Success)
		assert.Equal(t, model.ErrKindStorageFailed, result.Kind)
		assert.Empty(t, result.StorageURL)
		assert.Equal(t, len("a summary"), result.SummaryLength, "summary survives storage failure")
	})
}

func TestProcessDeterministicStorageURL(t *testing.T) {
	store := &storeStub{}
	p := pipeline.NewPipeline(&transcriptStub{text: "a transcript"}, nil, &summarizerStub{text: "a summary"}, store, nil, nil, false, time.Second, testLogger())

	first := p.Process(context.Background(), testEvent())
	second := p.Process(context.Background(), testEvent())

	assert.True(t, first.Success)
	assert.True(t, second.Success)
	assert.Equal(t, first.StorageURL, second.StorageURL)
	require.Len(t, store.filenames, 2)
	assert.Equal(t, store.filenames[0], store.filenames[1])
}

func TestProcessUpstreamAuthFailure(t *testing.T) {
	p := pipeline.NewPipeline(&transcriptStub{err: model.ErrUpstreamAuth}, nil, &summarizerStub{}, &storeStub{}, nil, nil, false, time.Second, testLogger())

	result := p.Process(context.Background(), testEvent())

	assert.False(t, result.Success)
	assert.Equal(t, model.ErrKindUpstreamAuthFailure, result.Kind)
	detail, failing := p.AuthFailure()
	assert.True(t, failing)
	assert.NotEmpty(t, detail)
}

func TestProcessUnresolvedIdentifier(t *testing.T) {
	transcripts := &transcriptStub{text: "a transcript"}
	p := pipeline.NewPipeline(transcripts, nil, &summarizerStub{text: "a summary"}, &storeStub{}, nil, nil, false, time.Second, testLogger())

	result := p.Process(context.Background(), model.NotificationEvent{Source: model.SourceRawURL})

	assert.False(t, result.Success)
	assert.Equal(t, model.ErrKindIdentifierUnresolved, result.Kind)
	assert.Equal(t, 0, transcripts.calls)
}

func TestProcessMetadataEnrichment(t *testing.T) {
	metadata := &metadataStub{mds: map[model.YoutubeVideoID]model.Metadata{
		"dQw4w9WgXcQ": {Title: "Found Title", ChannelTitle: "Found Channel"},
	}}
	store := &storeStub{}
	p := pipeline.NewPipeline(&transcriptStub{text: "a transcript"}, metadata, &summarizerStub{text: "a summary"}, store, nil, nil, false, time.Second, testLogger())

	event := model.NotificationEvent{YoutubeID: "dQw4w9WgXcQ", Source: model.SourcePubSubJSON}
	result := p.Process(context.Background(), event)

	assert.True(t, result.Success)
	assert.Equal(t, 1, metadata.calls)
	assert.Equal(t, "Found Channel", result.ChannelTitle)
	assert.Equal(t, "Found Title", result.Title)
	require.Len(t, store.filenames, 1)
	assert.Contains(t, store.filenames[0], "Found Channel_Found Title")
}
