package pipeline

import (
	"context"
	"errors"
	"sync"
	"time"

	"ewintr.nl/vidsum/model"
	"github.com/google/uuid"
	"golang.org/x/exp/slog"
)

type TranscriptFetcher interface {
	Fetch(ctx context.Context, id model.YoutubeVideoID) (string, error)
}

type Summarizer interface {
	Summarize(ctx context.Context, transcript string) (string, error)
}

type SummaryStore interface {
	Put(ctx context.Context, filename, content, contentType string) (string, error)
}

type MetadataFetcher interface {
	FetchMetadata(ctx context.Context, ids []model.YoutubeVideoID) (map[model.YoutubeVideoID]model.Metadata, error)
}

type ResultRecorder interface {
	Record(ctx context.Context, result model.ProcessingResult) error
}

type VectorStore interface {
	Save(ctx context.Context, result model.ProcessingResult, summary string) error
}

// Pipeline runs the linear transcript -> summary -> storage chain for one
// video. It holds no per-video state, only the injected collaborator
// clients, which must be safe for concurrent use. A collaborator error never
// escapes Process, the caller always gets a ProcessingResult.
type Pipeline struct {
	transcripts       TranscriptFetcher
	metadata          MetadataFetcher
	summarizer        Summarizer
	store             SummaryStore
	recorder          ResultRecorder
	vectors           VectorStore
	storageBestEffort bool
	stageTimeout      time.Duration
	now               func() time.Time
	logger            *slog.Logger

	mu           sync.Mutex
	lastAuthFail string
}

// NewPipeline wires the collaborators. metadata, recorder and vectors may be
// nil, those are enrichments the pipeline works without. storageBestEffort
// selects the storage failure policy: when true a computed summary still
// counts as success without a storage URL.
func NewPipeline(transcripts TranscriptFetcher, metadata MetadataFetcher, summarizer Summarizer, store SummaryStore, recorder ResultRecorder, vectors VectorStore, storageBestEffort bool, stageTimeout time.Duration, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		transcripts:       transcripts,
		metadata:          metadata,
		summarizer:        summarizer,
		store:             store,
		recorder:          recorder,
		vectors:           vectors,
		storageBestEffort: storageBestEffort,
		stageTimeout:      stageTimeout,
		now:               time.Now,
		logger:            logger,
	}
}

// Process runs the stages in order, aborting at the first failed one. A
// stage timeout aborts with that stage's error kind, there is no retry
// within the call.
func (p *Pipeline) Process(ctx context.Context, event model.NotificationEvent) model.ProcessingResult {
	result := model.ProcessingResult{
		ID:           uuid.New(),
		VideoID:      event.YoutubeID,
		Title:        event.Title,
		ChannelTitle: event.ChannelTitle,
	}

	if event.YoutubeID == "" {
		result.Kind = model.ErrKindIdentifierUnresolved
		result.Detail = "event has no video id"

		return p.finish(ctx, result, "")
	}

	p.logger.Info("processing video", slog.String("id", string(event.YoutubeID)), slog.String("source", string(event.Source)))

	transcript := p.transcriptStage(ctx, event.YoutubeID)
	if transcript.Status != model.StageSuccess {
		result.Kind = transcript.Kind
		result.Detail = transcript.Detail

		return p.finish(ctx, result, "")
	}
	result.TranscriptLength = len(transcript.Payload)

	summary := p.summaryStage(ctx, transcript.Payload)
	if summary.Status != model.StageSuccess {
		result.Kind = summary.Kind
		result.Detail = summary.Detail

		return p.finish(ctx, result, "")
	}
	result.SummaryLength = len(summary.Payload)

	p.enrich(ctx, &result)

	stored := p.storageStage(ctx, result, summary.Payload)
	switch {
	case stored.Status == model.StageSuccess:
		result.StorageURL = stored.Payload
		result.Success = true
	case p.storageBestEffort:
		result.Success = true
		result.Kind = stored.Kind
		result.Detail = stored.Detail
	default:
		result.Kind = stored.Kind
		result.Detail = stored.Detail
	}

	return p.finish(ctx, result, summary.Payload)
}

func (p *Pipeline) transcriptStage(ctx context.Context, id model.YoutubeVideoID) model.StageResult {
	ctx, cancel := context.WithTimeout(ctx, p.stageTimeout)
	defer cancel()

	text, err := p.transcripts.Fetch(ctx, id)
	switch {
	case errors.Is(err, model.ErrUpstreamAuth):
		p.noteAuthFailure(err)
		return model.StageResult{Status: model.StageFailed, Kind: model.ErrKindUpstreamAuthFailure, Detail: err.Error()}
	case err != nil:
		return model.StageResult{Status: model.StageFailed, Kind: model.ErrKindNoTranscript, Detail: err.Error()}
	case text == "":
		return model.StageResult{Status: model.StageFailed, Kind: model.ErrKindNoTranscript, Detail: "transcript is empty"}
	}

	return model.StageResult{Status: model.StageSuccess, Payload: text}
}

func (p *Pipeline) summaryStage(ctx context.Context, transcript string) model.StageResult {
	ctx, cancel := context.WithTimeout(ctx, p.stageTimeout)
	defer cancel()

	summary, err := p.summarizer.Summarize(ctx, transcript)
	switch {
	case errors.Is(err, model.ErrUpstreamAuth):
		p.noteAuthFailure(err)
		return model.StageResult{Status: model.StageFailed, Kind: model.ErrKindUpstreamAuthFailure, Detail: err.Error()}
	case err != nil:
		return model.StageResult{Status: model.StageFailed, Kind: model.ErrKindSummarizationFailed, Detail: err.Error()}
	case summary == "":
		return model.StageResult{Status: model.StageFailed, Kind: model.ErrKindSummarizationFailed, Detail: "summarizer returned empty text"}
	}

	return model.StageResult{Status: model.StageSuccess, Payload: summary}
}

func (p *Pipeline) storageStage(ctx context.Context, result model.ProcessingResult, summary string) model.StageResult {
	ctx, cancel := context.WithTimeout(ctx, p.stageTimeout)
	defer cancel()

	filename := Filename(result.ChannelTitle, result.Title, result.VideoID, p.now())
	url, err := p.store.Put(ctx, filename, summary, "text/plain")
	switch {
	case errors.Is(err, model.ErrUpstreamAuth):
		p.noteAuthFailure(err)
		return model.StageResult{Status: model.StageFailed, Kind: model.ErrKindUpstreamAuthFailure, Detail: err.Error()}
	case err != nil:
		return model.StageResult{Status: model.StageFailed, Kind: model.ErrKindStorageFailed, Detail: err.Error()}
	}

	return model.StageResult{Status: model.StageSuccess, Payload: url}
}

// enrich fills in missing channel and title from the metadata collaborator.
// Metadata only feeds the derived filename, so a lookup failure degrades to
// empty fields instead of aborting the pipeline.
func (p *Pipeline) enrich(ctx context.Context, result *model.ProcessingResult) {
	if p.metadata == nil || (result.ChannelTitle != "" && result.Title != "") {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, p.stageTimeout)
	defer cancel()

	mds, err := p.metadata.FetchMetadata(ctx, []model.YoutubeVideoID{result.VideoID})
	if err != nil {
		if errors.Is(err, model.ErrUpstreamAuth) {
			p.noteAuthFailure(err)
		}
		p.logger.Warn("failed to fetch metadata", slog.String("id", string(result.VideoID)), slog.String("error", err.Error()))
		return
	}
	md, ok := mds[result.VideoID]
	if !ok {
		return
	}
	if result.ChannelTitle == "" {
		result.ChannelTitle = md.ChannelTitle
	}
	if result.Title == "" {
		result.Title = md.Title
	}
}

func (p *Pipeline) finish(ctx context.Context, result model.ProcessingResult, summary string) model.ProcessingResult {
	if result.Success {
		p.logger.Info("processed video", slog.String("id", string(result.VideoID)), slog.String("url", result.StorageURL))
	} else {
		p.logger.Warn("video not processed", slog.String("id", string(result.VideoID)), slog.String("kind", string(result.Kind)), slog.String("detail", result.Detail))
	}

	if p.recorder != nil {
		if err := p.recorder.Record(ctx, result); err != nil {
			p.logger.Error("failed to record result", err, slog.String("id", string(result.VideoID)))
		}
	}
	if p.vectors != nil && result.Success && summary != "" {
		if err := p.vectors.Save(ctx, result, summary); err != nil {
			p.logger.Error("failed to save summary vector", err, slog.String("id", string(result.VideoID)))
		}
	}

	return result
}

func (p *Pipeline) noteAuthFailure(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastAuthFail = err.Error()
	p.logger.Error("collaborator rejected credentials", err)
}

// AuthFailure reports whether a collaborator has rejected credentials since
// startup, for the health endpoint.
func (p *Pipeline) AuthFailure() (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.lastAuthFail, p.lastAuthFail != ""
}
