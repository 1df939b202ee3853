package feed

import (
	"context"
	"time"

	"ewintr.nl/vidsum/extract"
	"ewintr.nl/vidsum/model"
	"github.com/google/uuid"
	"golang.org/x/exp/slog"
)

type EntryReader interface {
	Unread() ([]Entry, error)
	MarkRead(entryID int64) error
}

type Processor interface {
	Process(ctx context.Context, event model.NotificationEvent) model.ProcessingResult
}

// Poller periodically drains unread feed entries into the pipeline. It
// shares nothing with the push handlers except the stateless pipeline
// itself. One entry gets one attempt; it is marked read either way so a
// permanently failing video does not wedge the loop.
type Poller struct {
	interval time.Duration
	reader   EntryReader
	pipeline Processor
	logger   *slog.Logger
}

func NewPoller(reader EntryReader, pipeline Processor, interval time.Duration, logger *slog.Logger) *Poller {
	return &Poller{
		interval: interval,
		reader:   reader,
		pipeline: pipeline,
		logger:   logger,
	}
}

func (p *Poller) Run(ctx context.Context) {
	p.logger.Info("started feed poller")
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("feed poller stopped")
			return
		case <-ticker.C:
			p.drain(ctx)
		}
	}
}

func (p *Poller) drain(ctx context.Context) {
	entries, err := p.reader.Unread()
	if err != nil {
		p.logger.Error("failed to fetch unread entries", err)
		return
	}
	if len(entries) == 0 {
		return
	}
	p.logger.Info("fetched unread entries", slog.Int("count", len(entries)))

	for _, entry := range entries {
		id, ok := extract.VideoID(entry.URL)
		if !ok {
			p.logger.Warn("skipping entry without video id", slog.String("url", entry.URL))
		} else {
			event := model.NotificationEvent{
				ID:           uuid.New(),
				YoutubeID:    id,
				ChannelTitle: entry.Author,
				Title:        entry.Title,
				Source:       model.SourceRawURL,
				RawPayload:   []byte(entry.URL),
			}
			p.pipeline.Process(ctx, event)
		}
		if err := p.reader.MarkRead(entry.EntryID); err != nil {
			p.logger.Error("failed to mark entry as read", err)
		}
	}
}
