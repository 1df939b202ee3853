package storage

import (
	"context"

	"ewintr.nl/vidsum/model"
)

type ResultRepository interface {
	Record(ctx context.Context, result model.ProcessingResult) error
	FindLatest(ctx context.Context, limit int) ([]model.ProcessingResult, error)
}

type SummaryVecRepository interface {
	Save(ctx context.Context, result model.ProcessingResult, summary string) error
}
