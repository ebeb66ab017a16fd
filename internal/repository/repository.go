package repository

import (
	"context"

	"invclean/internal/domain"
)

// Repository defines the interface for run history access
type Repository interface {
	// Write operations
	SaveRun(ctx context.Context, run *domain.Run, records []domain.FinalizedRecord, report domain.Report) error
	DeleteRun(ctx context.Context, id string) error

	// Read operations
	GetRun(ctx context.Context, id string) (*domain.Run, error)
	ListRuns(ctx context.Context, limit int) ([]domain.Run, error)
	GetRecords(ctx context.Context, runID string) ([]domain.FinalizedRecord, error)
	GetReport(ctx context.Context, runID string) (domain.Report, error)

	// Close releases resources
	Close() error
}
