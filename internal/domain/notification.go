package domain

import "context"

// NotificationService defines the interface for notification services
type NotificationService interface {
	// SendSuccess sends a success notification with statistics
	SendSuccess(ctx context.Context, stats SyncStatistics) error

	// SendError sends an error notification with error details
	SendError(ctx context.Context, err error) error
}

// SyncStatistics holds the outcome of one catalog sync
type SyncStatistics struct {
	TotalMovies   int
	TotalPages    int
	PagesFetched  int
	PagesFailed   []int
	PostersCached int
	PostersFailed int
}

// Partial reports whether any page failed
func (s SyncStatistics) Partial() bool {
	return len(s.PagesFailed) > 0
}
