package search

import (
	"context"

	"asenso-booking/services/booking"

	"go.uber.org/zap"
)

// Indexer receives denormalized booking documents. Implementations must
// treat Index as an upsert keyed by document ID.
type Indexer interface {
	Index(ctx context.Context, docs []booking.SearchDocument) error
}

// LogIndexer only logs what it would index. It is the default until a real
// search backend is configured.
type LogIndexer struct {
	log *zap.Logger
}

func NewLogIndexer() Indexer {
	return &LogIndexer{log: zap.L().Named("search")}
}

func (l *LogIndexer) Index(_ context.Context, docs []booking.SearchDocument) error {
	for _, d := range docs {
		l.log.Debug("index booking", zap.String("code", d.Code), zap.String("status", string(d.Status)))
	}
	l.log.Info("indexed bookings", zap.Int("count", len(docs)))
	return nil
}
