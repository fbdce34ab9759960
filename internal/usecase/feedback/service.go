// Package feedback persists user feedback entries to an append-only CSV log.
package feedback

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/attire/internal/metrics"
)

// Entry is a single piece of user feedback.
type Entry struct {
	ID        string
	Timestamp time.Time
	Rating    int
	Text      string
}

// Service appends feedback entries to a CSV file. Writes are serialized with
// a mutex so concurrent requests never interleave rows.
type Service struct {
	mu     sync.Mutex
	path   string
	now    func() time.Time
	logger *zap.Logger
}

// NewService creates a feedback service writing to path.
func NewService(path string, logger *zap.Logger) *Service {
	return &Service{
		path:   path,
		now:    time.Now,
		logger: logger,
	}
}

// Record assigns an id and timestamp to the feedback and appends it to the
// log, writing a header row if the file does not exist yet.
func (s *Service) Record(ctx context.Context, rating int, text string) (Entry, error) {
	entry := Entry{
		ID:        uuid.NewString(),
		Timestamp: s.now().UTC(),
		Rating:    rating,
		Text:      text,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return Entry{}, err
	}

	writeHeader := false
	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		writeHeader = true
	}

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return Entry{}, fmt.Errorf("open feedback log: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if writeHeader {
		if err := w.Write([]string{"id", "timestamp", "rating", "feedback"}); err != nil {
			return Entry{}, fmt.Errorf("write feedback header: %w", err)
		}
	}
	record := []string{
		entry.ID,
		entry.Timestamp.Format(time.RFC3339),
		strconv.Itoa(entry.Rating),
		entry.Text,
	}
	if err := w.Write(record); err != nil {
		return Entry{}, fmt.Errorf("write feedback row: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return Entry{}, fmt.Errorf("flush feedback log: %w", err)
	}

	metrics.FeedbackTotal.WithLabelValues(strconv.Itoa(rating)).Inc()
	s.logger.Info("Feedback recorded",
		zap.String("id", entry.ID),
		zap.Int("rating", rating),
	)
	return entry, nil
}
