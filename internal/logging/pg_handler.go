package logging

import (
	"context"
	"encoding/json"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pertepiece/backend/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const batchSize = 50

// LogWriter persists a batch of system log rows.
type LogWriter interface {
	WriteLogs(batch []models.SystemLog) error
}

type gormLogWriter struct {
	db *gorm.DB
}

func (w gormLogWriter) WriteLogs(batch []models.SystemLog) error {
	return w.db.CreateInBatches(batch, batchSize).Error
}

type pgSink struct {
	writer   LogWriter
	mu       sync.Mutex
	buffer   []models.SystemLog
	ticker   *time.Ticker
	done     chan struct{}
	stopOnce sync.Once
	stopped  chan struct{}
}

// PGHandler is an slog.Handler that batches ERROR+ logs to PostgreSQL.
type PGHandler struct {
	sink  *pgSink
	attrs []slog.Attr
}

func NewPGHandler(db *gorm.DB) *PGHandler {
	return NewBatchHandler(gormLogWriter{db: db}, 5*time.Second)
}

// NewBatchHandler flushes to w every interval or whenever the buffer fills.
func NewBatchHandler(w LogWriter, interval time.Duration) *PGHandler {
	s := &pgSink{
		writer:  w,
		buffer:  make([]models.SystemLog, 0, batchSize),
		ticker:  time.NewTicker(interval),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go s.flushLoop()
	return &PGHandler{sink: s}
}

func (s *pgSink) flushLoop() {
	defer close(s.stopped)
	for {
		select {
		case <-s.ticker.C:
			s.flush()
		case <-s.done:
			s.flush()
			return
		}
	}
}

func (s *pgSink) flush() {
	s.mu.Lock()
	if len(s.buffer) == 0 {
		s.mu.Unlock()
		return
	}
	batch := s.buffer
	s.buffer = make([]models.SystemLog, 0, batchSize)
	s.mu.Unlock()

	if err := s.writer.WriteLogs(batch); err != nil {
		// Below ERROR so the failure does not loop back into this sink.
		slog.Warn("failed to flush system logs to DB", "error", err, "count", len(batch))
	}
}

// Stop flushes what is buffered and waits for the flush loop to exit.
func (h *PGHandler) Stop() {
	h.sink.stopOnce.Do(func() {
		h.sink.ticker.Stop()
		close(h.sink.done)
	})
	<-h.sink.stopped
}

// Enabled only handles ERROR and above.
func (h *PGHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= slog.LevelError
}

func (h *PGHandler) Handle(_ context.Context, record slog.Record) error {
	entry := models.SystemLog{
		ID:        uuid.New(),
		Timestamp: record.Time,
		Level:     record.Level.String(),
		Message:   record.Message,
	}

	extra := make(map[string]interface{})
	apply := func(a slog.Attr) bool {
		switch a.Key {
		case "request_id":
			entry.RequestID = a.Value.String()
		case "user_id":
			s := a.Value.String()
			entry.UserID = &s
		case "declaration_id":
			s := a.Value.String()
			entry.Declaration = &s
		case "action":
			entry.Action = a.Value.String()
		case "error":
			entry.Error = a.Value.String()
		case "latency_ms":
			switch v := a.Value.Any().(type) {
			case float64:
				entry.LatencyMs = int(math.Round(v))
			case int64:
				entry.LatencyMs = int(v)
			}
		default:
			extra[a.Key] = a.Value.Any()
		}
		return true
	}
	for _, a := range h.attrs {
		apply(a)
	}
	record.Attrs(apply)

	if len(extra) > 0 {
		if b, err := json.Marshal(extra); err == nil {
			entry.Extra = datatypes.JSON(b)
		}
	}

	h.sink.mu.Lock()
	h.sink.buffer = append(h.sink.buffer, entry)
	needFlush := len(h.sink.buffer) >= batchSize
	h.sink.mu.Unlock()

	if needFlush {
		go h.sink.flush()
	}
	return nil
}

func (h *PGHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &PGHandler{sink: h.sink, attrs: merged}
}

func (h *PGHandler) WithGroup(name string) slog.Handler {
	return h
}
