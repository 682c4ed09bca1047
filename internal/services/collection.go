package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"vidshelf-backend/internal/models"
)

const (
	InvalidVideoMessage      = "Invalid or non-existent YouTube URL."
	UnavailableVideoMessage  = "An error occurred while validating the video."
	DefaultValidationTimeout = 10 * time.Second
)

// StatePublisher receives a snapshot after every change of a collection.
type StatePublisher interface {
	PublishState(ctx context.Context, sessionID uuid.UUID, state models.CollectionState)
}

// CollectionManager owns one session's video collection. Records are only
// appended after a successful validation and only removed by Delete.
//
// Concurrent Add calls are not serialised: each one sets the status to
// validating, and whichever finishes last decides the final status.
type CollectionManager struct {
	mu      sync.RWMutex
	records []models.VideoRecord
	status  models.Status
	version uint64

	sessionID uuid.UUID
	validator Validator
	publisher StatePublisher
	timeout   time.Duration
	policy    models.FailurePolicy
	logger    *slog.Logger
	now       func() time.Time
}

type ManagerOption func(*CollectionManager)

func WithSeed(records ...models.VideoRecord) ManagerOption {
	return func(m *CollectionManager) {
		m.records = append(m.records, records...)
	}
}

// WithValidationTimeout bounds each remote validation. Zero means no bound.
func WithValidationTimeout(d time.Duration) ManagerOption {
	return func(m *CollectionManager) { m.timeout = d }
}

func WithPublisher(sessionID uuid.UUID, p StatePublisher) ManagerOption {
	return func(m *CollectionManager) {
		m.sessionID = sessionID
		m.publisher = p
	}
}

func WithFailurePolicy(p models.FailurePolicy) ManagerOption {
	return func(m *CollectionManager) { m.policy = p }
}

func WithLogger(l *slog.Logger) ManagerOption {
	return func(m *CollectionManager) { m.logger = l }
}

func NewCollectionManager(validator Validator, opts ...ManagerOption) *CollectionManager {
	m := &CollectionManager{
		records:   []models.VideoRecord{},
		status:    models.IdleStatus(),
		validator: validator,
		timeout:   DefaultValidationTimeout,
		policy:    models.CollapseFailures,
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// DefaultSeed is the record every new session starts with.
func DefaultSeed() models.VideoRecord {
	return models.VideoRecord{
		ID:          uuid.New(),
		Name:        "Music Video",
		Description: "First video from YouTube",
		Identifier:  NormalizeYouTubeURL("https://www.youtube.com/watch?v=dQw4w9WgXcQ"),
		CreatedAt:   time.Now(),
	}
}

// Add validates c.URL remotely and, on success, appends a record holding the
// normalised identifier. It never returns an error: failures are reported
// through the returned bool and the error status.
func (m *CollectionManager) Add(ctx context.Context, c models.Candidate) (models.VideoRecord, bool) {
	m.setStatus(ctx, models.ValidatingStatus())

	err := m.validate(ctx, c.URL)
	verdict := Classify(err)
	if verdict != models.VerdictValid {
		m.logger.Warn("video validation failed",
			slog.String("session_id", m.sessionID.String()),
			slog.String("url", c.URL),
			slog.String("verdict", string(verdict)),
			slog.Any("error", err),
		)
		m.setStatus(ctx, models.ErrorStatus(m.failureMessage(verdict)))
		return models.VideoRecord{}, false
	}

	record := models.VideoRecord{
		ID:          uuid.New(),
		Name:        c.Name,
		Description: c.Description,
		Identifier:  NormalizeYouTubeURL(c.URL),
		CreatedAt:   m.now(),
	}

	m.mu.Lock()
	m.records = append(m.records, record)
	m.status = models.IdleStatus()
	m.version++
	state := m.snapshotLocked()
	m.mu.Unlock()

	m.logger.Info("video added",
		slog.String("session_id", m.sessionID.String()),
		slog.String("record_id", record.ID.String()),
		slog.String("identifier", record.Identifier),
	)
	m.publish(ctx, state)
	return record, true
}

// Delete removes the record with the given id. Unknown ids are ignored.
func (m *CollectionManager) Delete(ctx context.Context, id uuid.UUID) {
	m.mu.Lock()
	kept := make([]models.VideoRecord, 0, len(m.records))
	for _, r := range m.records {
		if r.ID != id {
			kept = append(kept, r)
		}
	}
	if len(kept) == len(m.records) {
		m.mu.Unlock()
		return
	}
	m.records = kept
	m.version++
	state := m.snapshotLocked()
	m.mu.Unlock()

	m.publish(ctx, state)
}

func (m *CollectionManager) State() models.CollectionState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshotLocked()
}

func (m *CollectionManager) validate(ctx context.Context, rawURL string) (err error) {
	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			err = unavailable(fmt.Errorf("validator panic: %v", r))
		}
	}()

	if err := m.validator.Validate(ctx, rawURL); err != nil {
		if ctx.Err() != nil && Classify(err) != models.VerdictRejected {
			return unavailable(ctx.Err())
		}
		return err
	}
	return nil
}

func (m *CollectionManager) failureMessage(verdict models.Verdict) string {
	if verdict == models.VerdictUnavailable && m.policy == models.DistinguishFailures {
		return UnavailableVideoMessage
	}
	return InvalidVideoMessage
}

func (m *CollectionManager) setStatus(ctx context.Context, status models.Status) {
	m.mu.Lock()
	m.status = status
	m.version++
	state := m.snapshotLocked()
	m.mu.Unlock()

	m.publish(ctx, state)
}

func (m *CollectionManager) snapshotLocked() models.CollectionState {
	records := make([]models.VideoRecord, len(m.records))
	copy(records, m.records)
	return models.CollectionState{
		Records: records,
		Status:  m.status,
		IsBusy:  m.status.Kind == models.StatusValidating,
		Version: m.version,
	}
}

func (m *CollectionManager) publish(ctx context.Context, state models.CollectionState) {
	if m.publisher == nil {
		return
	}
	m.publisher.PublishState(context.WithoutCancel(ctx), m.sessionID, state)
}
