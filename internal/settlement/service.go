package settlement

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Entry is one processed document held in the session.
type Entry struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Document    Document  `json:"document"`
	Valid       bool      `json:"valid"`
	ProcessedAt time.Time `json:"processed_at"`
}

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=settlement
type Repository interface {
	Add(ctx context.Context, entry *Entry) error
	Get(ctx context.Context, id uuid.UUID) (*Entry, error)
	List(ctx context.Context) ([]*Entry, error)
	Clear(ctx context.Context) error
}

// SizeObserver is told the session size after every change.
type SizeObserver interface {
	SetSessionEntries(n int)
}

// Service owns the session collection of processed documents.
type Service struct {
	repo        Repository
	keepPartial bool
	observer    SizeObserver
	now         func() time.Time
}

type Option func(*Service)

// WithKeepPartial retains unidentified documents in the session.
func WithKeepPartial(keep bool) Option {
	return func(s *Service) {
		s.keepPartial = keep
	}
}

func WithSizeObserver(o SizeObserver) Option {
	return func(s *Service) {
		s.observer = o
	}
}

func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{repo: repo, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Record appends doc to the session. An unidentified document yields
// ErrUnidentified alongside its entry; the entry is only stored when the
// service keeps partial documents.
func (s *Service) Record(ctx context.Context, name string, doc Document) (*Entry, error) {
	entry := &Entry{
		ID:          uuid.New(),
		Name:        name,
		Document:    doc,
		Valid:       doc.Identified(),
		ProcessedAt: s.now(),
	}

	if !entry.Valid && !s.keepPartial {
		return entry, ErrUnidentified
	}

	if err := s.repo.Add(ctx, entry); err != nil {
		return nil, fmt.Errorf("add entry: %w", err)
	}

	s.observe(ctx)

	if !entry.Valid {
		return entry, ErrUnidentified
	}

	return entry, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Entry, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]*Entry, error) {
	return s.repo.List(ctx)
}

// Clear empties the session.
func (s *Service) Clear(ctx context.Context) error {
	if err := s.repo.Clear(ctx); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}

	s.observe(ctx)

	return nil
}

func (s *Service) observe(ctx context.Context) {
	if s.observer == nil {
		return
	}

	entries, err := s.repo.List(ctx)
	if err != nil {
		slog.Warn("failed to count session entries", "error", err)
		return
	}

	s.observer.SetSessionEntries(len(entries))
}
