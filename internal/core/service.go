package core

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/euicc/internal/metrics"
	"github.com/JonMunkholm/euicc/internal/store"
)

// Service provides the profile, certificate, import and stats operations.
// It holds no records itself; every call reads through to the store.
type Service struct {
	store   store.Store
	decoder CertificateDecoder
	limiter *ImportLimiter
	metrics *metrics.Metrics

	now   func() time.Time
	newID func() string
}

// Option configures a Service.
type Option func(*Service)

// WithDecoder replaces the X.509 decoder used by ParseCertificate.
func WithDecoder(d CertificateDecoder) Option {
	return func(s *Service) { s.decoder = d }
}

// WithImportLimiter bounds concurrent bulk imports.
func WithImportLimiter(l *ImportLimiter) Option {
	return func(s *Service) { s.limiter = l }
}

// WithMetrics records domain metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithClock overrides the time source for created_at/updated_at.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a Service over st.
func NewService(st store.Store, opts ...Option) *Service {
	s := &Service{
		store:   st,
		decoder: X509Decoder{},
		now:     time.Now,
		newID:   func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Limiter returns the import limiter, or nil when imports are unbounded.
func (s *Service) Limiter() *ImportLimiter {
	return s.limiter
}

// Ping checks that the store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *Service) timestamp() string {
	return FormatTimestamp(s.now())
}

// touch returns the updated_at value for a mutation of a record whose
// current updated_at is prev. The result never sorts before prev.
func (s *Service) touch(prev string) string {
	ts := s.timestamp()
	if ts < prev {
		return prev
	}
	return ts
}
