package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/swethakommuri/GEN-AI-DEMO/internal/application"
	"github.com/swethakommuri/GEN-AI-DEMO/internal/domain/ai"
	"github.com/swethakommuri/GEN-AI-DEMO/internal/domain/audit"
	"github.com/swethakommuri/GEN-AI-DEMO/internal/infra/ai/prompt"
	"github.com/swethakommuri/GEN-AI-DEMO/internal/metrics"
)

const (
	DefaultMaxRetries = 2
	DefaultTimeout    = 90 * time.Second
	DefaultRetryPause = 2 * time.Second

	// truncationThreshold is the length above which a response without
	// closing punctuation is treated as cut off.
	truncationThreshold = 100

	pingTimeout = 3 * time.Second
)

// RetryConfig controls attempts against the generation service.
type RetryConfig struct {
	MaxRetries int
	Timeout    time.Duration
	Pause      time.Duration
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{MaxRetries: DefaultMaxRetries, Timeout: DefaultTimeout, Pause: DefaultRetryPause}
}

// Service is the generation client: it retries failed attempts and completes
// truncated answers with one continuation request.
type Service struct {
	transport ai.Transport
	params    ai.ParamsTable
	retry     RetryConfig
	audit     audit.Repository
	metrics   *metrics.Metrics
	logger    *slog.Logger
	clock     application.Clock
}

type Option func(*Service)

func WithParams(t ai.ParamsTable) Option {
	return func(s *Service) { s.params = t }
}

func WithRetryConfig(cfg RetryConfig) Option {
	return func(s *Service) { s.retry = cfg }
}

// WithAudit records every generation in repo.
func WithAudit(repo audit.Repository) Option {
	return func(s *Service) { s.audit = repo }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithClock(c application.Clock) Option {
	return func(s *Service) { s.clock = c }
}

func NewService(transport ai.Transport, opts ...Option) *Service {
	s := &Service{
		transport: transport,
		params:    ai.DefaultParams(),
		retry:     DefaultRetryConfig(),
		logger:    slog.Default(),
		clock:     application.SystemClock{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Generate never returns an error: anything short of text comes back as
// ai.Unavailable.
func (s *Service) Generate(ctx context.Context, req ai.GenerateRequest) ai.Result {
	maxRetries := req.MaxRetries
	if maxRetries <= 0 {
		maxRetries = s.retry.MaxRetries
	}
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = s.retry.Timeout
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	system := prompt.GetSystemPrompt(req.Role, req.Client)
	family := ai.ResolveFamily(req.Model)
	params := s.params.For(req.Model)
	log := s.logger.With("model", req.Model, "family", family, "role", req.Role, "client", req.Client.Name)

	rec := &audit.Record{
		ID:        audit.RecordID(uuid.NewString()),
		SessionID: req.SessionID,
		Role:      req.Role,
		Client:    req.Client.Name,
		Model:     req.Model,
	}

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		rec.Attempts = attempt + 1
		text, err := s.attempt(ctx, family, timeout, ai.Call{
			Model:  req.Model,
			Prompt: prompt.GetUserPrompt(system, req.Prompt),
			Params: params,
		})
		if err == nil {
			if truncated(text) {
				rec.Continued = true
				text = s.continueResponse(ctx, log, family, timeout, ai.Call{
					Model:  req.Model,
					Prompt: prompt.GetContinuationPrompt(system, req.Prompt, text),
					Params: params,
				}, text)
			}
			rec.Outcome = audit.OutcomeSuccess
			rec.Response = text
			s.record(ctx, rec)
			return ai.Success(text)
		}
		lastErr = err

		if ctx.Err() != nil {
			break
		}
		if errors.Is(err, ai.ErrTimeout) {
			log.WarnContext(ctx, "generation request timed out", "attempt", attempt+1, "max_attempts", maxRetries)
		} else {
			log.ErrorContext(ctx, "generation request failed", "attempt", attempt+1, "max_attempts", maxRetries, "error", err)
		}

		if attempt < maxRetries-1 && s.retry.Pause > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(s.retry.Pause):
			}
		}
		if ctx.Err() != nil {
			break
		}
	}

	reason := fmt.Sprintf("no response after %d attempts: %v", rec.Attempts, lastErr)
	if ctx.Err() != nil {
		reason = fmt.Sprintf("generation cancelled: %v", ctx.Err())
	}
	s.metrics.IncUnavailable()
	rec.Outcome = audit.OutcomeUnavailable
	rec.Reason = reason
	s.record(ctx, rec)
	return ai.Unavailable(reason)
}

func (s *Service) attempt(ctx context.Context, family ai.Family, timeout time.Duration, call ai.Call) (string, error) {
	actx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := s.clock.Now()
	text, err := s.transport.Generate(actx, call)
	if err != nil && !errors.Is(err, ai.ErrTimeout) &&
		ctx.Err() == nil && errors.Is(actx.Err(), context.DeadlineExceeded) {
		err = fmt.Errorf("%w: %v", ai.ErrTimeout, err)
	}
	s.metrics.ObserveAttempt(string(family), outcome(err), s.clock.Now().Sub(start))
	return text, err
}

// continueResponse issues the single continuation request. The partial text
// is kept when it fails.
func (s *Service) continueResponse(ctx context.Context, log *slog.Logger, family ai.Family, timeout time.Duration, call ai.Call, partial string) string {
	log.InfoContext(ctx, "response looks truncated, requesting continuation", "chars", utf8.RuneCountInString(partial))
	more, err := s.attempt(ctx, family, timeout, call)
	s.metrics.ObserveContinuation(err == nil)
	if err != nil {
		log.WarnContext(ctx, "continuation failed, keeping partial response", "error", err)
		return partial
	}
	return partial + "\n\n" + more
}

func (s *Service) record(ctx context.Context, rec *audit.Record) {
	if s.audit == nil {
		return
	}
	rec.CreatedAt = s.clock.Now()
	// the audit trail must outlive a cancelled request
	if err := s.audit.Save(context.WithoutCancel(ctx), rec); err != nil {
		s.logger.WarnContext(ctx, "failed to save generation audit record", "id", rec.ID, "error", err)
	}
}

// Models lists what the generation service can run.
func (s *Service) Models(ctx context.Context) ([]string, error) {
	return s.transport.Models(ctx)
}

// Ping reports whether the generation service answers at all.
func (s *Service) Ping(ctx context.Context) error {
	pctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if _, err := s.transport.Models(pctx); err != nil {
		return fmt.Errorf("generation service unreachable: %w", err)
	}
	return nil
}

// Check lets the service act as a health checker.
func (s *Service) Check(ctx context.Context) error {
	return s.Ping(ctx)
}

func truncated(text string) bool {
	if utf8.RuneCountInString(text) <= truncationThreshold {
		return false
	}
	last, _ := utf8.DecodeLastRuneInString(text)
	return !strings.ContainsRune(`.!?"`, last)
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ai.ErrTimeout):
		return "timeout"
	default:
		return "error"
	}
}
