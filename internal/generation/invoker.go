package generation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"AutoBlogger/internal/domain"
	"AutoBlogger/internal/logging"
	"AutoBlogger/internal/ports"
)

const (
	DefaultMaxRetries = 3
	DefaultBaseDelay  = 2 * time.Second
)

// ErrEmptyOutput marks a completion that parsed to nothing usable.
var ErrEmptyOutput = errors.New("empty generation output")

// FailureKind tells why an attempt did not produce a value.
type FailureKind int

const (
	// FailureTransport is a network or service error from the generator.
	FailureTransport FailureKind = iota + 1
	// FailureMalformed is a completion that could not be parsed.
	FailureMalformed
	// FailureFatal stops the loop without another attempt.
	FailureFatal
)

func (k FailureKind) String() string {
	switch k {
	case FailureTransport:
		return "transport"
	case FailureMalformed:
		return "malformed"
	case FailureFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Failure is the tagged error half of an Attempt.
type Failure struct {
	Kind FailureKind
	Err  error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s: %v", f.Kind, f.Err)
}

func (f *Failure) Unwrap() error { return f.Err }

// Retryable reports whether another attempt may succeed.
func (f *Failure) Retryable() bool {
	return f.Kind == FailureTransport || f.Kind == FailureMalformed
}

// Attempt is the outcome of one invoke-and-parse cycle.
type Attempt[T any] struct {
	Value   T
	Failure *Failure
}

// Succeeded wraps a parsed value.
func Succeeded[T any](v T) Attempt[T] {
	return Attempt[T]{Value: v}
}

// Malformed wraps a completion that parsed to nothing usable.
func Malformed[T any](reason error) Attempt[T] {
	if reason == nil {
		reason = ErrEmptyOutput
	}
	return Attempt[T]{Failure: &Failure{Kind: FailureMalformed, Err: reason}}
}

// StageError is returned once a stage has used its whole retry budget.
type StageError struct {
	Stage    string
	Attempts int
	Last     *Failure
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s failed after %d attempts: %v", e.Stage, e.Attempts, e.Last)
}

func (e *StageError) Unwrap() error { return e.Last }

// Parser turns a raw completion into a stage value.
type Parser[T any] func(completion string) Attempt[T]

// InvokerConfig wires the generator backend and the retry policy.
type InvokerConfig struct {
	Model      string
	Sampling   domain.Sampling
	MaxRetries int
	BaseDelay  time.Duration
}

// Invoker issues generation calls for pipeline stages.
type Invoker struct {
	client     ports.Generator
	model      string
	sampling   domain.Sampling
	maxRetries int
	baseDelay  time.Duration
	logger     *slog.Logger

	sleep  func(ctx context.Context, d time.Duration) error
	jitter func() time.Duration
}

// NewInvoker builds an invoker; zero retry settings fall back to the defaults.
func NewInvoker(client ports.Generator, cfg InvokerConfig, logger *slog.Logger) *Invoker {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if cfg.BaseDelay == 0 {
		cfg.BaseDelay = DefaultBaseDelay
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Invoker{
		client:     client,
		model:      cfg.Model,
		sampling:   cfg.Sampling,
		maxRetries: cfg.MaxRetries,
		baseDelay:  cfg.BaseDelay,
		logger:     logger,
		sleep:      sleepContext,
		jitter:     uniformJitter,
	}
}

// WithModel returns a copy of the invoker that targets another model.
func (i *Invoker) WithModel(model string) *Invoker {
	dup := *i
	if model != "" {
		dup.model = model
	}
	return &dup
}

// SetClock replaces sleeping and jitter, for tests and dry runs.
func (i *Invoker) SetClock(sleep func(ctx context.Context, d time.Duration) error, jitter func() time.Duration) {
	if sleep != nil {
		i.sleep = sleep
	}
	if jitter != nil {
		i.jitter = jitter
	}
}

// Complete streams one completion and concatenates its fragments.
func (i *Invoker) Complete(ctx context.Context, prompt string) (string, error) {
	if i == nil || i.client == nil {
		return "", fmt.Errorf("generation client is not configured")
	}

	req := domain.GenerationRequest{
		Model:    i.model,
		Prompt:   strings.TrimSpace(prompt),
		Sampling: i.sampling,
	}

	var sb strings.Builder
	for fragment, err := range i.client.Stream(ctx, req) {
		if err != nil {
			return "", err
		}
		sb.WriteString(fragment)
	}
	return sb.String(), nil
}

// Backoff returns the delay before the next attempt.
func (i *Invoker) Backoff(attempt int) time.Duration {
	return i.baseDelay*time.Duration(1<<attempt) + i.jitter()
}

// Run executes a stage: complete the prompt, parse it, and repeat the whole
// cycle while the outcome is a retryable failure.
func Run[T any](ctx context.Context, inv *Invoker, stage, prompt string, parse Parser[T]) (T, error) {
	var zero T
	if inv == nil {
		return zero, fmt.Errorf("stage %s: invoker is nil", stage)
	}

	var last *Failure
	for attempt := 1; attempt <= inv.maxRetries; attempt++ {
		outcome := attemptOnce(ctx, inv, prompt, parse)
		if outcome.Failure == nil {
			inv.logger.Debug("stage completed", "stage", stage, "attempt", attempt)
			return outcome.Value, nil
		}

		last = outcome.Failure
		if !last.Retryable() {
			return zero, &StageError{Stage: stage, Attempts: attempt, Last: last}
		}
		if attempt == inv.maxRetries {
			break
		}

		delay := inv.Backoff(attempt)
		inv.logger.Warn("stage attempt failed, retrying",
			"stage", stage,
			"attempt", attempt,
			"kind", last.Kind.String(),
			"delay", delay,
			"error", last.Err)
		if err := inv.sleep(ctx, delay); err != nil {
			return zero, &StageError{Stage: stage, Attempts: attempt, Last: &Failure{Kind: FailureFatal, Err: err}}
		}
	}

	return zero, &StageError{Stage: stage, Attempts: inv.maxRetries, Last: last}
}

func attemptOnce[T any](ctx context.Context, inv *Invoker, prompt string, parse Parser[T]) Attempt[T] {
	completion, err := inv.Complete(ctx, prompt)
	if err != nil {
		if ctx.Err() != nil {
			return Attempt[T]{Failure: &Failure{Kind: FailureFatal, Err: ctx.Err()}}
		}
		return Attempt[T]{Failure: &Failure{Kind: FailureTransport, Err: err}}
	}
	inv.logger.Debug("completion received", "chars", len(completion), "preview", logging.Preview(completion))
	return parse(completion)
}

// Text accepts any completion, trimmed. Used by free-form stages where an
// empty answer is legitimate.
func Text(completion string) Attempt[string] {
	return Succeeded(strings.TrimSpace(completion))
}

// NonEmptyText rejects blank completions so they are retried.
func NonEmptyText(completion string) Attempt[string] {
	text := strings.TrimSpace(completion)
	if text == "" {
		return Malformed[string](nil)
	}
	return Succeeded(text)
}

// StringList parses a list of non-empty strings; an empty list is malformed.
func StringList(completion string) Attempt[[]string] {
	items := Strings(DecodeList[string](completion))
	if len(items) == 0 {
		return Malformed[[]string](nil)
	}
	return Succeeded(items)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func uniformJitter() time.Duration {
	return time.Duration(rand.Int64N(int64(time.Second)))
}
