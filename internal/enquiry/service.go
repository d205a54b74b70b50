package enquiry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/musohq/muso-ai-platform/pkg/logging"
)

// Persister writes enquiries with bounded retry. Transient database failures
// back off exponentially; validation errors fail immediately.
type Persister struct {
	repo        Repository
	maxAttempts int
	retryBase   time.Duration
	logger      *logging.Logger
}

func NewPersister(repo Repository, maxAttempts int, retryBase time.Duration, logger *logging.Logger) *Persister {
	if repo == nil {
		panic("enquiry: repository required")
	}
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if retryBase <= 0 {
		retryBase = 100 * time.Millisecond
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Persister{repo: repo, maxAttempts: maxAttempts, retryBase: retryBase, logger: logger}
}

func (p *Persister) Persist(ctx context.Context, req *CreateEnquiryRequest) (*Enquiry, error) {
	var lastErr error
	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		e, err := p.repo.Create(ctx, req)
		if err == nil {
			return e, nil
		}
		if !retryable(err) {
			return nil, err
		}
		lastErr = err
		p.logger.Warn("enquiry persist attempt failed",
			"attempt", attempt,
			"max_attempts", p.maxAttempts,
			"error", err)
		if attempt == p.maxAttempts {
			break
		}
		delay := p.retryBase << (attempt - 1)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
	return nil, fmt.Errorf("enquiry: persist failed after %d attempts: %w", p.maxAttempts, lastErr)
}

func retryable(err error) bool {
	switch {
	case errors.Is(err, ErrMissingOrgID),
		errors.Is(err, ErrMissingClientName),
		errors.Is(err, ErrMissingClientEmail),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return false
	}
	return true
}
