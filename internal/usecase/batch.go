package usecase

import (
	"context"
	"errors"
	"fmt"

	"AutoBlogger/internal/domain"
)

// TopicOutcome is the per-topic line of a batch report.
type TopicOutcome struct {
	Topic  string
	Status domain.ProcessingStatus
	Result Result
	Err    error
}

// Batch runs topics one after another. A failed topic is recorded and the
// next one still runs; topics the ledger already knows are skipped.
func (p *Pipeline) Batch(ctx context.Context, topics []string, base Request) ([]TopicOutcome, error) {
	normalized := make([]string, 0, len(topics))
	for _, topic := range topics {
		if t, err := NormalizeTopic(topic); err == nil {
			normalized = append(normalized, t)
		} else {
			normalized = append(normalized, topic)
		}
	}

	skip := map[string]bool{}
	if p.ledger != nil && len(normalized) > 0 {
		var err error
		skip, err = p.ledger.AlreadyPublished(ctx, normalized)
		if err != nil {
			return nil, fmt.Errorf("load published: %w", err)
		}
	}

	outcomes := make([]TopicOutcome, 0, len(normalized))
	var errs []error
	for _, topic := range normalized {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if skip[topic] {
			p.logger.Info("topic already published, skipping", "topic", topic)
			outcomes = append(outcomes, TopicOutcome{Topic: topic, Status: domain.StatusSkipped})
			continue
		}

		req := base
		req.Topic = topic
		res, err := p.Run(ctx, req)
		if err != nil {
			p.logger.Error("topic run failed", "topic", topic, "error", err)
			outcomes = append(outcomes, TopicOutcome{Topic: topic, Status: domain.StatusFailed, Result: res, Err: err})
			errs = append(errs, fmt.Errorf("topic %q: %w", topic, err))
			continue
		}
		outcomes = append(outcomes, TopicOutcome{Topic: topic, Status: domain.StatusPublished, Result: res})
	}

	return outcomes, errors.Join(errs...)
}
