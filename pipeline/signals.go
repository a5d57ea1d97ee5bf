package pipeline

import (
	"context"

	"github.com/cenkalti/backoff/v4"

	"github.com/patchplan-ai/engine/risk"
)

// SignalProvider is the optional retrieval/inference collaborator that
// supplies contextual relevance signals before scoring begins.
//
// Implementations typically wrap a semantic index over vendor
// documentation or an advisory feed. The pipeline treats the provider as
// best-effort: a timeout or failure degrades to scoring without signals.
type SignalProvider interface {
	// Signals returns contextual signals for the given vulnerability IDs,
	// keyed by ID. IDs with no signal may be absent from the map.
	Signals(ctx context.Context, vulnIDs []string) (map[string]*risk.ContextSignal, error)
}

// resolveSignals merges pre-resolved signals with any the provider can
// supply, retrying transient provider failures with exponential backoff
// inside the configured timeout. On exhaustion it logs and returns what it
// has; the scorer's contract makes missing signals a no-op.
func (p *Pipeline) resolveSignals(ctx context.Context, input Input) map[string]*risk.ContextSignal {
	signals := make(map[string]*risk.ContextSignal, len(input.Signals))
	for id, sig := range input.Signals {
		signals[id] = sig
	}

	if input.SignalProvider == nil {
		return signals
	}

	var missing []string
	for i := range input.Records {
		if _, ok := signals[input.Records[i].ID]; !ok {
			missing = append(missing, input.Records[i].ID)
		}
	}
	if len(missing) == 0 {
		return signals
	}

	ctx, cancel := context.WithTimeout(ctx, p.signalTimeout)
	defer cancel()

	var fetched map[string]*risk.ContextSignal
	operation := func() error {
		var err error
		fetched, err = input.SignalProvider.Signals(ctx, missing)
		return err
	}

	policy := backoff.WithContext(backoff.NewExponentialBackOff(), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		p.logger.Warn("signal provider unavailable, scoring without contextual signals",
			"missing", len(missing),
			"error", err)
		return signals
	}

	for id, sig := range fetched {
		if sig != nil {
			signals[id] = sig
		}
	}
	p.logger.Info("contextual signals resolved",
		"requested", len(missing),
		"received", len(fetched))
	return signals
}
