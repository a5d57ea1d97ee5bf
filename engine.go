package engine

import (
	"context"

	"github.com/patchplan-ai/engine/pipeline"
	"github.com/patchplan-ai/engine/plan"
)

// GeneratePlan runs the full pipeline with default configuration and
// returns the assembled plan.
//
// Example:
//
//	doc, err := engine.GeneratePlan(ctx, input,
//	    pipeline.WithLogger(logger),
//	    pipeline.WithScoringConfig(cfg),
//	)
func GeneratePlan(ctx context.Context, input pipeline.Input, opts ...pipeline.Option) (*plan.Plan, error) {
	return pipeline.New(opts...).Run(ctx, input)
}
