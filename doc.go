// Package engine turns known vulnerabilities and vendor guidance into an
// ordered, compliance-annotated deployment plan.
//
// The engine is a pure, in-process library: it takes vulnerability records,
// vendor notes, target availability, and target regulatory classifications,
// and produces an immutable plan document. Ingestion, semantic retrieval,
// LLM commentary, and report formatting are external collaborators reached
// only through interfaces.
//
// # Core Concepts
//
// The engine is organized as a staged pipeline over a few leaf packages:
//
//   - record: vulnerability records and vendor notes as ingested
//   - risk: pure risk scoring over named signals (base severity, vendor
//     priority, exploitation)
//   - depgraph: ordering constraints between patches, cycle detection
//   - schedule: greedy priority-ordered topological slot assignment
//   - compliance: regulatory framework tagging and audit evidence keys
//   - plan: the assembled, immutable plan document
//   - pipeline: the orchestrator tying the stages together
//   - store: optional Redis-backed plan persistence and publication
//
// # Getting Started
//
// Run the pipeline directly, or use the GeneratePlan convenience:
//
//	doc, err := engine.GeneratePlan(ctx, pipeline.Input{
//		Records:      records,
//		Notes:        notes,
//		Availability: availability,
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	data, _ := doc.MarshalIndent()
package engine
