// Package services defines shared utilities consumed by the pipeline stages
// and external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp content digests, source paths, stage names,
//     and correlation identifiers for logging.
//   - Structured error markers plus the Wrap helper so every stage failure can
//     be classified (invalid source, tool failure, exhausted service retries,
//     validation) without string matching.
//
// Use these helpers when wiring new stage logic so failure reporting stays
// uniform across the pipeline.
package services
