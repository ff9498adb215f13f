// Package pipeline runs batches of source images through the full
// hash → analyze → translate → trace → compose → render → validate →
// publish → record sequence.
//
// A Runner owns a bounded worker pool. Each worker carries one image through
// every stage; outcomes flow back over a channel to a single collector that
// builds the run Summary. Identical bytes seen twice in one batch are
// processed once, and the ledger makes reruns skip published images.
// Per-item failures are logged and counted but never stop the batch; only
// failures that no later item could survive (missing tools, bad
// configuration) abort the run.
//
// Lock guards the ledger against concurrent runs from separate processes.
package pipeline
