// Package main hosts the pagesmith CLI entrypoint and command graph.
//
// The Cobra command tree resolves configuration, builds every pipeline
// component from it, and exposes batch runs plus inspection of the local
// state: preflight checks, the translation cache, and the processed ledger.
// Processing logic lives in the internal packages; commands only wire and
// report.
package main
