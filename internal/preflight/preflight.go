package preflight

import (
	"context"

	"pagesmith/internal/config"
	"pagesmith/internal/procexec"
	"pagesmith/internal/services/llm"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// Options selects the optional checks.
type Options struct {
	// LLM enables the service reachability check.
	LLM        bool
	LLMOptions []llm.Option
	Executor   procexec.Executor
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config, opts Options) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckReadableDirectory("Input directory", cfg.Paths.InputDir),
		CheckDirectoryAccess("Output directory", cfg.Paths.OutputDir),
		CheckDirectoryAccess("Work directory", cfg.Paths.WorkDir),
		CheckDirectoryAccess("State directory", cfg.Paths.StateDir),
	}

	for _, status := range CheckSystemDeps(ctx, cfg, opts.Executor) {
		result := Result{Name: status.Name, Passed: status.Available, Detail: status.Detail}
		if status.Available {
			result.Detail = status.Version
			if result.Detail == "" {
				result.Detail = status.Command
			}
		}
		results = append(results, result)
	}

	if opts.LLM {
		results = append(results, CheckLLM(ctx, "LLM service", cfg.LLM, opts.LLMOptions...))
	}
	return results
}

// Failures returns the checks that did not pass.
func Failures(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}
