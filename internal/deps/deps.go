// Package deps reports whether the external binaries pagesmith shells out
// to are installed, and which versions they are.
package deps

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"pagesmith/internal/procexec"
)

// Requirement defines an external dependency pagesmith relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Version     string
	Detail      string
}

// CheckBinaries evaluates the provided requirements and reports availability.
// When executor is non-nil, available binaries are also asked for their
// version; a binary that is on PATH but fails `--version` is unavailable.
func CheckBinaries(ctx context.Context, executor procexec.Executor, requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Available = false
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		if _, err := exec.LookPath(cmd); err != nil {
			status.Available = false
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		if executor != nil {
			version, err := procexec.Version(ctx, executor, cmd)
			if err != nil {
				status.Available = false
				status.Detail = fmt.Sprintf("%s --version failed: %v", cmd, err)
				results = append(results, status)
				continue
			}
			status.Version = version
		}
		status.Available = true
		results = append(results, status)
	}
	return results
}

// Missing returns the required (non-optional) dependencies that are unavailable.
func Missing(statuses []Status) []Status {
	var missing []Status
	for _, s := range statuses {
		if !s.Available && !s.Optional {
			missing = append(missing, s)
		}
	}
	return missing
}
