// Package preflight provides readiness checks for the external tools,
// directories and services pagesmith depends on.
//
// These checks run in two contexts:
//   - `pagesmith run` calls RunAll before any image is touched. A failed
//     check aborts the run, since no item could succeed.
//   - `pagesmith check` prints every result, including tool versions.
package preflight
