// Package compose places traced vector geometry onto the fixed print page.
//
// Layout is a pure function of the trace viewbox and the page: the content
// is scaled uniformly to fit inside the page minus its margin and centered.
// Composition wraps the trace's elements in a single transformed group and
// forces every shape to the configured print style.
package compose
