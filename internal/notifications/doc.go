// Package notifications pushes run milestones to ntfy.
//
// A run announces how many images it found, reports its final counts, and
// raises an alert when it aborts. With no topic configured NewService returns
// a no-op implementation so callers never branch on whether notifications are
// enabled.
package notifications
