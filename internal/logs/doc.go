// Package logs reads the JSON run log written next to the console output.
//
// Tail returns the last lines that pass a Filter and the offset to resume
// from; Follow polls for appended lines until its context ends. Both keep
// memory bounded regardless of the log size.
package logs
