package logs

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

const maxLineBytes = 1024 * 1024

// Entry is the subset of a JSON log line used for filtering and display.
type Entry struct {
	Time          string `json:"ts"`
	Level         string `json:"level"`
	Message       string `json:"msg"`
	Component     string `json:"component"`
	Digest        string `json:"digest"`
	Stage         string `json:"stage"`
	CorrelationID string `json:"correlation_id"`
	EventType     string `json:"event_type"`
	Error         string `json:"error"`
}

// ParseLine decodes one JSON log line. Lines that are not JSON objects
// report false.
func ParseLine(line string) (Entry, bool) {
	var entry Entry
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		return Entry{}, false
	}
	return entry, true
}

// Filter selects log lines. Zero fields match everything; Digest matches by
// prefix so shortened digests from the console output can be pasted in.
type Filter struct {
	MinLevel  slog.Leveler
	Digest    string
	Component string
	Stage     string
}

// Match reports whether line passes f. Unparseable lines pass only an empty
// filter.
func (f Filter) Match(line string) bool {
	if f == (Filter{}) {
		return true
	}
	entry, ok := ParseLine(line)
	if !ok {
		return false
	}
	if f.MinLevel != nil && levelOf(entry.Level) < f.MinLevel.Level() {
		return false
	}
	if f.Digest != "" && !strings.HasPrefix(entry.Digest, strings.ToLower(f.Digest)) {
		return false
	}
	if f.Component != "" && !strings.EqualFold(entry.Component, f.Component) {
		return false
	}
	if f.Stage != "" && !strings.EqualFold(entry.Stage, f.Stage) {
		return false
	}
	return true
}

func levelOf(value string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(value)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// Tail returns up to limit trailing lines of path that pass filter, plus the
// file size at the time of reading. A missing file yields no lines and
// offset zero.
func Tail(path string, limit int, filter Filter) ([]string, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, 0, fmt.Errorf("stat log file: %w", err)
	}
	if info.IsDir() {
		return nil, 0, fmt.Errorf("log path %q is a directory", path)
	}
	if limit <= 0 {
		return nil, info.Size(), nil
	}

	ring := make([]string, limit)
	count, next := 0, 0
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	var read int64
	for scanner.Scan() {
		line := scanner.Text()
		read += int64(len(scanner.Bytes())) + 1
		if !filter.Match(line) {
			continue
		}
		ring[next] = line
		next = (next + 1) % limit
		count = min(count+1, limit)
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, fmt.Errorf("read log file: %w", err)
	}

	lines := make([]string, count)
	start := 0
	if count == limit {
		start = next
	}
	for i := range count {
		lines[i] = ring[(start+i)%limit]
	}
	return lines, min(read, info.Size()), nil
}

// Follow polls path from offset and calls emit for every appended line that
// passes filter. It returns when ctx ends. A file that shrinks (rotated or
// truncated) is reread from the start.
func Follow(ctx context.Context, path string, offset int64, poll time.Duration, filter Filter, emit func(string)) error {
	if poll <= 0 {
		poll = 250 * time.Millisecond
	}
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		next, err := readFrom(path, offset, filter, emit)
		if err != nil {
			return err
		}
		offset = next

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// readFrom emits complete lines after offset and returns the offset just past
// the last complete line.
func readFrom(path string, offset int64, filter Filter, emit func(string)) (int64, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return offset, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return offset, fmt.Errorf("stat log file: %w", err)
	}
	if offset > info.Size() {
		offset = 0
	}
	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return offset, fmt.Errorf("seek log file: %w", err)
	}

	reader := bufio.NewReaderSize(file, 64*1024)
	for {
		line, err := reader.ReadString('\n')
		if errors.Is(err, io.EOF) {
			// a partial line stays unread until its newline arrives
			return offset, nil
		}
		if err != nil {
			return offset, fmt.Errorf("read log file: %w", err)
		}
		offset += int64(len(line))
		line = strings.TrimRight(line, "\r\n")
		if filter.Match(line) {
			emit(line)
		}
	}
}
