package logging

import (
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConsoleField(t *testing.T) {
	digest := strings.Repeat("0f", 32)
	tests := []struct {
		key   string
		value slog.Value
		want  string
	}{
		{FieldDigest, slog.StringValue(digest), digest[:12]},
		{"svg_bytes", slog.Int64Value(2048), "2.0KiB"},
		{"svg_bytes", slog.Int64Value(512), "512B"},
		{"elapsed", slog.DurationValue(1234567 * time.Microsecond), "1.23s"},
		{"elapsed", slog.DurationValue(1500 * time.Microsecond), "2ms"},
		{"ratio", slog.Float64Value(0.5), "0.500"},
		{"path", slog.StringValue("/in/Animals/Farm Life/cow.png"), `"/in/Animals/Farm Life/cow.png"`},
		{"error", slog.AnyValue(errors.New("boom")), "boom"},
		{"empty", slog.StringValue(""), `""`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, consoleField(tt.key, tt.value), tt.key)
	}
}
