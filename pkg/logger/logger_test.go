package logger

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestNewForwardsToSlog(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	base := slog.New(slog.NewTextHandler(&buf, nil))

	New(base, "cron").Printf("job %d started", 7)

	out := buf.String()
	if !strings.Contains(out, "component=cron") || !strings.Contains(out, "job 7 started") {
		t.Fatalf("unexpected output: %q", out)
	}
}
