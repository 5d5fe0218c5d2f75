package script

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tool.sh")
	if err := os.WriteFile(path, []byte(body), 0o755); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}
	return path
}

func TestRunParsesStdout(t *testing.T) {
	runner := NewRunner("sh")
	path := writeScript(t, "#!/bin/sh\necho '{\"tasks\":[],\"count\":0}'\n")

	out, err := runner.Run(context.Background(), 5*time.Second, path, "list", "demo-project")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if string(out) != `{"tasks":[],"count":0}` {
		t.Fatalf("unexpected output: %s", out)
	}
}

func TestRunNonZeroExit(t *testing.T) {
	runner := NewRunner("sh")
	path := writeScript(t, "#!/bin/sh\necho 'boom' >&2\nexit 3\n")

	_, err := runner.Run(context.Background(), 5*time.Second, path)
	if err == nil {
		t.Fatal("expected error for non-zero exit")
	}
	if !strings.Contains(err.Error(), "status 3") || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("error should carry exit status and stderr: %v", err)
	}
}

func TestRunTimeout(t *testing.T) {
	runner := NewRunner("sh")
	path := writeScript(t, "#!/bin/sh\nsleep 10\n")

	start := time.Now()
	_, err := runner.Run(context.Background(), 100*time.Millisecond, path)
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if !strings.Contains(err.Error(), "timed out") {
		t.Fatalf("expected timeout error, got: %v", err)
	}
	if time.Since(start) > 5*time.Second {
		t.Fatal("timeout did not bound execution time")
	}
}

func TestRunNonJSONOutput(t *testing.T) {
	runner := NewRunner("sh")
	path := writeScript(t, "#!/bin/sh\necho 'plain text'\n")

	_, err := runner.Run(context.Background(), 5*time.Second, path)
	if err == nil {
		t.Fatal("expected error for non-JSON output")
	}
	if !strings.Contains(err.Error(), "non-JSON") {
		t.Fatalf("unexpected error: %v", err)
	}
}
