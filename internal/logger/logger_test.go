package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// capture points the logger at a fresh buffer and restores the previous
// configuration on cleanup.
func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	buf := new(bytes.Buffer)

	mu.Lock()
	original := cur
	cur.out = buf
	cur.color = false
	cur.rebuild()
	mu.Unlock()

	t.Cleanup(func() {
		mu.Lock()
		cur = original
		cur.rebuild()
		mu.Unlock()
	})
	return buf
}

func lastJSONEntry(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[len(lines)-1]), &entry))
	return entry
}

func TestLevelFiltering(t *testing.T) {
	tests := []struct {
		level  string
		hidden []string
		shown  []string
	}{
		{"DEBUG", nil, []string{"debug msg", "info msg", "warn msg", "error msg"}},
		{"INFO", []string{"debug msg"}, []string{"info msg", "warn msg", "error msg"}},
		{"WARN", []string{"debug msg", "info msg"}, []string{"warn msg", "error msg"}},
		{"ERROR", []string{"debug msg", "info msg", "warn msg"}, []string{"error msg"}},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			buf := capture(t)
			SetLevel(tt.level)

			Debug("debug msg")
			Info("info msg")
			Warn("warn msg")
			Error("error msg")

			out := buf.String()
			for _, msg := range tt.shown {
				assert.Contains(t, out, msg)
			}
			for _, msg := range tt.hidden {
				assert.NotContains(t, out, msg)
			}
		})
	}

	t.Run("CaseInsensitive", func(t *testing.T) {
		buf := capture(t)
		SetLevel("DeBuG")
		Debug("lowercase works")
		assert.Contains(t, buf.String(), "lowercase works")
	})

	t.Run("InvalidLevelIgnored", func(t *testing.T) {
		buf := capture(t)
		SetLevel("INFO")
		SetLevel("INVALID")

		Debug("still filtered")
		Info("still shown")
		assert.NotContains(t, buf.String(), "still filtered")
		assert.Contains(t, buf.String(), "still shown")
	})
}

func TestTextFormat(t *testing.T) {
	buf := capture(t)
	SetLevel("INFO")
	SetFormat("text")

	Info("user logged in", "username", "alice", "user_id", 42)

	out := buf.String()
	assert.Regexp(t, `\[\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}\]`, out)
	assert.Contains(t, out, "[INFO]")
	assert.Contains(t, out, "user logged in")
	assert.Contains(t, out, "username=alice")
	assert.Contains(t, out, "user_id=42")
}

func TestJSONFormat(t *testing.T) {
	buf := capture(t)
	SetLevel("INFO")
	SetFormat("json")

	Info("scan ingested", "endpoint", "ws-042", "samples", 12)

	entry := lastJSONEntry(t, buf)
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "scan ingested", entry["msg"])
	assert.Equal(t, "ws-042", entry["endpoint"])
	assert.Equal(t, float64(12), entry["samples"])
	assert.Contains(t, entry, "time")
}

func TestFormatSwitching(t *testing.T) {
	buf := capture(t)
	SetLevel("INFO")

	SetFormat("text")
	Info("text message")
	assert.Contains(t, buf.String(), "[INFO]")
	buf.Reset()

	SetFormat("json")
	Info("json message")
	assert.True(t, json.Valid([]byte(strings.TrimSpace(buf.String()))))
	buf.Reset()

	// Invalid formats leave the current one in place
	SetFormat("xml")
	Info("still json")
	assert.True(t, json.Valid([]byte(strings.TrimSpace(buf.String()))))
}

func TestLevelString(t *testing.T) {
	assert.Equal(t, "DEBUG", LevelDebug.String())
	assert.Equal(t, "INFO", LevelInfo.String())
	assert.Equal(t, "WARN", LevelWarn.String())
	assert.Equal(t, "ERROR", LevelError.String())
	assert.Equal(t, "UNKNOWN", Level(99).String())
}

func TestContextLogging(t *testing.T) {
	t.Run("InjectsRequestFields", func(t *testing.T) {
		buf := capture(t)
		SetLevel("INFO")
		SetFormat("json")

		lc := &LogContext{
			RequestID: "req-abc123",
			ClientIP:  "192.168.1.100",
			Username:  "jdoe",
			Provider:  "corp-ad",
			Endpoint:  "ws-042.corp.local",
		}
		InfoCtx(WithContext(context.Background(), lc), "operation completed", "extra", "value")

		entry := lastJSONEntry(t, buf)
		assert.Equal(t, "req-abc123", entry["request_id"])
		assert.Equal(t, "192.168.1.100", entry["client_ip"])
		assert.Equal(t, "jdoe", entry["username"])
		assert.Equal(t, "corp-ad", entry["provider"])
		assert.Equal(t, "ws-042.corp.local", entry["endpoint"])
		assert.Equal(t, "value", entry["extra"])
	})

	t.Run("BareContext", func(t *testing.T) {
		buf := capture(t)
		SetLevel("INFO")

		require.NotPanics(t, func() {
			InfoCtx(context.Background(), "no log context")
		})
		assert.Contains(t, buf.String(), "no log context")
	})

	t.Run("NilContext", func(t *testing.T) {
		buf := capture(t)
		SetLevel("INFO")

		require.NotPanics(t, func() {
			InfoCtx(nil, "nil context")
		})
		assert.Contains(t, buf.String(), "nil context")
	})
}

func TestLogContext(t *testing.T) {
	lc := NewLogContext("192.168.1.100")
	assert.Equal(t, "192.168.1.100", lc.ClientIP)
	assert.False(t, lc.StartTime.IsZero())
	assert.GreaterOrEqual(t, lc.DurationMs(), 0.0)

	t.Run("BuildersCopy", func(t *testing.T) {
		withUser := lc.WithUser("jdoe", "corp-ad").WithRequestID("req-123").WithEndpoint("ws-042")
		assert.Equal(t, "jdoe", withUser.Username)
		assert.Equal(t, "corp-ad", withUser.Provider)
		assert.Equal(t, "req-123", withUser.RequestID)
		assert.Equal(t, "ws-042", withUser.Endpoint)
		// Original is untouched
		assert.Equal(t, "", lc.Username)
		assert.Equal(t, "", lc.RequestID)
	})

	t.Run("CloneNil", func(t *testing.T) {
		var nilCtx *LogContext
		assert.Nil(t, nilCtx.Clone())
	})
}

func TestFieldHelpers(t *testing.T) {
	attr := Username("jdoe")
	assert.Equal(t, KeyUsername, attr.Key)
	assert.Equal(t, "jdoe", attr.Value.String())

	assert.Equal(t, "", Err(nil).Key)

	errAttr := Err(assert.AnError)
	assert.Equal(t, KeyError, errAttr.Key)
	assert.Contains(t, errAttr.Value.String(), "assert.AnError")
}

func TestPrintfVariants(t *testing.T) {
	buf := capture(t)
	SetLevel("DEBUG")

	Debugf("user %s has ID %d", "alice", 42)
	Infof("count: %d", 100)
	Warnf("warning: %s", "disk low")
	Errorf("error: %v", "boom")

	out := buf.String()
	assert.Contains(t, out, "user alice has ID 42")
	assert.Contains(t, out, "count: 100")
	assert.Contains(t, out, "warning: disk low")
	assert.Contains(t, out, "error: boom")
}

func TestConcurrentLogging(t *testing.T) {
	t.Run("ConcurrentWrites", func(t *testing.T) {
		buf := capture(t)
		SetLevel("INFO")

		const goroutines = 10
		const logsEach = 100

		var wg sync.WaitGroup
		wg.Add(goroutines)
		for i := 0; i < goroutines; i++ {
			go func(id int) {
				defer wg.Done()
				for j := 0; j < logsEach; j++ {
					Info("goroutine log", "id", id, "iteration", j)
				}
			}(i)
		}
		wg.Wait()

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		assert.Equal(t, goroutines*logsEach, len(lines))
	})

	t.Run("ConcurrentLevelChanges", func(t *testing.T) {
		// io.Discard because level changes rebuild the handler and
		// bytes.Buffer is not safe for concurrent writers
		InitWithWriter(io.Discard, "DEBUG", "text", false)
		t.Cleanup(func() {
			mu.Lock()
			cur.out = os.Stdout
			cur.rebuild()
			mu.Unlock()
		})

		var wg sync.WaitGroup
		wg.Add(10)
		for i := 0; i < 5; i++ {
			go func() {
				defer wg.Done()
				for j := 0; j < 50; j++ {
					if j%2 == 0 {
						SetLevel("DEBUG")
					} else {
						SetLevel("ERROR")
					}
				}
			}()
			go func(id int) {
				defer wg.Done()
				for j := 0; j < 50; j++ {
					Debug("debug", "id", id)
					Error("error", "id", id)
				}
			}(i)
		}
		require.NotPanics(t, wg.Wait)
	})
}

func TestInit(t *testing.T) {
	t.Run("Writer", func(t *testing.T) {
		buf := new(bytes.Buffer)
		InitWithWriter(buf, "DEBUG", "text", false)
		t.Cleanup(func() {
			mu.Lock()
			cur.out = os.Stdout
			cur.rebuild()
			mu.Unlock()
		})

		Debug("test message")
		assert.Contains(t, buf.String(), "test message")
	})

	t.Run("Config", func(t *testing.T) {
		require.NoError(t, Init(Config{Level: "DEBUG", Format: "text", Output: "stdout"}))
		require.NoError(t, Init(Config{}))
	})
}
