package logger

import (
	"bytes"
	"errors"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
)

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prevOut, prevFlags := log.Writer(), log.Flags()
	log.SetOutput(&buf)
	log.SetFlags(0)
	t.Cleanup(func() {
		log.SetOutput(prevOut)
		log.SetFlags(prevFlags)
	})
	return &buf
}

func TestFormatFields(t *testing.T) {
	tests := []struct {
		name   string
		fields Fields
		want   string
	}{
		{"empty", nil, ""},
		{"sorted", Fields{"track": "duvet", "key": "C# minor"}, "{key=C# minor, track=duvet}"},
		{"numbers", Fields{"tempo": 128.0, "notes": 8, "seed": int64(42)}, "{notes=8, seed=42, tempo=128.00}"},
		{"other", Fields{"ok": true}, "{ok=true}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatFields(tt.fields))
		})
	}
}

func TestLevels(t *testing.T) {
	buf := captureLog(t)

	Info("generated", Fields{"track": "duvet"})
	Warn("fallback key", Fields{"key": "Q minor"})
	Error("write failed", errors.New("disk full"), Fields{"part": "bass"})

	out := buf.String()
	assert.Contains(t, out, "[INFO] generated {track=duvet}")
	assert.Contains(t, out, "[WARN] fallback key {key=Q minor}")
	assert.Contains(t, out, "[ERROR] write failed: disk full {part=bass}")
}

func TestDebugToggle(t *testing.T) {
	buf := captureLog(t)
	t.Cleanup(func() { SetDebug(false) })

	SetDebug(false)
	Debug("hidden", nil)
	assert.Empty(t, buf.String())

	SetDebug(true)
	assert.True(t, DebugEnabled())
	Debug("shown", Fields{"n": 1})
	assert.Contains(t, buf.String(), "[DEBUG] shown {n=1}")
}

func TestFieldsMerge(t *testing.T) {
	base := Fields{"track": "duvet", "part": "motif"}
	merged := base.Merge(Fields{"part": "bass", "notes": 2})

	assert.Equal(t, Fields{"track": "duvet", "part": "bass", "notes": 2}, merged)
	assert.Equal(t, "motif", base["part"])
}
