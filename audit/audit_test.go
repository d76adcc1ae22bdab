package audit

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLog_AppendAndRead(t *testing.T) {
	l := NewLog(10)

	l.Info("first", map[string]any{"k": 1})
	l.Warn("second", nil)
	l.Error("third", nil)

	entries := l.Entries()
	assert.Len(t, entries, 3)
	assert.Equal(t, "info", entries[0].Level)
	assert.Equal(t, "first", entries[0].Message)
	assert.Equal(t, "warn", entries[1].Level)
	assert.Equal(t, "error", entries[2].Level)
	assert.False(t, entries[0].Timestamp.IsZero())
}

func TestLog_EvictsOldestAtCapacity(t *testing.T) {
	l := NewLog(3)

	for i := 0; i < 5; i++ {
		l.Info(fmt.Sprintf("entry-%d", i), nil)
	}

	entries := l.Entries()
	assert.Len(t, entries, 3)
	assert.Equal(t, "entry-2", entries[0].Message)
	assert.Equal(t, "entry-4", entries[2].Message)
}

func TestLog_SetCapacityShrinks(t *testing.T) {
	l := NewLog(10)
	for i := 0; i < 6; i++ {
		l.Info(fmt.Sprintf("entry-%d", i), nil)
	}

	l.SetCapacity(2)

	entries := l.Entries()
	assert.Len(t, entries, 2)
	assert.Equal(t, "entry-4", entries[0].Message)
	assert.Equal(t, "entry-5", entries[1].Message)
}

func TestLog_NonPositiveCapacityFallsBack(t *testing.T) {
	l := NewLog(0)
	l.Info("x", nil)
	assert.Equal(t, 1, l.Len())
}
