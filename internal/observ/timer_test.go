package observ

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimerReport(t *testing.T) {
	tm := NewTimer()
	a := tm.Begin("parse")
	time.Sleep(2 * time.Millisecond)
	tm.End(a, "3 headers")
	b := tm.Begin("emit")
	tm.End(b, "")
	tm.End(99, "ignored")

	r := tm.Report()
	require.Len(t, r.Phases, 2)
	assert.Equal(t, "parse", r.Phases[0].Name)
	assert.Equal(t, "3 headers", r.Phases[0].Note)
	assert.GreaterOrEqual(t, r.Phases[0].DurationMS, 2.0)
	assert.GreaterOrEqual(t, r.TotalMS, r.Phases[0].DurationMS)

	s := tm.Summary()
	assert.True(t, strings.HasPrefix(s, "timings:\n"))
	assert.Contains(t, s, "// 3 headers")
	assert.Contains(t, s, "total")
}

func TestNilTimerIsInert(t *testing.T) {
	var tm *Timer
	tm.End(tm.Begin("x"), "")
	assert.Empty(t, tm.Report().Phases)
}
