package version

import (
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func withVersion(t *testing.T, v, commit, date string) {
	t.Helper()
	origV, origC, origD, origNo := Version, GitCommit, BuildDate, color.NoColor
	Version, GitCommit, BuildDate = v, commit, date
	color.NoColor = true
	t.Cleanup(func() {
		Version, GitCommit, BuildDate, color.NoColor = origV, origC, origD, origNo
	})
}

func TestColoredWithoutColorIsPlain(t *testing.T) {
	withVersion(t, "1.2.3-rc1", "", "")
	assert.Equal(t, "1.2.3-rc1", Colored())
}

func TestColoredKeepsUnusualVersions(t *testing.T) {
	withVersion(t, "nightly", "", "")
	assert.Equal(t, "nightly", Colored())
}

func TestInfo(t *testing.T) {
	withVersion(t, "1.2.3", "abc123", "2026-01-15T10:30:00Z")
	assert.Equal(t, "cschema 1.2.3\ncommit: abc123\nbuilt:  2026-01-15T10:30:00Z\n", Info())
	assert.Equal(t, "cschema 1.2.3", Generator())
}

func TestInfoOmitsEmptyFields(t *testing.T) {
	withVersion(t, "0.1.0", "", "")
	assert.Equal(t, "cschema 0.1.0\n", Info())
}
