package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	oldV, oldSHA, oldTime := Version, GitSHA, BuildTime
	defer func() { Version, GitSHA, BuildTime = oldV, oldSHA, oldTime }()

	assert.Equal(t, "trendview dev (commit unknown, built unknown)", String())

	Version, GitSHA, BuildTime = "1.2.0", "abc123", "2025-06-01T00:00:00Z"
	assert.Equal(t, "trendview 1.2.0 (commit abc123, built 2025-06-01T00:00:00Z)", String())
}
