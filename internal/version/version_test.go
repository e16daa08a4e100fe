package version

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestString(t *testing.T) {
	tests := []struct {
		name     string
		version  string
		commit   string
		expected string
	}{
		{"development version without commit", "development", "unknown", "development"},
		{"release version with commit", "1.0.0", "abc1234", "1.0.0+abc1234"},
		{"empty commit shows only version", "2.0.0", "", "2.0.0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			origVersion, origCommit := Version, Commit
			defer func() { Version, Commit = origVersion, origCommit }()

			Version, Commit = tt.version, tt.commit
			require.Equal(t, tt.expected, String())
		})
	}
}

func TestGet(t *testing.T) {
	info := Get()
	require.Equal(t, Version, info.Version)
	require.Equal(t, runtime.Version(), info.GoVersion)
}
