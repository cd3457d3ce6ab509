package xxu

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestParseProfile checks defaults, accepted names and rejection of unknown ones.
func TestParseProfile(t *testing.T) {
	t.Parallel()

	p, err := ParseProfile("")
	require.NoError(t, err)
	require.Equal(t, ProfilePatch, p)
	require.False(t, p.HasDate())

	p, err = ParseProfile("rewrite")
	require.NoError(t, err)
	require.True(t, p.HasDate())

	_, err = ParseProfile("Rewrite")
	require.ErrorIs(t, err, ErrUsage)
}
