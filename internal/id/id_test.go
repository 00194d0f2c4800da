package id

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var recordID = regexp.MustCompile(`^[a-z0-9]{15}$`)

func TestNew_Format(t *testing.T) {
	v, err := New()
	require.NoError(t, err)

	assert.Regexp(t, recordID, v)
}

func TestNew_Uniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for range 1000 {
		v, err := New()
		require.NoError(t, err)
		assert.False(t, seen[v], "duplicate id %s", v)
		seen[v] = true
	}
	assert.Len(t, seen, 1000)
}
