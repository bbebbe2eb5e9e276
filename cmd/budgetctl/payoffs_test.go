package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/budget-engine/budget"
)

func TestParseAdjustments(t *testing.T) {
	adj, err := parseAdjustments("--increase", []string{"2017-09-01=500", " 2018-01-01 = 650.25 "})
	require.NoError(t, err)
	require.Len(t, adj, 2)
	assert.Equal(t, budget.MustParseDate("2017-09-01"), adj[0].Date)
	assert.Equal(t, "500", adj[0].Amount.String())
	assert.Equal(t, "650.25", adj[1].Amount.String())

	for _, bad := range []string{"2017-09-01", "09/01/2017=5", "2017-09-01=lots"} {
		_, err := parseAdjustments("--onetime", []string{bad})
		assert.Error(t, err, bad)
	}

	adj, err = parseAdjustments("--onetime", nil)
	require.NoError(t, err)
	assert.Empty(t, adj)
}
