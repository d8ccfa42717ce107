package realtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFilter(t *testing.T) {
	f, err := ParseFilter("sender_id=eq.abc, recipient_id=eq.def")
	require.NoError(t, err)
	require.Len(t, f.Conditions, 2)
	assert.Equal(t, "sender_id", f.Conditions[0].Column)
	assert.Equal(t, OpEq, f.Conditions[0].Op)
	assert.Equal(t, []string{"def"}, f.Conditions[1].Values)

	f, err = ParseFilter("status=in.(open,accepted),fundi_id=is.null")
	require.NoError(t, err)
	require.Len(t, f.Conditions, 2)
	assert.Equal(t, []string{"open", "accepted"}, f.Conditions[0].Values)
	assert.Equal(t, OpIsNull, f.Conditions[1].Op)

	f, err = ParseFilter("  ")
	require.NoError(t, err)
	assert.Empty(t, f.Conditions)
}

func TestParseFilter_Rejects(t *testing.T) {
	for _, raw := range []string{
		"status",
		"status=open",
		"status=like.op%",
		"status=in.open",
		"fundi_id=is.true",
		"=eq.x",
	} {
		_, err := ParseFilter(raw)
		assert.Error(t, err, raw)
	}
}

func TestFilterMatch(t *testing.T) {
	row := map[string]interface{}{
		"sender_id":    "a",
		"recipient_id": "b",
		"budget":       float64(45000),
		"fundi_id":     nil,
		"status":       "open",
	}

	cases := []struct {
		filter string
		want   bool
	}{
		{"", true},
		{"sender_id=eq.a,recipient_id=eq.b", true},
		{"sender_id=eq.b,recipient_id=eq.a", false},
		{"budget=eq.45000", true},
		{"status=neq.open", false},
		{"status=neq.completed", true},
		{"status=in.(open,accepted)", true},
		{"status=in.(completed)", false},
		{"fundi_id=is.null", true},
		{"missing=is.null", true},
		{"sender_id=is.null", false},
		{"fundi_id=eq.x", false},
	}
	for _, tc := range cases {
		f, err := ParseFilter(tc.filter)
		require.NoError(t, err, tc.filter)
		assert.Equal(t, tc.want, f.Match(row), tc.filter)
	}
}
