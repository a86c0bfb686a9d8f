package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	for _, valid := range []string{"Pending", "Processing", "Completed", "Cancelled"} {
		st, err := ParseStatus(valid)
		require.NoError(t, err)
		assert.Equal(t, Status(valid), st)
	}

	for _, invalid := range []string{"", "pending", "Shipped", "PENDING", "Done"} {
		_, err := ParseStatus(invalid)

		var invErr *InvalidStatusError
		require.ErrorAs(t, err, &invErr, "value %q", invalid)
		assert.Equal(t, invalid, invErr.Value)
	}
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from Status
		to   Status
		want bool
	}{
		{StatusPending, StatusProcessing, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusCompleted, false},
		{StatusProcessing, StatusCompleted, true},
		{StatusProcessing, StatusCancelled, true},
		{StatusProcessing, StatusPending, false},
		{StatusCompleted, StatusPending, false},
		{StatusCompleted, StatusProcessing, false},
		{StatusCompleted, StatusCancelled, false},
		{StatusCancelled, StatusPending, false},
		{StatusCancelled, StatusProcessing, false},
		{StatusCancelled, StatusCompleted, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.from.CanTransition(tt.to),
			"%s -> %s", tt.from, tt.to)
	}
}

func TestCanTransition_SameStatus(t *testing.T) {
	// Reapplying the current status is always permitted, including on
	// terminal states.
	for _, st := range []Status{StatusPending, StatusProcessing, StatusCompleted, StatusCancelled} {
		assert.True(t, st.CanTransition(st), "%s -> %s", st, st)
	}
}
