package expenses

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JuanEstebanAstaiza/ekklesia-admin/pkg/statemachine"
)

func TestNextStatus(t *testing.T) {
	tests := []struct {
		name    string
		current string
		event   statemachine.Event
		want    string
		wantErr bool
	}{
		{"approve pending", StatusPending, eventApprove, StatusApproved, false},
		{"reject pending", StatusPending, eventReject, StatusRejected, false},
		{"pay approved", StatusApproved, eventPay, StatusPaid, false},
		{"pay pending", StatusPending, eventPay, "", true},
		{"approve twice", StatusApproved, eventApprove, "", true},
		{"revive rejected", StatusRejected, eventApprove, "", true},
		{"pay paid", StatusPaid, eventPay, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := nextStatus(tt.current, tt.event)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidTransition)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFillMonths(t *testing.T) {
	t.Run("sparse year", func(t *testing.T) {
		out := fillMonths([]MonthlyTotal{
			{Month: 3, TotalCents: 150000, Count: 2},
			{Month: 11, TotalCents: 9900, Count: 1},
		})

		require.Len(t, out, 12)
		for i, m := range out {
			assert.Equal(t, i+1, m.Month)
		}
		assert.Equal(t, int64(150000), out[2].TotalCents)
		assert.Equal(t, int64(2), out[2].Count)
		assert.Equal(t, int64(9900), out[10].TotalCents)
		assert.Zero(t, out[0].TotalCents)
		assert.Zero(t, out[11].Count)
	})

	t.Run("empty year", func(t *testing.T) {
		out := fillMonths(nil)
		require.Len(t, out, 12)
		for i, m := range out {
			assert.Equal(t, MonthlyTotal{Month: i + 1}, m)
		}
	})
}
