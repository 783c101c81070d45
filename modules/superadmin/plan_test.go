package superadmin

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCreatePlanValidation(t *testing.T) {
	t.Parallel()

	svc := NewService(NewRepository(nil), nil, nil, nil, slog.New(slog.DiscardHandler))
	ctx := context.Background()

	cases := []struct {
		name string
		in   CreatePlanInput
	}{
		{"missing id", CreatePlanInput{Name: "Básico"}},
		{"missing name", CreatePlanInput{ID: "basic"}},
		{"uppercase id", CreatePlanInput{ID: "Basic", Name: "Básico"}},
		{"id with spaces", CreatePlanInput{ID: "plan basico", Name: "Básico"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := svc.CreatePlan(ctx, tc.in)
			require.ErrorIs(t, err, ErrInvalidPlan)
		})
	}
}

func TestUpdatePlanRequiresFields(t *testing.T) {
	t.Parallel()

	svc := NewService(NewRepository(nil), nil, nil, nil, slog.New(slog.DiscardHandler))
	_, err := svc.UpdatePlan(context.Background(), "basic", PlanUpdate{})
	require.ErrorIs(t, err, ErrNoFieldsToUpdate)
}
