package slug_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JuanEstebanAstaiza/ekklesia-admin/pkg/slug"
)

func TestValidate(t *testing.T) {
	t.Parallel()

	valid := []string{"iglesia-central", "a", "church-123", "0-0"}
	for _, s := range valid {
		require.NoError(t, slug.Validate(s), s)
	}

	invalid := []string{"", "Iglesia", "with space", "under_score", "café", "a.b", "UPPER"}
	for _, s := range invalid {
		require.ErrorIs(t, slug.Validate(s), slug.ErrInvalid, s)
	}
}

func TestMake(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{"Iglesia Central", "iglesia-central"},
		{"  Nueva   Iglesia  ", "nueva-iglesia"},
		{"Comunidad de Fe 2024", "comunidad-de-fe-2024"},
		{"---", ""},
		{"Already-Slugged", "already-slugged"},
	}
	for _, tc := range cases {
		got := slug.Make(tc.in)
		assert.Equal(t, tc.want, got, tc.in)
		if got != "" {
			assert.True(t, slug.IsValid(got))
		}
	}
}
