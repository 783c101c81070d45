package password_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JuanEstebanAstaiza/ekklesia-admin/pkg/password"
)

func TestHashAndVerify(t *testing.T) {
	t.Parallel()

	h, err := password.Hash("s3cret-passw0rd")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-passw0rd", h)

	require.NoError(t, password.Verify("s3cret-passw0rd", h))
	require.ErrorIs(t, password.Verify("wrong", h), password.ErrMismatch)
}
