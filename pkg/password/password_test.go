package password_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/launderly/launderly/pkg/password"
)

func TestHashAndCompare(t *testing.T) {
	t.Parallel()

	hash, err := password.Hash("s3cret-enough")
	require.NoError(t, err)
	assert.NotContains(t, hash, "s3cret-enough")

	assert.NoError(t, password.Compare(hash, "s3cret-enough"))
	assert.ErrorIs(t, password.Compare(hash, "wrong-password"), password.ErrWrongPassword)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	assert.ErrorIs(t, password.Validate("short"), password.ErrTooShort)
	assert.ErrorIs(t, password.Validate(strings.Repeat("x", 73)), password.ErrTooLong)
	assert.NoError(t, password.Validate("long enough"))

	_, err := password.Hash("nope")
	assert.ErrorIs(t, err, password.ErrTooShort)
}
