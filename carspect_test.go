package carspect_test

import (
	"errors"
	"testing"

	"github.com/AbhigyanVE/carspect"
	"github.com/stretchr/testify/assert"
)

func TestErrorf(t *testing.T) {
	t.Parallel()

	err := carspect.Errorf(carspect.ENOTFOUND, "no cache entry for %q", "https://x.com/a")

	assert.Equal(t, carspect.ENOTFOUND, carspect.ErrorCode(err))
	assert.Equal(t, "no cache entry for \"https://x.com/a\"", carspect.ErrorMessage(err))
}

func TestErrorCode_NilError(t *testing.T) {
	t.Parallel()

	assert.Empty(t, carspect.ErrorCode(nil))
}

func TestErrorCode_NonApplicationError(t *testing.T) {
	t.Parallel()

	assert.Equal(t, carspect.EINTERNAL, carspect.ErrorCode(errors.New("boom")))
}

func TestErrorMessage_NilError(t *testing.T) {
	t.Parallel()

	assert.Empty(t, carspect.ErrorMessage(nil))
}

func TestErrorMessage_NonApplicationError(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Internal error.", carspect.ErrorMessage(errors.New("boom")))
}
