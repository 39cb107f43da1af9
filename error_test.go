package cpbrules_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/fwojciec/cpbrules"
	"github.com/stretchr/testify/assert"
)

func TestErrorf(t *testing.T) {
	t.Parallel()

	err := cpbrules.Errorf(cpbrules.EHEADING, "heading %q not found", "Policy")

	assert.Equal(t, cpbrules.EHEADING, cpbrules.ErrorCode(err))
	assert.Equal(t, "heading \"Policy\" not found", cpbrules.ErrorMessage(err))
	assert.NoError(t, err.Err)
}

func TestErrorf_WrapsCause(t *testing.T) {
	t.Parallel()

	cause := errors.New("unexpected end of JSON input")
	err := cpbrules.Errorf(cpbrules.EMALFORMED, "response is not valid JSON: %w", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "response is not valid JSON: unexpected end of JSON input", err.Error())
}

func TestErrorCode(t *testing.T) {
	t.Parallel()

	t.Run("nil error", func(t *testing.T) {
		t.Parallel()
		assert.Empty(t, cpbrules.ErrorCode(nil))
	})

	t.Run("non-application error is internal", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, cpbrules.EINTERNAL, cpbrules.ErrorCode(errors.New("boom")))
	})

	t.Run("finds code through wrapping", func(t *testing.T) {
		t.Parallel()
		err := &cpbrules.StageError{
			Stage: cpbrules.StageExtracting,
			Err:   fmt.Errorf("extract: %w", cpbrules.Errorf(cpbrules.ECONTAINER, "no list")),
		}
		assert.Equal(t, cpbrules.ECONTAINER, cpbrules.ErrorCode(err))
		assert.Equal(t, "no list", cpbrules.ErrorMessage(err))
	})
}

func TestErrorMessage_NilError(t *testing.T) {
	t.Parallel()

	assert.Empty(t, cpbrules.ErrorMessage(nil))
}

func TestErrorMessage_NonApplicationError(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Internal error.", cpbrules.ErrorMessage(errors.New("boom")))
}

func TestIsPermanent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"client error status", cpbrules.Errorf(cpbrules.EFETCH, "HTTP 404"), true},
		{"invalid input", cpbrules.Errorf(cpbrules.EINVALID, "bad url"), true},
		{"request timeout", fmt.Errorf("get: %w", context.DeadlineExceeded), false},
		{"server error status", cpbrules.Errorf(cpbrules.EUNAVAILABLE, "HTTP 503"), false},
		{"network error", errors.New("connection reset by peer"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, cpbrules.IsPermanent(tt.err))
		})
	}
}
