package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindsMatchThroughWrapping(t *testing.T) {
	err := fmt.Errorf("transition: %w", Conflict("unit %s already occupied", "u1"))

	assert.True(t, errors.Is(err, ErrConflict))
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, "unit u1 already occupied", MessageOf(err))
}

func TestUpstreamKeepsCause(t *testing.T) {
	cause := errors.New("dial tcp: timeout")
	err := Upstream("electricity board unavailable", cause)

	assert.ErrorIs(t, err, ErrUpstream)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "electricity board unavailable: dial tcp: timeout", err.Error())
}

func TestDeniedCarriesDetails(t *testing.T) {
	details := map[string]string{"status": "UNPAID"}
	err := fmt.Errorf("wrapped: %w", Denied("bill unpaid", details))

	assert.ErrorIs(t, err, ErrDenied)
	assert.Equal(t, details, DetailsOf(err))
	assert.Nil(t, DetailsOf(errors.New("plain")))
}
