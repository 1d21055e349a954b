package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDataErrorMatchesDataUnavailable(t *testing.T) {
	cause := fmt.Errorf("connection reset")
	err := Wrap(NewDataError("quote", "AAPL", "fetch failed", cause), "analyzing AAPL")

	assert.True(t, Is(err, ErrDataUnavailable))
	assert.True(t, Is(err, cause))
	assert.False(t, IsFatal(err))
	assert.Contains(t, err.Error(), "data error [quote] AAPL")
}

func TestRunErrorFatal(t *testing.T) {
	err := NewRunError("run-1", "regime", Wrapf(ErrRegimeUnavailable, "benchmark %s", "SPY"))

	assert.True(t, IsFatal(err))
	var runErr *RunError
	assert.True(t, As(err, &runErr))
	assert.Equal(t, "regime", runErr.Stage)
}

func TestValidationErrorMatchesSentinel(t *testing.T) {
	err := Join(NewValidationError("account_size", -1, "must be positive"), nil)
	assert.True(t, Is(err, ErrValidationFailed))
	assert.Nil(t, Wrap(nil, "ignored"))
}
