package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasCode(t *testing.T) {
	cause := errors.New("connection refused")
	wrapped := Wrap(cause, CodeUnavailable, "candidate retrieval failed")

	t.Run("matches direct code", func(t *testing.T) {
		assert.True(t, HasCode(wrapped, CodeUnavailable))
		assert.False(t, HasCode(wrapped, CodeInternal))
	})

	t.Run("matches through fmt wrapping", func(t *testing.T) {
		err := fmt.Errorf("screen: %w", wrapped)
		assert.True(t, HasCode(err, CodeUnavailable))
	})

	t.Run("matches inner domain error", func(t *testing.T) {
		inner := New(CodeNotFound, "subject not found")
		outer := Wrap(inner, CodeInternal, "lookup failed")
		assert.True(t, HasCode(outer, CodeNotFound))
		assert.False(t, Is(outer, CodeNotFound))
		assert.True(t, Is(outer, CodeInternal))
	})

	t.Run("plain errors have no code", func(t *testing.T) {
		assert.False(t, HasCode(cause, CodeUnavailable))
		assert.False(t, HasCode(nil, CodeUnavailable))
	})
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("boom")
	err := Wrap(cause, CodeInternal, "failed")

	assert.ErrorIs(t, err, cause)
	de, ok := From(err)
	require.True(t, ok)
	assert.Equal(t, CodeInternal, de.Code)
	assert.Equal(t, "internal_error: failed: boom", err.Error())
}
