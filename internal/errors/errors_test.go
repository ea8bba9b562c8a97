package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Error(t *testing.T) {
	t.Run("without cause", func(t *testing.T) {
		err := Usage("only one image is allowed, got %d", 3)
		assert.Equal(t, "[usage] only one image is allowed, got 3", err.Error())
	})

	t.Run("with cause", func(t *testing.T) {
		err := New(TypeProvider, "create tweet", fmt.Errorf("status 403"))
		assert.Equal(t, "[provider] create tweet: status 403", err.Error())
	})
}

func TestError_Is(t *testing.T) {
	err := fmt.Errorf("publish: %w", Configuration("images are not enabled"))

	assert.True(t, stderrors.Is(err, ErrConfiguration))
	assert.False(t, stderrors.Is(err, ErrUsage))
	assert.False(t, stderrors.Is(err, ErrProvider))
}

func TestWrap(t *testing.T) {
	t.Run("keeps stack of typed error", func(t *testing.T) {
		inner := New(TypeCredential, "create session", nil)
		outer := Wrap(inner, TypeProvider, "find posts")

		assert.Equal(t, inner.Stack, outer.Stack)
		assert.True(t, stderrors.Is(outer, ErrProvider))
		assert.True(t, stderrors.Is(outer, ErrCredential))
	})

	t.Run("plain error", func(t *testing.T) {
		cause := stderrors.New("boom")
		err := Wrap(cause, TypeProvider, "upload media")

		assert.ErrorIs(t, err, cause)
		assert.NotEmpty(t, err.Stack)
	})
}

func TestTypeOf(t *testing.T) {
	assert.Equal(t, TypeUsage, TypeOf(fmt.Errorf("x: %w", Usage("bad"))))
	assert.Equal(t, ErrorType(""), TypeOf(stderrors.New("plain")))
	assert.Equal(t, ErrorType(""), TypeOf(nil))
}
