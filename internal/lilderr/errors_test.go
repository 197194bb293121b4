package lilderr

import (
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewHasNoCause(t *testing.T) {
	err := New(Validation, "bad name %q", "x y")
	assert.Equal(t, "validation: bad name \"x y\"", err.Error())
	assert.Nil(t, err.Unwrap())
}

func TestWrapPreservesCause(t *testing.T) {
	err := Wrap(IO, os.ErrNotExist, "reading metadata")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestIsMatchesWrappedKind(t *testing.T) {
	base := New(Config, "missing LILDB_ROOT")
	wrapped := Wrap(Internal, base, "startup failed")

	assert.True(t, Is(wrapped, Internal))
	assert.True(t, errors.As(wrapped, new(*Error)))
}
