package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindNotFound, KindOf(NotFound("pin not found")))
	assert.Equal(t, KindForbidden, KindOf(fmt.Errorf("wrapped: %w", Forbidden("no"))))
	assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))
}

func TestIs_MatchesOnKind(t *testing.T) {
	err := Conflict("already friends")
	assert.ErrorIs(t, err, ErrConflict)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestStore_KeepsCauseHidesIt(t *testing.T) {
	cause := errors.New("pq: duplicate key value")
	err := Store(cause, "failed to create pin")

	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrStoreFailure)
	assert.Equal(t, "failed to create pin", Message(err))
	assert.Equal(t, "internal server error", Message(cause))
}
