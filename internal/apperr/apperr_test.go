package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindNotFound, KindOf(NotFound("parcel %d gone", 7)))
	assert.Equal(t, KindInvalid, KindOf(Invalid("bad input")))
	assert.Equal(t, KindInvalidState, KindOf(InvalidState("sealed")))
	assert.Equal(t, KindForbidden, KindOf(Forbidden("nope")))
	assert.Equal(t, KindDuplicate, KindOf(Duplicate("again")))
	assert.Equal(t, Kind(""), KindOf(errors.New("plain")))
	assert.Equal(t, Kind(""), KindOf(nil))
}

func TestKindSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("loading parcel: %w", NotFound("parcel not found"))
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.True(t, IsKind(err, KindNotFound))
	assert.False(t, IsKind(err, KindForbidden))
}

func TestIsMatchesByKind(t *testing.T) {
	err := NotFound("parcel abc not found")
	assert.True(t, errors.Is(err, NotFound("")))
	assert.False(t, errors.Is(err, Forbidden("")))
}

func TestMessage(t *testing.T) {
	err := Invalid("weight must be greater than %d", 0)
	assert.Equal(t, "weight must be greater than 0", err.Error())
}
