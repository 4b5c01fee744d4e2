package graph

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapNilIsNil(t *testing.T) {
	assert.NoError(t, Wrap(KindQuery, "op", nil))
}

func TestWrapAndKindOf(t *testing.T) {
	cause := errors.New("disk full")
	err := Wrap(KindConnection, "open", cause)

	kind, ok := KindOf(err)
	assert.True(t, ok)
	assert.Equal(t, KindConnection, kind)
	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "disk full")
}

func TestKindOfOnPlainError(t *testing.T) {
	_, ok := KindOf(errors.New("plain"))
	assert.False(t, ok)
}

func TestConstructorHelpers(t *testing.T) {
	assert.True(t, Is(NotFoundf("node %d", 5), KindNotFound))
	assert.True(t, Is(InvalidInputf("bad"), KindInvalidInput))
	assert.True(t, Is(Queryf("bad query"), KindQuery))
	assert.True(t, Is(Connectionf("bad conn"), KindConnection))
	assert.True(t, Is(Schemaf("bad schema"), KindSchema))
}
