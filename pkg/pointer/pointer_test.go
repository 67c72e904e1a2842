package pointer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPointers(t *testing.T) {
	s := To("admin")
	require.NotNil(t, s)
	assert.Equal(t, "admin", *s)

	assert.Nil(t, IfValid(false, "admin"))
	assert.Equal(t, "admin", *IfValid(true, "admin"))

	fee := uint64(100)
	p := To(fee)
	fee = 200
	assert.EqualValues(t, 100, *p)

	assert.EqualValues(t, 100, ValueOr(p, 7))
	assert.EqualValues(t, 7, ValueOr[uint64](nil, 7))
}
