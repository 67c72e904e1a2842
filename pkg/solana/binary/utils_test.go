package binary

import (
	"crypto/ed25519"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUintWidths(t *testing.T) {
	for _, width := range []int{1, 2, 4, 8} {
		buf := make([]byte, 1+width)

		var offset int
		PutUint8(buf, 7, &offset)
		PutUint(buf, 200, width, &offset)
		assert.Equal(t, len(buf), offset)

		var tag uint8
		var actual uint64
		offset = 0
		GetUint8(buf, &tag, &offset)
		GetUint(buf, &actual, width, &offset)
		assert.EqualValues(t, 7, tag)
		assert.EqualValues(t, 200, actual)
		assert.Equal(t, len(buf), offset)
	}

	assert.Panics(t, func() {
		var offset int
		PutUint(make([]byte, 8), 1, 3, &offset)
	})
}

func TestOptionalValues(t *testing.T) {
	key, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	value := uint64(0xdeadbeef)

	buf := make([]byte, 2*(1+ed25519.PublicKeySize)+2*(1+4))

	var offset int
	PutOptionalKey32(buf, key, &offset)
	PutOptionalKey32(buf, nil, &offset)
	PutOptionalUint(buf, &value, 4, &offset)
	PutOptionalUint(buf, nil, 4, &offset)
	assert.Equal(t, len(buf), offset)

	var someKey, noneKey ed25519.PublicKey
	var someValue, noneValue *uint64

	offset = 0
	require.NoError(t, GetOptionalKey32(buf, &someKey, &offset))
	require.NoError(t, GetOptionalKey32(buf, &noneKey, &offset))
	require.NoError(t, GetOptionalUint(buf, &someValue, 4, &offset))
	require.NoError(t, GetOptionalUint(buf, &noneValue, 4, &offset))

	assert.EqualValues(t, key, someKey)
	assert.Nil(t, noneKey)
	require.NotNil(t, someValue)
	assert.Equal(t, value, *someValue)
	assert.Nil(t, noneValue)

	buf[0] = 2
	offset = 0
	assert.Equal(t, ErrInvalidOptionFlag, GetOptionalKey32(buf, &someKey, &offset))
	assert.Equal(t, 0, offset)
}
