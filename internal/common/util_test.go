package common

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMakeRandHexString(t *testing.T) {
	for _, size := range []int{0, 1, 16, 32} {
		s, err := MakeRandHexString(size)
		require.NoError(t, err)
		assert.Len(t, s, size*2)

		b, err := hex.DecodeString(s)
		require.NoError(t, err)
		assert.Len(t, b, size)
	}
}

func TestMakeRandHexString_Distinct(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		s, err := MakeRandHexString(16)
		require.NoError(t, err)
		_, dup := seen[s]
		require.False(t, dup, "lock token repeated: %s", s)
		seen[s] = struct{}{}
	}
}

func TestGenerateRandByteArray(t *testing.T) {
	a := GenerateRandByteArray(20)
	b := GenerateRandByteArray(20)

	assert.Len(t, a, 20)
	assert.Len(t, b, 20)
	assert.NotEqual(t, a, b)
	assert.Empty(t, GenerateRandByteArray(0))
}
