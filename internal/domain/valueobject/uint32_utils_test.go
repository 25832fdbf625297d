package valueobject

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClampUintToUint32(t *testing.T) {
	assert.Equal(t, uint32(0), ClampUintToUint32(0))
	assert.Equal(t, uint32(42), ClampUintToUint32(42))
	assert.Equal(t, MaxUint32, ClampUintToUint32(uint(MaxUint32)))

	if strconv.IntSize == 64 {
		big := uint(MaxUint32)
		big++
		assert.Equal(t, MaxUint32, ClampUintToUint32(big))
	}
}
