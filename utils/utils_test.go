package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClamp(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 5, Clamp(7, 0, 5))
	assert.Equal(t, 0, Clamp(-3, 0, 5))
	assert.Equal(t, 3, Clamp(3, 0, 5))
	assert.Equal(t, 1.5, Clamp(1.5, 0.0, 2.0))
	assert.Equal(t, uint8(108), Clamp(uint8(120), uint8(21), uint8(108)))
}

func TestLerp(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0.0, Lerp(0, 10, 0))
	assert.Equal(t, 10.0, Lerp(0, 10, 1))
	assert.Equal(t, 5.0, Lerp(0, 10, 0.5))
	assert.Equal(t, 7.0, Lerp(10, 4, 0.5))
}
