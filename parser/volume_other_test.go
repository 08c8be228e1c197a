//go:build !windows

package parser

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOpenVolumeUnsupported(t *testing.T) {
	_, err := OpenVolume("c:")
	assert.True(t, errors.Is(err, ErrNotSupported))

	_, err = OpenVolume("bogus")
	assert.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotSupported))
}
