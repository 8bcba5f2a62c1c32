package qr

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

func TestPNG(t *testing.T) {
	data, err := PNG("https://pay.crypt.bot/invoices/IV123", 0)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, pngMagic))
}

func TestPNG_Empty(t *testing.T) {
	_, err := PNG("", 100)
	assert.Error(t, err)
}
