package qr

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTicketPNG(t *testing.T) {
	png, err := TicketPNG(42, 7, "B3")
	require.NoError(t, err)
	// PNG magic bytes
	require.Greater(t, len(png), 8)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, png[:4])

	_, err = TicketPNG(0, 7, "B3")
	assert.ErrorIs(t, err, ErrMissingDetails)
}

func TestTicketDataURL(t *testing.T) {
	url, err := TicketDataURL(42, 7, "B3")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "data:image/png;base64,"))
	assert.Greater(t, len(url), len("data:image/png;base64,"))
}

func TestTicketDataURL_MissingDetails(t *testing.T) {
	_, err := TicketDataURL(0, 7, "B3")
	assert.ErrorIs(t, err, ErrMissingDetails)

	_, err = TicketDataURL(42, 0, "B3")
	assert.ErrorIs(t, err, ErrMissingDetails)

	_, err = TicketDataURL(42, 7, "")
	assert.ErrorIs(t, err, ErrMissingDetails)
}
