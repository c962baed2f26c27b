package pagination

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeToken(t *testing.T) {
	valueDate := time.Date(2024, 5, 15, 0, 0, 0, 0, time.UTC)

	token := EncodeToken(valueDate, "line-42")
	assert.NotEmpty(t, token, "Token should not be empty")

	decodedDate, decodedID, err := DecodeToken(token)
	require.NoError(t, err)
	assert.Equal(t, valueDate, decodedDate)
	assert.Equal(t, "line-42", decodedID)

	// ids may contain the separator
	token = EncodeToken(valueDate, "a|b")
	_, decodedID, err = DecodeToken(token)
	require.NoError(t, err)
	assert.Equal(t, "a|b", decodedID)

	now := time.Now().UTC()
	_, _, err = DecodeToken(EncodeToken(now, "x"))
	assert.NoError(t, err)
}

func TestDecodeTokenError(t *testing.T) {
	_, _, err := DecodeToken("this is not base64!")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "base64 decode")

	// base64 of a date with no separator
	_, _, err = DecodeToken("MjAyMy0wNS0xNVQwMDowMDowMFo=")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "split")

	// base64 of "notadate|line-1"
	_, _, err = DecodeToken("bm90YWRhdGV8bGluZS0x")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "sort key parse")
}

func TestAfter(t *testing.T) {
	d1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	d2 := d1.AddDate(0, 0, 1)

	assert.True(t, After(d2, "a", d1, "z"))
	assert.False(t, After(d1, "z", d2, "a"))
	assert.True(t, After(d1, "b", d1, "a"))
	assert.False(t, After(d1, "a", d1, "a"))
}

func TestNormalizeLimit(t *testing.T) {
	assert.Equal(t, DefaultLimit, NormalizeLimit(0))
	assert.Equal(t, DefaultLimit, NormalizeLimit(-3))
	assert.Equal(t, 10, NormalizeLimit(10))
	assert.Equal(t, MaxLimit, NormalizeLimit(MaxLimit+1))
}
