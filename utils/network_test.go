package utils

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsValidIP(t *testing.T) {
	assert.True(t, IsValidIP("10.0.0.5"))
	assert.True(t, IsValidIP("2001:db8::1"))
	assert.False(t, IsValidIP("evil.example"))
	assert.False(t, IsValidIP(""))
	assert.False(t, IsValidIP("256.1.1.1"))
	assert.False(t, IsValidIP("10.0.0.0/8"))
}

func TestIsInNetwork(t *testing.T) {
	ok, err := IsInNetwork("192.168.10.4", "192.168.0.0/16")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = IsInNetwork("10.1.2.3", "192.168.0.0/16")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = IsInNetwork("2001:db8::1", "192.168.0.0/16")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = IsInNetwork("2001:db8::1", "2001:db8::/32")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestIsInNetworkInvalid(t *testing.T) {
	_, err := IsInNetwork("not-an-ip", "10.0.0.0/8")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidAddress))

	var addrErr *InvalidAddressError
	require.True(t, errors.As(err, &addrErr))
	assert.Equal(t, "not-an-ip", addrErr.Address)

	_, err = IsInNetwork("10.0.0.1", "10.0.0.0/33")
	assert.True(t, errors.Is(err, ErrInvalidAddress))

	_, err = IsInNetwork("10.0.0.1", "10.0.0.1/8")
	assert.True(t, errors.Is(err, ErrInvalidAddress), "host bits set")
}

func TestNetworks(t *testing.T) {
	nets, err := ParseNetworks([]string{"10.0.0.0/8", " 172.16.0.0/12"})
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.0/8,172.16.0.0/12", nets.String())

	ok, err := nets.Contains("172.20.1.1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = nets.Contains("8.8.8.8")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = ParseNetworks([]string{"10.0.0.0/8", "bogus"})
	assert.True(t, errors.Is(err, ErrInvalidAddress))
}
