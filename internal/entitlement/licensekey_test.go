package entitlement

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashAndCompareLicenseKey(t *testing.T) {
	hash, err := HashLicenseKey("DODO-1234-5678-ABCD", bcrypt.MinCost)
	require.NoError(t, err)
	require.NotEqual(t, "DODO-1234-5678-ABCD", hash)

	assert.NoError(t, CompareLicenseKey(hash, "DODO-1234-5678-ABCD"))
	assert.Error(t, CompareLicenseKey(hash, "DODO-0000-0000-0000"))
}

func TestHashLicenseKeyClampsCost(t *testing.T) {
	hash, err := HashLicenseKey("key", 99)
	require.NoError(t, err)

	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.DefaultCost, cost)
}

func TestKeyLast4(t *testing.T) {
	assert.Equal(t, "ABCD", KeyLast4("DODO-1234-ABCD"))
	assert.Equal(t, "abc", KeyLast4("abc"))
	assert.Equal(t, "", KeyLast4(""))
}
