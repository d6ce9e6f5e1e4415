// internal/utils/utils_test.go
package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/licensechain/internal/models"
)

func TestJWTCarriesOnlyAddress(t *testing.T) {
	SetJWTSecret("test-secret")
	address := "0xAbC0000000000000000000000000000000000001"

	token, err := GenerateJWT(address, 1)
	require.NoError(t, err)

	claims, err := ValidateJWT(token)
	require.NoError(t, err)
	assert.Equal(t, strings.ToLower(address), claims.Address)
	assert.Equal(t, "licensechain", claims.Issuer)

	SetJWTSecret("other-secret")
	_, err = ValidateJWT(token)
	assert.Error(t, err)
}

func TestExpiredJWT(t *testing.T) {
	SetJWTSecret("test-secret")
	claims := WalletClaims{
		Address: "0xabc0000000000000000000000000000000000001",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(jwtSecret)
	require.NoError(t, err)

	_, err = ValidateJWT(token)
	require.Error(t, err)
	assert.True(t, IsTokenExpired(err))
}

func TestGenerateNonce(t *testing.T) {
	a, err := GenerateNonce()
	require.NoError(t, err)
	b, err := GenerateNonce()
	require.NoError(t, err)

	assert.Len(t, a, 32)
	assert.NotEqual(t, a, b)
}

func TestPaginateSlice(t *testing.T) {
	items := []int{9, 8, 7, 6, 5}

	page := PaginateSlice(items, PaginationParams{Page: 2, Limit: 2})
	assert.Equal(t, []int{7, 6}, page.Data)
	assert.Equal(t, int64(5), page.Total)
	assert.Equal(t, 3, page.TotalPages)

	past := PaginateSlice(items, PaginationParams{Page: 4, Limit: 2})
	assert.Empty(t, past.Data)
}

func TestValidateDraft(t *testing.T) {
	draft := models.ApplicationDraft{
		BusinessName:    "Acme",
		RegNumber:       "RC-1",
		Email:           "not-an-email",
		PhysicalAddress: "1 Market Street",
		Description:     "Shop",
		LicenseType:     "Trading",
		Sector:          "Retail",
	}

	err := ValidateStruct(&draft)
	require.Error(t, err)

	fields := map[string]string{}
	for _, e := range GetValidationErrors(err) {
		fields[e.Field] = e.Tag
	}
	assert.Equal(t, "email", fields["email"])
	assert.Equal(t, "required", fields["document"])
}

func TestValidateEthAddress(t *testing.T) {
	type request struct {
		Address string `validate:"required,eth_address"`
	}

	assert.NoError(t, ValidateStruct(&request{Address: "0x1000000000000000000000000000000000000001"}))

	err := ValidateStruct(&request{Address: "0x123"})
	require.Error(t, err)
	assert.Equal(t, "eth_address", GetValidationErrors(err)[0].Tag)
}
