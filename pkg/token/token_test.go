package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateAndParseJWT(t *testing.T) {
	tokenStr, err := GenerateJWT("member-abc", "textflow")
	assert.NoError(t, err)
	assert.NotEmpty(t, tokenStr)

	claims, err := ParseJWT(tokenStr)
	assert.NoError(t, err)
	assert.Equal(t, "member-abc", claims.MemberID)
	assert.Equal(t, "textflow", claims.Issuer)
}

func TestParseJWT_Invalid(t *testing.T) {
	_, err := ParseJWT("not-a-token")
	assert.Error(t, err)

	// 換一把 key 簽的 token 要驗不過
	original := JWTSecret
	JWTSecret = []byte("other_secret")
	forged, err := GenerateJWT("member-abc", "textflow")
	assert.NoError(t, err)
	JWTSecret = original

	_, err = ParseJWT(forged)
	assert.Error(t, err)
}
