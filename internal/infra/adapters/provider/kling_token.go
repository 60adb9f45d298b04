package provider

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// klingTokenIssuer mints the short-lived signed assertion the Kling API
// expects in place of a static key. Tokens are valid for 30 minutes with a
// 5-second clock-skew allowance and are regenerated per submission, never
// cached across requests.
type klingTokenIssuer struct {
	accessKey string
	secretKey []byte
}

func newKlingTokenIssuer(accessKey, secretKey string) *klingTokenIssuer {
	return &klingTokenIssuer{accessKey: accessKey, secretKey: []byte(secretKey)}
}

func (i *klingTokenIssuer) Issue() (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Issuer:    i.accessKey,
		ExpiresAt: jwt.NewNumericDate(now.Add(30 * time.Minute)),
		NotBefore: jwt.NewNumericDate(now.Add(-5 * time.Second)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.secretKey)
}
