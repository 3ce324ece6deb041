package testhelpers

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TestJWTSecret is the HS256 secret used by handler and auth tests.
const TestJWTSecret = "nutridive-test-secret"

// GenerateTestJWT signs an HS256 token for sub with TestJWTSecret, valid for an hour.
func GenerateTestJWT(sub, email string) string {
	return SignTestJWT(TestJWTSecret, jwt.MapClaims{
		"sub":   sub,
		"email": email,
		"iat":   time.Now().Unix(),
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
}

// SignTestJWT signs arbitrary claims with secret.
func SignTestJWT(secret string, claims jwt.MapClaims) string {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		panic(err)
	}
	return token
}

// GenerateTestJWTWithBearer returns the token with a "Bearer " prefix for the Authorization header.
func GenerateTestJWTWithBearer(sub, email string) string {
	return "Bearer " + GenerateTestJWT(sub, email)
}
