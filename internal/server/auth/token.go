package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/taskvault/taskvault/internal/common"
)

// Claims is the session credential payload: standard registered claims plus
// the subject user ID and the anti-forgery nonce bound to this session.
// The signature covers all of them, so neither can be swapped independently.
type Claims struct {
	jwt.RegisteredClaims
	UserID int64  `json:"uid"`
	Csrf   string `json:"csrf"`
}

// csrfTokenLength is the number of random bytes behind the anti-forgery
// nonce; the wire form is its hex encoding.
const csrfTokenLength = 32

// NewCsrfToken mints a fresh anti-forgery nonce. One nonce per session,
// generated at issuance and never reused.
func NewCsrfToken() (string, error) {
	return common.MakeRandHexString(csrfTokenLength)
}

// GenerateToken signs a session credential for userID carrying the given
// anti-forgery nonce, valid for validityDuration from now.
func GenerateToken(userID int64, csrfToken string, secretKey []byte, validityDuration time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validityDuration)),
		},
		UserID: userID,
		Csrf:   csrfToken,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// ParseToken verifies the signature and expiry of a session credential and
// returns its claims. Expired credentials yield common.ErrTokenExpired; any
// other defect yields common.ErrInvalidToken.
func ParseToken(tokenString string, secretKey []byte) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidToken
	}

	if !token.Valid {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}
