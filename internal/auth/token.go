package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// JWTTokenGenerator mints and validates HS256 tokens. The signing secret
// lives in process configuration and is never embedded in the token.
type JWTTokenGenerator struct {
	Secret         []byte
	Issuer         string
	Audience       string
	AccessTokenTTL time.Duration

	// TimeFunc overrides the clock used for claims and validation.
	// Nil means time.Now.
	TimeFunc func() time.Time
}

func NewJWTTokenGenerator(secret, issuer, audience string, accessTTL time.Duration) *JWTTokenGenerator {
	return &JWTTokenGenerator{
		Secret:         []byte(secret),
		Issuer:         issuer,
		Audience:       audience,
		AccessTokenTTL: accessTTL,
	}
}

func (j *JWTTokenGenerator) now() time.Time {
	if j.TimeFunc != nil {
		return j.TimeFunc()
	}
	return time.Now()
}

// GenerateAccessToken creates a signed token carrying iss, sub, aud, exp,
// nbf, iat and a unique jti.
func (j *JWTTokenGenerator) GenerateAccessToken(userID string, username string) (string, time.Time, error) {
	now := j.now()
	expiresAt := now.Add(j.AccessTokenTTL)

	claims := &Claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    j.Issuer,
			Subject:   userID,
			Audience:  jwt.ClaimStrings{j.Audience},
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(j.Secret)
	if err != nil {
		return "", time.Time{}, err
	}

	return tokenString, expiresAt, nil
}

// ValidateToken verifies the signature and the time-bound claims and returns
// the parsed claims. It performs no mutation and distinguishes an expired
// token from any other invalid one.
func (j *JWTTokenGenerator) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return j.Secret, nil
	},
		jwt.WithIssuer(j.Issuer),
		jwt.WithAudience(j.Audience),
		jwt.WithTimeFunc(j.now),
	)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
