// Package jwt signs and verifies session tokens.
package jwt

import (
	"github.com/Laisky/errors/v2"
	jwtLib "github.com/golang-jwt/jwt/v5"
)

// minSecretLen shorter secrets are refused
const minSecretLen = 16

// JWT HS256 signer
type JWT struct {
	secret []byte
	parser *jwtLib.Parser
}

// New create new JWT
func New(secret []byte) (*JWT, error) {
	if len(secret) < minSecretLen {
		return nil, errors.Errorf("jwt secret should be at least %d bytes", minSecretLen)
	}

	return &JWT{
		secret: secret,
		parser: jwtLib.NewParser(
			jwtLib.WithValidMethods([]string{jwtLib.SigningMethodHS256.Alg()}),
			jwtLib.WithIssuedAt(),
			jwtLib.WithExpirationRequired(),
		),
	}, nil
}

// Sign sign claims into token
func (j *JWT) Sign(claims *UserClaims) (string, error) {
	token, err := jwtLib.NewWithClaims(jwtLib.SigningMethodHS256, claims).SignedString(j.secret)
	if err != nil {
		return "", errors.Wrap(err, "sign token")
	}

	return token, nil
}

// Parse verify token and return its claims
func (j *JWT) Parse(token string) (*UserClaims, error) {
	claims := new(UserClaims)
	if _, err := j.parser.ParseWithClaims(token, claims, func(*jwtLib.Token) (any, error) {
		return j.secret, nil
	}); err != nil {
		return nil, errors.Wrap(err, "parse token")
	}

	if claims.Subject == "" {
		return nil, errors.New("token subject is empty")
	}

	return claims, nil
}
