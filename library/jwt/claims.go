package jwt

import (
	"time"

	gutils "github.com/Laisky/go-utils/v6"
	jwtLib "github.com/golang-jwt/jwt/v5"
)

// UserClaims session token payload, Subject is the user's hex id
type UserClaims struct {
	jwtLib.RegisteredClaims
	Role string `json:"role,omitempty"`
}

// NewUserClaims create claims for uid valid for ttl
func NewUserClaims(uid, role string, ttl time.Duration) *UserClaims {
	now := gutils.Clock.GetUTCNow()
	return &UserClaims{
		RegisteredClaims: jwtLib.RegisteredClaims{
			Subject:   uid,
			IssuedAt:  jwtLib.NewNumericDate(now),
			ExpiresAt: jwtLib.NewNumericDate(now.Add(ttl)),
		},
		Role: role,
	}
}
