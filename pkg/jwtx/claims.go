package jwtx

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the session-token claims used across the console. The custom
// fields mirror the persisted user record; InstanceID binds a token to the
// installation that minted it so a restored backup cannot replay old
// sessions.
type Claims struct {
	jwt.RegisteredClaims

	Username        string `json:"username"`
	Name            string `json:"name"`
	Admin           bool   `json:"admin"`
	InstanceID      string `json:"instanceId"`
	OtpLegacySecret bool   `json:"otpLegacySecret,omitempty"`
}

// NewClaims builds minimally-correct session claims with a fresh expiry.
func NewClaims(
	username, name string,
	admin bool,
	instanceID string,
	otpLegacySecret bool,
	jti string,
	ttl time.Duration,
	now time.Time,
) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        jti,
		},
		Username:        username,
		Name:            name,
		Admin:           admin,
		InstanceID:      instanceID,
		OtpLegacySecret: otpLegacySecret,
	}
}
