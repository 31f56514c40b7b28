package jwt

import (
	"strconv"

	"github.com/Laisky/errors/v2"
	"github.com/golang-jwt/jwt/v5"
)

// UserClaims claims of a blog author token, Subject is the user id
type UserClaims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
}

// UserID parse user id from subject
func (uc *UserClaims) UserID() (uint, error) {
	id, err := strconv.ParseUint(uc.Subject, 10, 64)
	if err != nil || id == 0 {
		return 0, errors.Wrapf(ErrInvalidToken, "bad subject %q", uc.Subject)
	}

	return uint(id), nil
}
