package auth

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type hs256Service struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func (h *hs256Service) Sign(userID int64, role string) (string, error) {
	if userID <= 0 {
		return "", errors.New("invalid user id")
	}
	now := h.now()

	claims := jwtClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    h.issuer,
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(h.ttl)),
		},
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(h.secret)
}

func (h *hs256Service) Verify(tokenString string) (Claims, error) {
	var parsed jwtClaims
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(h.issuer),
		jwt.WithExpirationRequired(),
	)
	_, err := parser.ParseWithClaims(tokenString, &parsed, func(t *jwt.Token) (any, error) {
		return h.secret, nil
	})
	if err != nil {
		return Claims{}, err
	}
	uid, err := strconv.ParseInt(parsed.Subject, 10, 64)
	if err != nil || uid <= 0 {
		return Claims{}, ErrInvalidSubject
	}
	return Claims{
		UserID: uid,
		Role:   parsed.Role,
	}, nil
}
