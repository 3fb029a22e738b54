package mockapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"cinema-booking-cli/model"
)

const userKey = "user"

// tokenClaims mirrors what the real API puts in its tokens.
type tokenClaims struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

func (s *Server) issueToken(user model.User) (string, error) {
	now := s.now()
	claims := tokenClaims{
		ID:       user.Id,
		Username: user.Username,
		Email:    user.Email,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *Server) parseToken(raw string) (model.User, error) {
	var claims tokenClaims
	token, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		return model.User{}, err
	}
	if !token.Valid || claims.ID <= 0 {
		return model.User{}, errors.New("invalid token")
	}
	return model.User{Id: claims.ID, Username: claims.Username, Email: claims.Email, Role: claims.Role}, nil
}

// requireUser rejects requests without a valid bearer token and stores the
// caller in the echo context.
func (s *Server) requireUser(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get(echo.HeaderAuthorization)
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			return c.JSON(http.StatusUnauthorized, echo.Map{"message": "missing bearer token"})
		}
		user, err := s.parseToken(strings.TrimSpace(raw))
		if err != nil {
			return c.JSON(http.StatusUnauthorized, echo.Map{"message": "invalid or expired token"})
		}
		c.Set(userKey, user)
		return next(c)
	}
}

func callerOf(c echo.Context) model.User {
	user, _ := c.Get(userKey).(model.User)
	return user
}

