package handler

import (
	"net/http"
	"strings"

	"github.com/go-faster/errors"
	"github.com/golang-jwt/jwt/v5"
)

// adminOnly guards administrative endpoints. The admin panel authenticates
// elsewhere and carries an HS256 bearer token; requests without a valid,
// unexpired token are rejected before any business logic runs.
func (h *Handler) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			writeMessage(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		if err := h.verifyAdminToken(token); err != nil {
			writeMessage(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		next(w, r)
	}
}

func bearerToken(r *http.Request) (string, bool) {
	auth := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(auth, "Bearer ")
	if !ok || token == "" {
		return "", false
	}
	return token, true
}

func (h *Handler) verifyAdminToken(raw string) error {
	token, err := jwt.Parse(raw,
		func(t *jwt.Token) (any, error) {
			return h.jwtSecret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return errors.Wrap(err, "parse token")
	}
	if !token.Valid {
		return errors.New("invalid token")
	}
	return nil
}
