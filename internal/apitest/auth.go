package apitest

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/talkscribe/talkscribe-go/internal/models"
)

type ctxKey string

const accountKey ctxKey = "account"

type tokenClaims struct {
	Type string `json:"typ"`
	jwt.RegisteredClaims
}

// issuePairLocked mints an access/refresh pair for acc and records the
// refresh id as valid. Caller must hold s.mu.
func (s *Server) issuePairLocked(acc *account) models.TokenPair {
	now := time.Now()
	sub := strconv.FormatInt(acc.user.ID, 10)

	access := s.sign(tokenClaims{
		Type: "access",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(accessTTL)),
		},
	})

	jti := uuid.NewString()
	acc.refreshIDs[jti] = true
	refresh := s.sign(tokenClaims{
		Type: "refresh",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(refreshTTL)),
		},
	})

	return models.TokenPair{Access: access, Refresh: refresh}
}

func (s *Server) sign(claims tokenClaims) string {
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		panic(err) // HS256 signing cannot fail with a byte-slice key
	}
	return tok
}

// parseToken verifies the signature and expiry and checks the token type.
func (s *Server) parseToken(raw, wantType string) (*tokenClaims, error) {
	claims := &tokenClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if claims.Type != wantType {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

// bearerAuth enforces a valid access token and stores the owning account in
// the request context for downstream handlers.
func (s *Server) bearerAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || raw == "" {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		claims, err := s.parseToken(raw, "access")
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}
		userID, _ := strconv.ParseInt(claims.Subject, 10, 64)

		s.mu.Lock()
		acc, found := s.byID[userID]
		s.mu.Unlock()
		if !found {
			writeError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), accountKey, acc)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// accountFrom returns the authenticated account stored by bearerAuth.
func accountFrom(r *http.Request) *account {
	return r.Context().Value(accountKey).(*account)
}
