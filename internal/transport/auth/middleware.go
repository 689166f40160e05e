package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"loan-api/internal/domain"
	"loan-api/internal/repository"
)

type ctxKey string

const (
	CustomerIDKey ctxKey = "customerID"
	AdminKey      ctxKey = "isAdmin"
)

// TokenMiddleware authenticates requests with a personal access token,
// from the Authorization header or (for websocket clients) the token
// query parameter, and puts the token's customer scope on the context.
func TokenMiddleware(tokenRepo *repository.PersonalAccessTokenRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var pat *domain.PersonalAccessToken

			authHeader := r.Header.Get("Authorization")
			if strings.HasPrefix(authHeader, "Bearer ") {
				plainToken := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
				if plainToken != "" {
					if p, err := tokenRepo.FindTokenByPlainToken(r.Context(), plainToken); err == nil {
						pat = p
					}
				}
			}

			if pat == nil {
				if token := r.URL.Query().Get("token"); token != "" {
					if p, err := tokenRepo.FindTokenByPlainToken(r.Context(), token); err == nil {
						pat = p
					}
				}
			}

			if pat == nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			if pat.ExpiresAt != nil && pat.ExpiresAt.Before(time.Now()) {
				http.Error(w, "Token expired", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), CustomerIDKey, pat.CustomerID)
			ctx = context.WithValue(ctx, AdminKey, pat.IsAdmin())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func GetCustomerID(ctx context.Context) (int64, error) {
	customerID, ok := ctx.Value(CustomerIDKey).(int64)
	if !ok {
		return 0, errors.New("customerID not found in context")
	}
	return customerID, nil
}

func IsAdmin(ctx context.Context) bool {
	isAdmin, ok := ctx.Value(AdminKey).(bool)
	return ok && isAdmin
}
