package domain

import (
	"strings"
	"time"
)

type PersonalAccessToken struct {
	ID         int64
	TokenHash  string
	CustomerID int64
	Abilities  string
	ExpiresAt  *time.Time
}

// IsAdmin reports whether the token carries the admin ability, which
// allows acting on behalf of any customer.
func (t *PersonalAccessToken) IsAdmin() bool {
	for _, a := range strings.Split(t.Abilities, ",") {
		a = strings.TrimSpace(a)
		if a == "admin" || a == "*" {
			return true
		}
	}
	return false
}
