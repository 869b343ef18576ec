package handlers

import (
	"net/http"

	"github.com/ruralpay/accounts/internal/middleware"
)

// authorizeUser rejects requests acting for a user other than the one in
// the bearer token. Without auth middleware every request passes.
func authorizeUser(w http.ResponseWriter, r *http.Request, userID int64) bool {
	tokenUser, ok := middleware.UserIDFromContext(r.Context())
	if !ok || tokenUser == userID {
		return true
	}
	SendErrorResponse(w, codeForbidden, "Token does not belong to the requested user", http.StatusForbidden, nil)
	return false
}
