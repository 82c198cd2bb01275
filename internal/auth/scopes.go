package auth

import "errors"

// Known OAuth scopes used by the carbon service.
const (
	ScopeEmissionsWrite = "emissions:write"
	ScopeEmissionsRead  = "emissions:read"
	ScopeEmissionsAdmin = "emissions:admin"
)

var (
	// ErrForbidden is returned when the caller lacks the required scope.
	ErrForbidden = errors.New("insufficient scope")
	// ErrOtherUser is returned when a non-admin caller targets another user's records.
	ErrOtherUser = errors.New("cannot access another user's records")
)

// Authorize checks that claims carry scope and may act on userID. Admins may
// act on any user in their tenant; everyone else only on themselves. An empty
// userID skips the ownership check.
func Authorize(claims *Claims, scope, userID string) error {
	if claims == nil {
		return ErrMissingToken
	}
	admin := claims.HasScope(ScopeEmissionsAdmin)
	if !admin && !claims.HasScope(scope) {
		return ErrForbidden
	}
	if userID != "" && !admin && userID != claims.Subject {
		return ErrOtherUser
	}
	return nil
}
