// internal/app/system/authz/authz.go
package authz

import (
	"net/http"
	"strings"

	"github.com/dalemusser/projectdash/internal/app/system/auth"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserCtx returns the user's role (lowercased), name, company ObjectID, and a
// found flag. If no user is present in context or the company ID is
// malformed, it returns "visitor", "", NilObjectID, false, so ok=true means a
// signed-in user scoped to a valid company.
func UserCtx(r *http.Request) (role string, name string, companyID primitive.ObjectID, ok bool) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		return "visitor", "", primitive.NilObjectID, false
	}
	companyID, err := primitive.ObjectIDFromHex(user.CompanyID)
	if err != nil {
		// Fail closed: a session without a company cannot see any data.
		return "visitor", "", primitive.NilObjectID, false
	}
	return strings.ToLower(user.Role), user.Name, companyID, true
}

// CompanyID returns the signed-in user's company id as hex, or "".
func CompanyID(r *http.Request) string {
	_, _, cid, ok := UserCtx(r)
	if !ok {
		return ""
	}
	return cid.Hex()
}

// IsAdmin reports whether the current request's user administers its company.
func IsAdmin(r *http.Request) bool {
	role, _, _, ok := UserCtx(r)
	return ok && role == auth.RoleAdmin
}

// HasAnyRole reports whether the current request's user has any of the given roles.
// Returns false if no user is present (i.e., not signed in).
func HasAnyRole(r *http.Request, roles ...string) bool {
	role, _, _, ok := UserCtx(r)
	if !ok {
		return false
	}
	for _, want := range roles {
		if role == strings.ToLower(strings.TrimSpace(want)) {
			return true
		}
	}
	return false
}

// Role returns the current user's role (lowercased) and whether a user is present.
func Role(r *http.Request) (string, bool) {
	role, _, _, ok := UserCtx(r)
	return role, ok
}
