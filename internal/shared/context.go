package shared

import "context"

// Roles an employee can hold.
const (
	RoleAdmin = "ADMIN"
	RoleStaff = "STAFF"
)

// Principal is the authenticated employee behind a request.
type Principal struct {
	EmployeeID string
	Role       string
}

// IsAdmin reports whether the principal has the administrator role.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

type principalContextKey struct{}

// ContextWithPrincipal stores the principal in context.
func ContextWithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext extracts the principal from context.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalContextKey{}).(Principal)
	return p, ok && p.EmployeeID != ""
}

// ActorID returns the employee id of the caller, or "" for system actions.
func ActorID(ctx context.Context) string {
	p, _ := PrincipalFromContext(ctx)
	return p.EmployeeID
}
