package domain

// Identity is a resolved principal. It is rebuilt on every request.
type Identity struct {
	ID       string
	Username string
	Role     Role
	Extra    map[string]any
}

// ServicePrincipal is a caller authenticated with a service token.
type ServicePrincipal struct {
	Name string
}
