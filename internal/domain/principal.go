package domain

// PrincipalKind describes the class of account a caller authenticated as.
type PrincipalKind string

const (
	PrincipalKindUser  PrincipalKind = "user"
	PrincipalKindAdmin PrincipalKind = "admin"
)

// Principal captures normalized caller identity independent of auth mechanism.
// Two principals are distinct owners unless both ID and Kind match, so a user
// and an admin with the same ID never see each other's data.
type Principal struct {
	ID       string
	Kind     PrincipalKind
	Username string
	Email    string
}

// IsAdmin reports whether the principal authenticated as an admin account.
func (p Principal) IsAdmin() bool {
	return p.Kind == PrincipalKindAdmin
}
