package entity

// Principal is an admin account that may pass the login gate.
type Principal struct {
	ID        int64
	Mobile    string
	FirstName string
	Password  string // hashed
	IsStaff   bool
	IsActive  bool
}

// CanAuthenticate reports whether the account may log into the admin console.
func (p *Principal) CanAuthenticate() bool {
	return p != nil && p.IsActive && p.IsStaff
}
