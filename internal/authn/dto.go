package authn

// Principal is the value emitted on a successful authentication. It carries
// no credential material; authorities are ROLE_-prefixed capability strings.
type Principal struct {
	UserID      int64    `json:"user_id"`
	Username    string   `json:"username"`
	Email       string   `json:"email"`
	FullName    string   `json:"full_name"`
	Authorities []string `json:"authorities"`
}

// HasAuthority reports whether the principal holds the given authority string.
func (p *Principal) HasAuthority(authority string) bool {
	if p == nil {
		return false
	}
	for _, candidate := range p.Authorities {
		if candidate == authority {
			return true
		}
	}
	return false
}
