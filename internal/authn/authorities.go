package authn

import (
	"sort"
	"strings"

	"github.com/crado00/authkit/pkg/enums"
)

// authorityPrefix is applied here and nowhere else in the codebase.
const authorityPrefix = "ROLE_"

// ProjectAuthorities maps a role set onto authority strings, one per role,
// sorted for deterministic output.
func ProjectAuthorities(roles []enums.Role) []string {
	seen := make(map[string]struct{}, len(roles))
	out := make([]string, 0, len(roles))
	for _, role := range roles {
		authority := authorityPrefix + strings.ToUpper(role.String())
		if _, dup := seen[authority]; dup {
			continue
		}
		seen[authority] = struct{}{}
		out = append(out, authority)
	}
	sort.Strings(out)
	return out
}
