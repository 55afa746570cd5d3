package dbtypes

import (
	"database/sql/driver"
	"fmt"
	"sort"
	"strings"

	"github.com/crado00/authkit/pkg/enums"
)

// RoleList persists a user's role set as a comma-joined text column. It keeps
// set semantics: no duplicates, stable sorted order on write.
type RoleList []enums.Role

func (l *RoleList) Scan(src any) error {
	if src == nil {
		*l = RoleList{}
		return nil
	}

	switch v := src.(type) {
	case string:
		return l.parseFromString(v)
	case []byte:
		return l.parseFromString(string(v))
	default:
		return fmt.Errorf("RoleList: unsupported Scan type %T", src)
	}
}

func (l RoleList) Value() (driver.Value, error) {
	if len(l) == 0 {
		return "", nil
	}
	normalized := l.normalized()
	parts := make([]string, 0, len(normalized))
	for _, role := range normalized {
		parts = append(parts, role.String())
	}
	return strings.Join(parts, ","), nil
}

func (l *RoleList) parseFromString(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		*l = RoleList{}
		return nil
	}

	raw := strings.Split(s, ",")
	out := make([]enums.Role, 0, len(raw))
	for _, r := range raw {
		role, err := enums.ParseRole(strings.TrimSpace(r))
		if err != nil {
			return fmt.Errorf("RoleList: %w", err)
		}
		out = append(out, role)
	}
	*l = RoleList(out).normalized()
	return nil
}

// Contains reports set membership.
func (l RoleList) Contains(role enums.Role) bool {
	for _, candidate := range l {
		if candidate == role {
			return true
		}
	}
	return false
}

// With returns a copy including role. Adding an existing member is a no-op.
func (l RoleList) With(role enums.Role) RoleList {
	if l.Contains(role) {
		return l.normalized()
	}
	return append(l.normalized(), role).normalized()
}

// Without returns a copy excluding role.
func (l RoleList) Without(role enums.Role) RoleList {
	out := make(RoleList, 0, len(l))
	for _, candidate := range l {
		if candidate != role {
			out = append(out, candidate)
		}
	}
	return out.normalized()
}

func (l RoleList) normalized() RoleList {
	seen := make(map[enums.Role]struct{}, len(l))
	out := make(RoleList, 0, len(l))
	for _, role := range l {
		if _, dup := seen[role]; dup {
			continue
		}
		seen[role] = struct{}{}
		out = append(out, role)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
