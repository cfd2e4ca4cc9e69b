package dbtypes

import (
	"database/sql/driver"
	"fmt"
	"sort"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/schema"

	"github.com/angelmondragon/stockpos-backend/pkg/enums"
)

// PermissionSet is a deduplicated set of permissions stored as a postgres
// text[] literal ({a,b}). On sqlite the same literal lives in a TEXT column.
type PermissionSet []enums.Permission

// NewPermissionSet builds a sorted set, rejecting unknown permissions.
func NewPermissionSet(values ...string) (PermissionSet, error) {
	seen := make(map[enums.Permission]struct{}, len(values))
	out := make(PermissionSet, 0, len(values))
	for _, raw := range values {
		p, err := enums.ParsePermission(strings.TrimSpace(raw))
		if err != nil {
			return nil, err
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

// Has reports whether p is granted by the set.
func (s PermissionSet) Has(p enums.Permission) bool {
	for _, candidate := range s {
		if candidate == p {
			return true
		}
	}
	return false
}

// Strings returns the raw permission names.
func (s PermissionSet) Strings() []string {
	out := make([]string, 0, len(s))
	for _, p := range s {
		out = append(out, string(p))
	}
	return out
}

func (PermissionSet) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	if db != nil && db.Dialector != nil && db.Dialector.Name() == "postgres" {
		return "text[]"
	}
	return "text"
}

func (s *PermissionSet) Scan(src any) error {
	if src == nil {
		*s = PermissionSet{}
		return nil
	}

	switch v := src.(type) {
	case string:
		return s.parseFromString(v)
	case []byte:
		return s.parseFromString(string(v))
	default:
		return fmt.Errorf("PermissionSet: unsupported Scan type %T", src)
	}
}

func (s PermissionSet) Value() (driver.Value, error) {
	if len(s) == 0 {
		return "{}", nil
	}
	return "{" + strings.Join(s.Strings(), ",") + "}", nil
}

func (s *PermissionSet) parseFromString(raw string) error {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "{")
	raw = strings.TrimSuffix(raw, "}")
	if strings.TrimSpace(raw) == "" {
		*s = PermissionSet{}
		return nil
	}

	parts := strings.Split(raw, ",")
	for i, part := range parts {
		parts[i] = strings.Trim(strings.TrimSpace(part), `"`)
	}
	set, err := NewPermissionSet(parts...)
	if err != nil {
		return fmt.Errorf("PermissionSet: %w", err)
	}
	*s = set
	return nil
}
