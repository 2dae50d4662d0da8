package postgres

import (
	"database/sql/driver"
	"fmt"
	"strings"
)

// stringArray is a minimal database/sql Scanner/Valuer for Postgres TEXT[]
// columns, used for neutral_groups.source_ids. Avoids pulling in lib/pq
// (absent from the dependency set) for a single array column.
type stringArray []string

func (a *stringArray) Scan(src interface{}) error {
	if src == nil {
		*a = nil
		return nil
	}
	var raw string
	switch v := src.(type) {
	case string:
		raw = v
	case []byte:
		raw = string(v)
	default:
		return fmt.Errorf("stringArray: unsupported scan type %T", src)
	}

	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "{")
	raw = strings.TrimSuffix(raw, "}")
	if raw == "" {
		*a = stringArray{}
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make(stringArray, len(parts))
	for i, p := range parts {
		p = strings.TrimSpace(p)
		p = strings.Trim(p, `"`)
		result[i] = p
	}
	*a = result
	return nil
}

func (a stringArray) Value() (driver.Value, error) {
	return pgArrayLiteral(a), nil
}

// pgArray adapts a *[]string destination for row.Scan against a TEXT[]
// column.
func pgArray(dest *[]string) *stringArray {
	return (*stringArray)(dest)
}

// pgArrayLiteral renders values as a Postgres array literal, e.g. {a,b,c}.
func pgArrayLiteral(values []string) string {
	escaped := make([]string, len(values))
	for i, v := range values {
		escaped[i] = `"` + strings.ReplaceAll(v, `"`, `\"`) + `"`
	}
	return "{" + strings.Join(escaped, ",") + "}"
}
