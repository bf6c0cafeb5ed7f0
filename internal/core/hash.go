package core

import (
	"crypto/sha256"
	"fmt"
	"strings"
)

// HashSchema computes a deterministic fingerprint of an ordered column set.
// Covers column names, order and types. Row data never affects the hash.
func HashSchema(columns []ColumnSpec) string {
	names := make([]string, len(columns))
	types := make([]string, len(columns))
	for i, c := range columns {
		names[i] = c.Name
		types[i] = c.Type.String()
	}

	h := sha256.New()
	fmt.Fprintf(h, "%s||%s", strings.Join(names, "|"), strings.Join(types, "|"))
	return fmt.Sprintf("%x", h.Sum(nil))
}
