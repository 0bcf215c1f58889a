package models

import "database/sql"

// NullInt64Ptr converts a nullable column into a pointer for JSON output.
func NullInt64Ptr(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}
