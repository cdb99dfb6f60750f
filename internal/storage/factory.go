package storage

import "strings"

// New picks the backend from the path: .json files use JSONStore, anything
// else is a SQLite database.
func New(path string) Provider {
	if strings.HasSuffix(strings.ToLower(path), ".json") {
		return NewJSONStore(path)
	}
	return NewSQLiteStore(path)
}
