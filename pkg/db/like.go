package db

import "strings"

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ContainsPattern lowercases search and wraps it for a substring LIKE, with
// the wildcards it contains matched literally. Queries must add ESCAPE '\'.
func ContainsPattern(search string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(search)) + "%"
}
