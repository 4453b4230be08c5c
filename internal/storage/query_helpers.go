package storage

import "strings"

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes s match literally inside a LIKE pattern that declares
// ESCAPE '\'.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
