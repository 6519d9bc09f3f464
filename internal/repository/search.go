package repository

import "strings"

// likeEscape is the escape character used by every substring search.
const likeEscape = "!"

var likeReplacer = strings.NewReplacer(
	likeEscape, likeEscape+likeEscape,
	"%", likeEscape+"%",
	"_", likeEscape+"_",
)

// containsPattern turns a search term into a case-insensitive LIKE pattern
// that matches the term literally anywhere in a lowered column.
func containsPattern(term string) string {
	return "%" + likeReplacer.Replace(strings.ToLower(term)) + "%"
}

// likeAny builds "(LOWER(a) LIKE ? ESCAPE '!' OR ...)" over the given columns.
func likeAny(columns ...string) string {
	clauses := make([]string, len(columns))
	for i, column := range columns {
		clauses[i] = "LOWER(" + column + ") LIKE ? ESCAPE '" + likeEscape + "'"
	}
	return "(" + strings.Join(clauses, " OR ") + ")"
}
