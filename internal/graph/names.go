package graph

import (
	"regexp"
	"strings"

	"github.com/gosimple/slug"
)

var labelPattern = regexp.MustCompile(`^[A-Z_][A-Z0-9_]*$`)

// TypeName turns an annotation label into a Neo4j label or relationship
// type: transliterated to ASCII, upper case, words joined by underscores.
// Labels that reduce to nothing, or start with a digit, get a T_ prefix.
func TypeName(semantic string) string {
	name := strings.ToUpper(strings.ReplaceAll(slug.Make(semantic), "-", "_"))
	if name == "" || !labelPattern.MatchString(name) {
		name = "T_" + name
	}
	return name
}
