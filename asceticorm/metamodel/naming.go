package metamodel

import (
	"strings"
	"unicode"

	"github.com/jinzhu/inflection"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// TableName derives the default table of an entity: "AnnualLeave" -> "annual_leaves".
func TableName(entity string) string {
	return SnakeCase(inflection.Plural(entity))
}

// ColumnName derives the default column of an attribute: "startTime" -> "start_time".
func ColumnName(attribute string) string {
	return SnakeCase(attribute)
}

func SnakeCase(name string) string {
	var b strings.Builder
	runes := []rune(name)
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				b.WriteByte('_')
			}
		}
		b.WriteRune(r)
	}
	return cases.Lower(language.Und).String(b.String())
}

// LowerCamel turns an entity name into a variable-like name: "Departments" -> "department".
func LowerCamel(name string) string {
	singular := inflection.Singular(name)
	runes := []rune(singular)
	if len(runes) == 0 {
		return ""
	}
	head := 1
	for head < len(runes) && unicode.IsUpper(runes[head]) && (head+1 == len(runes) || unicode.IsUpper(runes[head+1])) {
		head++
	}
	return cases.Lower(language.Und).String(string(runes[:head])) + string(runes[head:])
}
