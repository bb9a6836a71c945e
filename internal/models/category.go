package models

// Categories are the expense category IDs a client may set.
var Categories = []string{
	"food",
	"transport",
	"accommodation",
	"entertainment",
	"shopping",
	"health",
	"utilities",
	"education",
	"gifts",
	"sports",
	"travel",
	"other",
}

// IsCategory reports whether id is a known category. The empty string
// (uncategorized) is accepted.
func IsCategory(id string) bool {
	if id == "" {
		return true
	}
	for _, c := range Categories {
		if c == id {
			return true
		}
	}
	return false
}
