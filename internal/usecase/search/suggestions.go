package search

var suggestions = []string{
	"How do I get a building permit in Chicago?",
	"What are the business license requirements?",
	"What happened at the last city council meeting?",
	"What are the food inspection requirements?",
	"How much does a business license cost?",
	"What are the building violation penalties?",
	"Where can I find food inspection results?",
	"How do I contact the Department of Buildings?",
	"How do I get a zoning permit in Chicago?",
	"How do I apply for handicapped parking?",
	"What are the current zoning regulations?",
	"What are the parking regulations?",
	"What are the current ordinances?",
	"How do I get a liquor license?",
	"What are the current executive orders?",
	"How do I get a special event permit?",
}

// Suggestions returns up to limit canned example questions. limit <= 0 returns all.
func Suggestions(limit int) []string {
	n := len(suggestions)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]string, n)
	copy(out, suggestions[:n])
	return out
}
