package chat

import (
	"fmt"
	"strings"
	"unicode/utf8"

	domdoc "github.com/kailas-cloud/civicdex/internal/domain/document"
	"github.com/kailas-cloud/civicdex/internal/usecase/search"
)

// ExcerptRunes is the paraphrase length taken from the top document.
const ExcerptRunes = 200

// Intent is the coarse question type used to pick an answer template.
type Intent string

// Question intents, matched in this order.
const (
	IntentProcess      Intent = "process"
	IntentRequirements Intent = "requirements"
	IntentTiming       Intent = "timing"
	IntentLocation     Intent = "location"
	IntentCost         Intent = "cost"
	IntentGeneral      Intent = "general"
)

var intentKeywords = []struct {
	intent Intent
	words  []string
}{
	{IntentProcess, []string{"how", "process", "procedure", "steps"}},
	{IntentRequirements, []string{"what", "requirements", "need", "required"}},
	{IntentTiming, []string{"when", "time", "deadline", "schedule"}},
	{IntentLocation, []string{"where", "location", "office", "contact"}},
	{IntentCost, []string{"cost", "fee", "price", "charge"}},
}

// ClassifyIntent picks the first intent whose keyword appears as a question token.
func ClassifyIntent(question string) Intent {
	tokens := make(map[string]struct{})
	for _, t := range search.Tokenize(question) {
		tokens[t] = struct{}{}
	}
	for _, ik := range intentKeywords {
		for _, w := range ik.words {
			if _, ok := tokens[w]; ok {
				return ik.intent
			}
		}
	}
	return IntentGeneral
}

func fallbackAnswer(question string) string {
	return fmt.Sprintf("I don't have specific Chicago documents to answer your question about '%s'. "+
		"Please try rephrasing your question or search for more specific terms.", question)
}

func composeAnswer(intent Intent, doc *domdoc.Document) string {
	authority := doc.Authority()
	if authority == "" {
		authority = "City of Chicago"
	}
	topic := strings.ReplaceAll(string(doc.Category()), "_", " ")
	lead := fmt.Sprintf("'%s' from the %s: %s...", doc.Title(), authority, excerpt(doc.Content(), ExcerptRunes))

	switch intent {
	case IntentProcess:
		return fmt.Sprintf("Based on the Chicago document %s To proceed, contact the %s directly "+
			"or visit their website for the complete process and requirements.", lead, authority)
	case IntentRequirements:
		return fmt.Sprintf("According to the Chicago data %s This document outlines the specific "+
			"requirements and regulations for %s in Chicago.", lead, topic)
	case IntentTiming:
		return fmt.Sprintf("Based on the Chicago data %s The document specifies timing "+
			"requirements and deadlines for %s in Chicago.", lead, topic)
	case IntentLocation:
		return fmt.Sprintf("According to the Chicago data %s For locations and contact details, "+
			"visit the %s website or contact them directly.", lead, authority)
	case IntentCost:
		return fmt.Sprintf("Based on the Chicago data %s This document contains information about "+
			"fees and costs associated with %s in Chicago.", lead, topic)
	default:
		return fmt.Sprintf("Based on the Chicago data %s This information relates to %s "+
			"and may help answer your question about Chicago civic matters.", lead, topic)
	}
}

// excerpt returns at most n runes of s with whitespace collapsed, cut back to
// the last word boundary when truncation lands inside a word.
func excerpt(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	cut := string(runes[:n])
	if runes[n] != ' ' {
		if i := strings.LastIndexByte(cut, ' '); i > 0 {
			cut = cut[:i]
		}
	}
	return strings.TrimRight(cut, " ")
}
