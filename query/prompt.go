package query

import (
	"fmt"
	"strings"

	"github.com/LLabsTech/EstateSearchAI/vectorindex"
)

const systemPrompt = `You are a helpful real estate assistant for a property listing service.
Answer the user's question using only the property listings provided below.
Listings are ordered from most to least relevant. Refer to properties by
their listing number. If no listings are provided, say that no matching
properties were found and suggest the user broaden their search. Do not
invent properties or details that are not in the listings.`

const noMatchContext = "No matching property listings were found for this query."

// buildPrompt assembles the grounded prompt: instructions, the retrieved
// listings in rank order with their match percentage, then the user's
// question.
func buildPrompt(queryText string, matches []vectorindex.Match) string {
	var b strings.Builder

	b.WriteString(systemPrompt)
	b.WriteString("\n\n")

	if len(matches) == 0 {
		b.WriteString(noMatchContext)
		b.WriteString("\n")
	} else {
		for i, match := range matches {
			fmt.Fprintf(&b, "Listing %d (%.0f%% match):\n", i+1, match.Score*100)
			summary := match.Meta.Summary
			if summary == "" {
				summary = fmt.Sprintf("Property %s in %s", match.ID, match.Meta.Town)
			}
			b.WriteString(summary)
			b.WriteString("\n\n")
		}
	}

	b.WriteString("\nQuestion: ")
	b.WriteString(queryText)
	b.WriteString("\nAnswer:")

	return b.String()
}
