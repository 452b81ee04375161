package search

import "strings"

// Stop words to filter out when computing term overlap
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "be": true, "is": true, "are": true,
	"was": true, "to": true, "of": true, "and": true, "in": true, "that": true,
	"have": true, "it": true, "for": true, "not": true, "on": true, "with": true,
	"as": true, "you": true, "do": true, "at": true, "this": true, "but": true,
	"by": true, "from": true,
}

// normalizeWords splits text into words, lowercases and trims punctuation.
func normalizeWords(text string) []string {
	words := strings.Fields(text)
	cleaned := make([]string, 0, len(words))

	for _, word := range words {
		w := strings.ToLower(strings.Trim(word, ".,!?;:'\"-()[]{}"))
		if w != "" {
			cleaned = append(cleaned, w)
		}
	}

	return cleaned
}

// filterTerms drops stop words and single-character terms.
func filterTerms(words []string) []string {
	filtered := make([]string, 0, len(words))
	for _, w := range words {
		if len(w) > 1 && !stopWords[w] {
			filtered = append(filtered, w)
		}
	}
	return filtered
}

// termOverlapRatio returns the fraction of filtered query terms that
// appear anywhere in the document. Returns 0 when the query has no
// usable terms.
func termOverlapRatio(document, query string) float64 {
	queryTerms := filterTerms(normalizeWords(query))
	if len(queryTerms) == 0 {
		return 0
	}

	docWords := normalizeWords(document)
	docSet := make(map[string]bool, len(docWords))
	for _, w := range docWords {
		docSet[w] = true
	}

	matched := 0
	for _, term := range queryTerms {
		if docSet[term] {
			matched++
		}
	}

	return float64(matched) / float64(len(queryTerms))
}

// phraseBoost scores exact multi-word matches: 0.25 per distinct
// 2-gram or 3-gram of the query found as a literal substring of the
// document, capped at 1.0. Exact phrase hits (names, identifiers) are
// a much stronger signal than bag-of-words overlap.
func phraseBoost(document, query string) float64 {
	words := normalizeWords(query)
	if len(words) < 2 {
		return 0
	}

	doc := strings.ToLower(document)
	seen := make(map[string]bool)
	boost := 0.0

	addGram := func(gram string) {
		if seen[gram] {
			return
		}
		seen[gram] = true
		if strings.Contains(doc, gram) {
			boost += 0.25
		}
	}

	for i := 0; i+1 < len(words); i++ {
		addGram(words[i] + " " + words[i+1])
		if i+2 < len(words) {
			addGram(words[i] + " " + words[i+1] + " " + words[i+2])
		}
	}

	if boost > 1.0 {
		boost = 1.0
	}
	return boost
}
