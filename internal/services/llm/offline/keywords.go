// Package offline holds the deterministic heuristics used in place of the LLM
// when it is unconfigured, unreachable or rate limited.
package offline

import (
	"sort"
	"strings"
	"unicode"
)

// MinKeywordLength is the shortest token counted as a keyword
const MinKeywordLength = 3

var stopWords = toSet(
	"the", "and", "for", "with", "you", "your", "our", "are", "will", "have", "has",
	"this", "that", "from", "they", "their", "them", "who", "what", "when", "where",
	"which", "while", "about", "into", "onto", "over", "under", "than", "then", "also",
	"can", "could", "should", "would", "may", "might", "must", "shall", "not", "but",
	"all", "any", "each", "both", "more", "most", "some", "such", "only", "own",
	"same", "very", "just", "being", "been", "was", "were", "its", "his", "her",
	"she", "him", "how", "why", "out", "off", "per", "via", "etc", "able", "well",
	"work", "working", "team", "teams", "role", "job", "company", "experience",
	"years", "year", "including", "within", "across", "help", "join", "looking",
	"strong", "good", "great", "new", "use", "using", "based", "like", "make",
	"other", "these", "those", "there", "here", "what", "we", "us", "is", "in",
)

func toSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// Tokenize lowercases text and splits it into keyword candidates.
// Letters, digits and the characters + # . are kept so "c++", "c#" and "node.js" survive.
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '+' || r == '#' || r == '.')
	})

	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, ".")
		if len([]rune(f)) < MinKeywordLength {
			continue
		}
		if _, stop := stopWords[f]; stop {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}

// ExtractKeywords returns up to n keywords ranked by frequency, ties broken alphabetically.
// n <= 0 returns all keywords.
func ExtractKeywords(text string, n int) []string {
	counts := make(map[string]int)
	for _, tok := range Tokenize(text) {
		counts[tok]++
	}

	keywords := make([]string, 0, len(counts))
	for k := range counts {
		keywords = append(keywords, k)
	}
	sort.Slice(keywords, func(i, j int) bool {
		if counts[keywords[i]] != counts[keywords[j]] {
			return counts[keywords[i]] > counts[keywords[j]]
		}
		return keywords[i] < keywords[j]
	})

	if n > 0 && len(keywords) > n {
		keywords = keywords[:n]
	}
	return keywords
}

// KeywordSet returns the set of all keywords in text
func KeywordSet(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range Tokenize(text) {
		set[tok] = struct{}{}
	}
	return set
}
