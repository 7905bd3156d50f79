package contentgen

import (
	"regexp"
	"sort"
	"sync"

	"github.com/abhisek/staarai/internal/teks"
)

// TopicPolicy constrains the vocabulary of content for one standard.
type TopicPolicy struct {
	BannedTerms     []string
	RequiredTerms   []string
	MinRequiredHits int
}

// DefaultPolicies returns the shipped per-standard policies. They are keyed
// by the full catalog identity since codes repeat across subjects.
func DefaultPolicies() map[teks.Key]TopicPolicy {
	return map[teks.Key]TopicPolicy{
		// Math 3.6A is about classifying solids and plane figures; number and
		// operations vocabulary signals an off-topic worksheet.
		{Code: "3.6A", Grade: "3", Subject: teks.Math}: {
			BannedTerms: []string{
				"fraction", "equivalent", "numerator", "denominator",
				"decimal", "money", "dollar", "addition", "subtraction",
			},
			RequiredTerms: []string{
				"cone", "cylinder", "sphere", "prism", "cube", "vertices",
				"edges", "faces", "attribute", "two-dimensional", "three-dimensional",
			},
			MinRequiredHits: 3,
		},
	}
}

// PolicyFor returns the policy for std, if any.
func PolicyFor(policies map[teks.Key]TopicPolicy, std teks.Standard) (TopicPolicy, bool) {
	if std.Grade == "" {
		std.Grade = teks.GradeFromCode(std.Code)
	}
	std.Grade = teks.NormalizeGrade(string(std.Grade))
	p, ok := policies[std.Key()]
	return p, ok
}

var termCache sync.Map // map[string]*regexp.Regexp

// termPattern matches term as a whole word, allowing a plural suffix.
func termPattern(term string) *regexp.Regexp {
	if re, ok := termCache.Load(term); ok {
		return re.(*regexp.Regexp)
	}
	re := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(term) + `(s|es)?\b`)
	termCache.Store(term, re)
	return re
}

// BannedFound lists the banned terms present in text, sorted.
func (p TopicPolicy) BannedFound(text string) []string {
	return matchTerms(p.BannedTerms, text)
}

// RequiredFound lists the distinct required terms present in text, sorted.
func (p TopicPolicy) RequiredFound(text string) []string {
	return matchTerms(p.RequiredTerms, text)
}

func matchTerms(terms []string, text string) []string {
	var found []string
	for _, t := range terms {
		if termPattern(t).MatchString(text) {
			found = append(found, t)
		}
	}
	sort.Strings(found)
	return found
}
