// Package bncc recognises BNCC skill codes such as EF01LP02.
package bncc

import "regexp"

// codePattern: stage prefix (EF fundamental, EI infantil), two digits, subject, two digits.
var codePattern = regexp.MustCompile(`\b(?:EF|EI)\d{2}[A-Z]{2}\d{2}\b`)

// Extract returns the distinct codes found in text, in order of first appearance.
func Extract(text string) []string {
	matches := codePattern.FindAllString(text, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(matches))
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	return out
}

