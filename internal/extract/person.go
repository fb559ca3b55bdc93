package extract

import (
	"regexp"
	"strings"
)

// namedAddressPattern matches the "Name <email@domain>" form.
var namedAddressPattern = regexp.MustCompile(`^(.*?)\s*<([^>]+@[^>]+)>$`)

// ParsePerson splits a person string into (email, name). It recognises
// "Name <email>" (surrounding quotes trimmed from the name), a bare email
// address (display name derived from the local part), and a bare name.
// Empty input yields two empty strings.
func ParsePerson(text string) (email, name string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ""
	}

	if m := namedAddressPattern.FindStringSubmatch(text); m != nil {
		name = strings.Trim(strings.TrimSpace(m[1]), `"`)
		email = strings.TrimSpace(m[2])
		return email, name
	}

	if strings.Contains(text, "@") {
		email = text
		local := email[:strings.Index(email, "@")]
		local = strings.ReplaceAll(local, ".", " ")
		local = strings.ReplaceAll(local, "_", " ")
		return email, titleCase(local)
	}

	return "", text
}

// titleCase upper-cases the first letter of each word. strings.Title is
// deprecated and full Unicode casing is not needed for email local parts.
func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}
