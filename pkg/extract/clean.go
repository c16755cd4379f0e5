package extract

import (
	"regexp"
	"strings"
)

// CleanName collapses whitespace and undoes the doubling produced when a
// visible and an accessible copy of a name are read together, so
// "John Doe John Doe" becomes "John Doe".
func CleanName(name string) string {
	words := strings.Fields(name)
	if len(words) >= 4 && len(words)%2 == 0 {
		half := len(words) / 2
		first := strings.Join(words[:half], " ")
		if first == strings.Join(words[half:], " ") {
			return first
		}
	}
	return strings.Join(words, " ")
}

// StripName removes the first case-insensitive occurrence of name from
// headline.
func StripName(headline, name string) string {
	headline = strings.TrimSpace(headline)
	if headline == "" || name == "" {
		return headline
	}
	re, err := regexp.Compile(`(?i)` + regexp.QuoteMeta(name))
	if err != nil {
		return headline
	}
	loc := re.FindStringIndex(headline)
	if loc == nil {
		return headline
	}
	out := headline[:loc[0]] + headline[loc[1]:]
	return strings.Join(strings.Fields(out), " ")
}

var (
	degreeWord   = regexp.MustCompile(`(?i)\b(1st|2nd|3rd\+?)`)
	degreeMarker = regexp.MustCompile(`(?i)[•·]\s*(1st|2nd|3rd\+?)`)
	degreeJunk   = regexp.MustCompile(`[·•\s]`)
)

// Degree reads a connection degree from the text of a dedicated degree
// element such as "• 2nd".
func Degree(text string) string {
	if m := degreeWord.FindStringSubmatch(text); m != nil {
		return strings.ToLower(m[1])
	}
	return degreeJunk.ReplaceAllString(text, "")
}

// DegreeMarker finds a "• 2nd" style marker in free text.
func DegreeMarker(text string) string {
	if m := degreeMarker.FindStringSubmatch(text); m != nil {
		return strings.ToLower(m[1])
	}
	return ""
}
