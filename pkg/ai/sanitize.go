package ai

import "regexp"

// The model intermittently wraps parts of the answer in markdown even though
// the chat client renders plain text. Three passes strip the noise: bolded
// labels ("**Answer:** "), leading bullet markers, and stray asterisks.
var (
	boldLabelPattern     = regexp.MustCompile(`\*\*[\w\s]+:\*\*\s*`)
	bulletPattern        = regexp.MustCompile(`(?m)^\*\s+`)
	strayAsteriskPattern = regexp.MustCompile(`\s*\*\s*`)
)

// Sanitize removes stray markdown formatting from model output. Applying it
// to already-sanitized text is a no-op.
func Sanitize(text string) string {
	text = boldLabelPattern.ReplaceAllString(text, "")
	text = bulletPattern.ReplaceAllString(text, "")
	text = strayAsteriskPattern.ReplaceAllString(text, " ")
	return text
}
