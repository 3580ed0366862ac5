package autoreply

import (
	"fmt"
	"regexp"
)

var questionRe = regexp.MustCompile(`(?i)\?|\b(what|when|how|why|who|where)\b`)

// IsQuestion reports whether the message reads like a question: it either
// contains a question mark or an interrogative word.
func IsQuestion(message string) bool {
	return questionRe.MatchString(message)
}

// IsAddressedTo reports whether the message mentions the author by name.
func IsAddressedTo(message, authorName string) bool {
	if authorName == "" {
		return false
	}
	re, err := regexp.Compile(fmt.Sprintf(`(?i)\b%s\b`, regexp.QuoteMeta(authorName)))
	if err != nil {
		return false
	}
	return re.MatchString(message)
}

// Generate produces the auto-reply text for a comment addressed at the
// post author.
func Generate(message, authorName string) string {
	if IsQuestion(message) && IsAddressedTo(message, authorName) {
		return "I saw your question and will get back to you as soon as I can."
	}
	return "Thank you for your comment!"
}
