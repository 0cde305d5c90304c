package lesson

import (
	"regexp"
	"strings"
	"unicode"
)

// TagPattern is the format every emitted tag must satisfy.
var TagPattern = regexp.MustCompile(`^#[A-Za-z0-9_-]+$`)

// Tag converts free text into a tag: lower-cased, whitespace runs replaced by
// a single hyphen and every character outside [a-z0-9_-] dropped. It reports
// false when nothing usable is left.
func Tag(text string) (string, bool) {
	text = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(text), "#"))
	if text == "" {
		return "", false
	}

	var b strings.Builder
	b.WriteByte('#')
	pendingHyphen := false
	for _, r := range strings.ToLower(text) {
		switch {
		case unicode.IsSpace(r):
			pendingHyphen = b.Len() > 1
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' || r == '-':
			if pendingHyphen {
				b.WriteByte('-')
				pendingHyphen = false
			}
			b.WriteRune(r)
		}
	}
	if b.Len() == 1 {
		return "", false
	}
	return b.String(), true
}

// PrefixedTag builds a tag like "#tech-redis" from a prefix and free text.
func PrefixedTag(prefix, text string) (string, bool) {
	tag, ok := Tag(text)
	if !ok {
		return "", false
	}
	return "#" + prefix + "-" + tag[1:], true
}

// ValidTag reports whether s matches TagPattern.
func ValidTag(s string) bool {
	return TagPattern.MatchString(s)
}

// DefaultTags is substituted whenever a tag list would otherwise be empty.
func DefaultTags() []string {
	return []string{"#software-architecture", "#learning", "#engineering"}
}

// AppendTags appends converted tags from texts to dst, stopping after max
// tags have been added (max <= 0 means no limit).
func AppendTags(dst []string, texts []string, max int) []string {
	added := 0
	for _, t := range texts {
		if max > 0 && added >= max {
			break
		}
		if tag, ok := Tag(t); ok {
			dst = append(dst, tag)
			added++
		}
	}
	return dst
}

// UniqueTags removes exact duplicates while keeping first-seen order, then
// truncates to max (max <= 0 means no cap).
func UniqueTags(tags []string, max int) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
		if max > 0 && len(out) == max {
			break
		}
	}
	return out
}
