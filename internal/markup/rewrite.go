package markup

import "strings"

// RewritePlaceholder replaces every src reference to placeholder with url.
func RewritePlaceholder(markup, placeholder, url string) string {
	if placeholder == "" || url == "" {
		return markup
	}
	return strings.ReplaceAll(markup, `src="`+placeholder+`"`, `src="`+escapeText(url)+`"`)
}

// HasPlaceholders reports whether markup still references temporary
// attachment names.
func HasPlaceholders(markup string) bool {
	return strings.Contains(markup, `src="`+placeholderPrefix)
}
