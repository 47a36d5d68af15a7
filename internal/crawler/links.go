package crawler

import (
	"regexp"
	"strings"
)

// hrefPattern matches anchor targets in the raw comment HTML. The API escapes
// slashes inside attribute values as &#x2F;, which ExtractLinks undoes.
var hrefPattern = regexp.MustCompile(`href="(.*?)"`)

var slashEntity = strings.NewReplacer("&#x2F;", "/")

// ExtractLinks returns every href target in text, in document order, with the
// &#x2F; escape decoded. No other entity is decoded.
func ExtractLinks(text string) []string {
	if text == "" {
		return nil
	}
	matches := hrefPattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}
	links := make([]string, 0, len(matches))
	for _, m := range matches {
		links = append(links, slashEntity.Replace(m[1]))
	}
	return links
}
