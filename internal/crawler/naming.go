package crawler

import (
	"regexp"
	"strings"

	"github.com/JakeFAU/hn-crawler/internal/hash/sha256"
)

// DefaultRootDir is where story directories are created.
const DefaultRootDir = "./pages"

const (
	separatorFiller = "."
	// maxNameBytes is the usual per-component limit of Linux and macOS filesystems.
	maxNameBytes = 255
	digestBytes  = 16
)

var (
	separatorRun = regexp.MustCompile(`/+`)
	htmlSuffix   = regexp.MustCompile(`\.html$`)
)

// StoryDir maps a story URL to its directory under root. Separators become
// dots and a trailing ".html" is dropped, so
// https://example.com/foo/bar.html lands in ./pages/https:.example.com.foo.bar.
// Distinct URLs that sanitize to the same name share a directory.
func StoryDir(root, storyURL string) string {
	if root == "" {
		root = DefaultRootDir
	}
	name := htmlSuffix.ReplaceAllString(sanitizeName(storyURL), "")
	return strings.TrimRight(root, "/") + "/" + fitName(name)
}

// PageFileName maps a page URL to its file name inside a story directory.
// It uses the same separator rule as StoryDir and keeps any ".html" suffix.
func PageFileName(pageURL string) string {
	return fitName(sanitizeName(pageURL))
}

func sanitizeName(raw string) string {
	return separatorRun.ReplaceAllString(raw, separatorFiller)
}

// fitName shortens names that the filesystem would reject. The digest of the
// full name keeps shortened names distinct.
func fitName(name string) string {
	if len(name) <= maxNameBytes {
		return name
	}
	digest := sha256.Sum([]byte(name))[:digestBytes]
	keep := maxNameBytes - len(separatorFiller) - digestBytes
	return truncateUTF8(name, keep) + separatorFiller + digest
}

func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !isRuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
