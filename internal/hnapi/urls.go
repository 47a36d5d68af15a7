package hnapi

import (
	"fmt"
	"strings"
)

// DefaultRoot is the public Hacker News API root.
const DefaultRoot = "https://hacker-news.firebaseio.com/v0/"

// ItemURL returns the JSON endpoint for a single item.
func ItemURL(root string, id int) string {
	return fmt.Sprintf("%sitem/%d.json", normalizeRoot(root), id)
}

// TopStoriesURL returns the JSON endpoint listing the current front page ids.
func TopStoriesURL(root string) string {
	return normalizeRoot(root) + "topstories.json"
}

func normalizeRoot(root string) string {
	if strings.TrimSpace(root) == "" {
		root = DefaultRoot
	}
	if !strings.HasSuffix(root, "/") {
		root += "/"
	}
	return root
}
