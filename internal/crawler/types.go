package crawler

import "github.com/JakeFAU/hn-crawler/internal/hnapi"

// Story is the part of a story item the crawl needs.
type Story struct {
	ID   int
	URL  string
	Kids []int
}

// Comment is the part of a comment item the crawl needs.
type Comment struct {
	ID   int
	Text string
	Kids []int
}

func storyFromItem(item hnapi.Item) Story {
	return Story{ID: item.ID, URL: item.URL, Kids: item.Kids}
}

func commentFromItem(item hnapi.Item) Comment {
	return Comment{ID: item.ID, Text: item.Text, Kids: item.Kids}
}
