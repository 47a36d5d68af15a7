package hnapi

// Item is one entry of the item endpoint. Stories and comments share the same
// shape; fields that are absent in the payload decode to their zero values.
type Item struct {
	ID      int    `json:"id"`
	Type    string `json:"type,omitempty"`
	By      string `json:"by,omitempty"`
	Time    int64  `json:"time,omitempty"`
	Title   string `json:"title,omitempty"`
	URL     string `json:"url,omitempty"`
	Text    string `json:"text,omitempty"`
	Parent  int    `json:"parent,omitempty"`
	Kids    []int  `json:"kids,omitempty"`
	Deleted bool   `json:"deleted,omitempty"`
	Dead    bool   `json:"dead,omitempty"`
}

// HasKids reports whether the item links to any child comments.
func (i Item) HasKids() bool {
	return len(i.Kids) > 0
}
