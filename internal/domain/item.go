package domain

import (
	"fmt"
	"html"
	"time"
)

// Kind identifies a helpdesk resource type.
type Kind string

const (
	KindArticle Kind = "article"
	KindPost    Kind = "post"
)

// Kinds lists the resource types in the order they are synced.
var Kinds = []Kind{KindArticle, KindPost}

func (k Kind) String() string {
	return string(k)
}

// LinkText is the caption of the permalink in a rendered item.
func (k Kind) LinkText() string {
	switch k {
	case KindArticle:
		return "Read article"
	case KindPost:
		return "Read post"
	default:
		return "Open"
	}
}

// Item is an article or a post fetched from the helpdesk API.
type Item struct {
	Kind      Kind      `json:"kind"`
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	URL       string    `json:"url"`
	Category  string    `json:"category"` // section for articles, topic for posts
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsNewSince reports whether the item was created at or after the watermark.
func (i Item) IsNewSince(watermark time.Time) bool {
	return !i.CreatedAt.Before(watermark)
}

// HTML renders the item as a paragraph for Telegram's HTML parse mode.
func (i Item) HTML() string {
	return fmt.Sprintf("[%s]\n%s\n<a href=\"%s\">%s</a>",
		html.EscapeString(i.Category),
		html.EscapeString(i.Title),
		html.EscapeString(i.URL),
		i.Kind.LinkText(),
	)
}

// Comment is a comment on an item. Only its update time matters.
type Comment struct {
	ID        int64
	UpdatedAt time.Time
}

// HasCommentSince reports whether any comment was updated strictly after the watermark.
func HasCommentSince(comments []Comment, watermark time.Time) bool {
	for _, c := range comments {
		if c.UpdatedAt.After(watermark) {
			return true
		}
	}
	return false
}

// Collection is the result of one collection request.
type Collection struct {
	Kind       Kind
	Count      int
	Items      []Item
	Categories map[int64]string
}
