package helpdesk

import (
	"fmt"
	"net/url"
	"strconv"
	"time"

	"helpdesk_digest/internal/domain"
)

// resource knows the endpoints and response layout of one item kind.
type resource interface {
	kind() domain.Kind
	collectionPath(since time.Time) string
	commentsPath(id int64) string
	itemsKey() string
	lookupKey() string
	categoryID(item apiItem) int64
	// keep reports whether an item belongs to the "changed since" set.
	// Server-side filtered resources keep everything.
	keep(item apiItem, since time.Time) bool
}

type articles struct {
	locale string
}

func (articles) kind() domain.Kind { return domain.KindArticle }

func (articles) collectionPath(since time.Time) string {
	q := url.Values{}
	q.Set("start_time", strconv.FormatInt(since.Unix(), 10))
	q.Set("include", "sections")
	return "help_center/incremental/articles.json?" + q.Encode()
}

func (a articles) commentsPath(id int64) string {
	return fmt.Sprintf("help_center/%s/articles/%d/comments.json", a.locale, id)
}

func (articles) itemsKey() string  { return "articles" }
func (articles) lookupKey() string { return "sections" }

func (articles) categoryID(item apiItem) int64 { return item.SectionID }

func (articles) keep(apiItem, time.Time) bool { return true }

// posts has no server-side "since" filter; the endpoint only sorts.
type posts struct{}

func (posts) kind() domain.Kind { return domain.KindPost }

func (posts) collectionPath(time.Time) string {
	return "community/posts.json?include=topics&sort_by=updated_at"
}

func (posts) commentsPath(id int64) string {
	return fmt.Sprintf("community/posts/%d/comments.json", id)
}

func (posts) itemsKey() string  { return "posts" }
func (posts) lookupKey() string { return "topics" }

func (posts) categoryID(item apiItem) int64 { return item.TopicID }

func (posts) keep(item apiItem, since time.Time) bool {
	return item.UpdatedAt.After(since)
}
