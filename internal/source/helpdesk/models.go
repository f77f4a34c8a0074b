package helpdesk

import "time"

// apiItem is an article or a post as returned by the collection endpoints.
type apiItem struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	HTMLURL   string    `json:"html_url"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	SectionID int64     `json:"section_id"`
	TopicID   int64     `json:"topic_id"`
}

// apiCategory is a side-loaded section or topic.
type apiCategory struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type apiComment struct {
	ID        int64     `json:"id"`
	UpdatedAt time.Time `json:"updated_at"`
}

// commentsResponse is the body of a comments endpoint.
type commentsResponse struct {
	Comments []apiComment `json:"comments"`
}
