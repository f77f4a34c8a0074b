package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestItem_IsNewSince(t *testing.T) {
	watermark := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		createdAt time.Time
		want      bool
	}{
		{"after watermark", watermark.Add(24 * time.Hour), true},
		{"equal to watermark", watermark, true},
		{"before watermark", watermark.Add(-time.Nanosecond), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := Item{CreatedAt: tt.createdAt}
			assert.Equal(t, tt.want, item.IsNewSince(watermark))
		})
	}
}

func TestHasCommentSince(t *testing.T) {
	watermark := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	assert.False(t, HasCommentSince(nil, watermark))
	assert.False(t, HasCommentSince([]Comment{{UpdatedAt: watermark}}, watermark))
	assert.False(t, HasCommentSince([]Comment{{UpdatedAt: watermark.AddDate(0, 0, -1)}}, watermark))
	assert.True(t, HasCommentSince([]Comment{
		{UpdatedAt: watermark.AddDate(0, 0, -1)},
		{UpdatedAt: watermark.Add(time.Second)},
	}, watermark))
}

func TestItem_HTML(t *testing.T) {
	article := Item{
		Kind:     KindArticle,
		Title:    "Billing <FAQ> & more",
		URL:      "https://acme.zendesk.com/hc/articles/1?a=1&b=2",
		Category: "Payments",
	}

	assert.Equal(t,
		"[Payments]\nBilling &lt;FAQ&gt; &amp; more\n<a href=\"https://acme.zendesk.com/hc/articles/1?a=1&amp;b=2\">Read article</a>",
		article.HTML(),
	)

	post := Item{Kind: KindPost, Title: "Hello", URL: "https://x/p/2", Category: "General"}
	assert.Equal(t, "[General]\nHello\n<a href=\"https://x/p/2\">Read post</a>", post.HTML())
}
