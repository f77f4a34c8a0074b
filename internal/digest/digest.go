// Package digest renders sync results as Telegram HTML messages.
package digest

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"helpdesk_digest/internal/domain"
)

// TelegramMaxLength is the longest text Telegram accepts in one message.
const TelegramMaxLength = 4096

const separator = "\n\n"

// titles holds the block headers for one item kind.
type titles struct {
	New       string
	Commented string
}

var kindTitles = map[domain.Kind]titles{
	domain.KindArticle: {New: "Article updates", Commented: "Articles with new comments"},
	domain.KindPost:    {New: "New posts", Commented: "Posts with new comments"},
}

func titlesFor(kind domain.Kind) titles {
	if t, ok := kindTitles[kind]; ok {
		return t
	}
	return titles{New: "New " + kind.String(), Commented: kind.String() + " with new comments"}
}

// FormatBlock renders a titled group of items. It returns "" for no items.
// Every item is rendered short enough to share a message with the header.
func FormatBlock(title string, items []domain.Item) string {
	if len(items) == 0 {
		return ""
	}

	header := fmt.Sprintf("<b>%s:</b>", title)
	budget := TelegramMaxLength - runeLen(header) - runeLen(separator)

	var sb strings.Builder
	sb.WriteString(header)
	for _, item := range items {
		sb.WriteString(separator)
		sb.WriteString(fitItem(item, budget))
	}
	return sb.String()
}

// fitItem renders item in at most limit runes by shortening its title.
// The title is cut before escaping so no entity or tag is split.
func fitItem(item domain.Item, limit int) string {
	rendered := item.HTML()
	if runeLen(rendered) <= limit {
		return rendered
	}

	full := []rune(item.Title)
	render := func(keep int) string {
		item.Title = string(full[:keep]) + "…"
		return item.HTML()
	}

	lo, hi := 0, len(full)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if runeLen(render(mid)) <= limit {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return render(lo)
}

// Blocks renders the new and commented blocks of a sync result.
func Blocks(result domain.SyncResult) []string {
	t := titlesFor(result.Kind)
	return []string{
		FormatBlock(t.New, result.New),
		FormatBlock(t.Commented, result.Commented),
	}
}

// ComposeMessage joins the non-empty blocks. ok is false when every block is empty.
func ComposeMessage(blocks ...string) (message string, ok bool) {
	parts := make([]string, 0, len(blocks))
	for _, b := range blocks {
		if b != "" {
			parts = append(parts, b)
		}
	}
	if len(parts) == 0 {
		return "", false
	}
	return strings.Join(parts, separator), true
}

// Split cuts message into parts of at most limit runes, breaking on blank
// lines. A block header is kept together with the paragraph after it. A
// paragraph longer than limit is broken at line ends, and only a single
// line longer than limit is cut at a rune boundary.
func Split(message string, limit int) []string {
	if message == "" {
		return nil
	}
	if limit <= 0 || runeLen(message) <= limit {
		return []string{message}
	}

	var parts []string
	var current strings.Builder
	currentLen := 0

	flush := func() {
		if currentLen > 0 {
			parts = append(parts, current.String())
			current.Reset()
			currentLen = 0
		}
	}

	add := func(chunk, sep string) {
		n := runeLen(chunk)
		if currentLen > 0 && currentLen+runeLen(sep)+n > limit {
			flush()
		}
		if currentLen > 0 {
			current.WriteString(sep)
			currentLen += runeLen(sep)
		}
		current.WriteString(chunk)
		currentLen += n
	}

	for _, unit := range units(message) {
		if runeLen(unit) <= limit {
			add(unit, separator)
			continue
		}

		flush()
		for _, line := range strings.Split(unit, "\n") {
			for runeLen(line) > limit {
				flush()
				head, tail := cutRunes(line, limit)
				parts = append(parts, head)
				line = tail
			}
			add(line, "\n")
		}
	}
	flush()

	return parts
}

// units groups paragraphs so that a block header travels with the first
// item after it.
func units(message string) []string {
	paragraphs := strings.Split(message, separator)
	out := make([]string, 0, len(paragraphs))
	for i := 0; i < len(paragraphs); i++ {
		p := paragraphs[i]
		if isHeader(p) && i+1 < len(paragraphs) {
			p += separator + paragraphs[i+1]
			i++
		}
		out = append(out, p)
	}
	return out
}

func isHeader(paragraph string) bool {
	return strings.HasPrefix(paragraph, "<b>") && strings.HasSuffix(paragraph, ":</b>") &&
		!strings.Contains(paragraph, "\n")
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}

func cutRunes(s string, n int) (string, string) {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos], s[pos:]
		}
		i++
	}
	return s, ""
}
