package hnclient

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/mmcdole/gofeed"
)

// DefaultFrontPageFeed is the hnrss.org mirror of the HN front page.
const DefaultFrontPageFeed = "https://hnrss.org/frontpage"

// FrontPageIDs discovers current front-page item ids from the RSS mirror.
// Each entry's comments link carries the item id as ?id=N.
func FrontPageIDs(ctx context.Context, feedURL string, limit int) ([]int64, error) {
	if feedURL == "" {
		feedURL = DefaultFrontPageFeed
	}

	parser := gofeed.NewParser()
	feed, err := parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse frontpage feed %s: %w", feedURL, err)
	}

	var ids []int64
	for _, entry := range feed.Items {
		id, ok := itemIDFromLink(entry.GUID)
		if !ok {
			id, ok = itemIDFromLink(entry.Link)
		}
		if !ok {
			continue
		}
		ids = append(ids, id)
		if limit > 0 && len(ids) >= limit {
			break
		}
	}
	return ids, nil
}

// itemIDFromLink extracts the id from an item?id=N style URL.
func itemIDFromLink(link string) (int64, bool) {
	u, err := url.Parse(link)
	if err != nil {
		return 0, false
	}
	raw := u.Query().Get("id")
	if raw == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
