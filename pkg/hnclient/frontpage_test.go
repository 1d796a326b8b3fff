package hnclient

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const frontpageRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
<title>Hacker News: Front Page</title>
<item>
<title>My YC app: Dropbox</title>
<link>http://www.getdropbox.com/u/2/screencast.html</link>
<guid isPermaLink="false">https://news.ycombinator.com/item?id=8863</guid>
</item>
<item>
<title>Y Combinator</title>
<link>https://news.ycombinator.com/item?id=1</link>
<guid isPermaLink="false">https://news.ycombinator.com/item?id=1</guid>
</item>
<item>
<title>No id anywhere</title>
<link>https://example.com/post</link>
<guid isPermaLink="false">https://example.com/post</guid>
</item>
</channel>
</rss>`

func TestFrontPageIDs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, frontpageRSS)
	}))
	t.Cleanup(srv.Close)

	ids, err := FrontPageIDs(context.Background(), srv.URL, 0)
	require.NoError(t, err)
	// Entries without an item id are dropped.
	assert.Equal(t, []int64{8863, 1}, ids)
}

func TestFrontPageIDsLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, frontpageRSS)
	}))
	t.Cleanup(srv.Close)

	ids, err := FrontPageIDs(context.Background(), srv.URL, 1)
	require.NoError(t, err)
	assert.Equal(t, []int64{8863}, ids)
}

func TestItemIDFromLink(t *testing.T) {
	id, ok := itemIDFromLink("https://news.ycombinator.com/item?id=8863")
	assert.True(t, ok)
	assert.Equal(t, int64(8863), id)

	_, ok = itemIDFromLink("https://example.com/no-id")
	assert.False(t, ok)

	_, ok = itemIDFromLink("https://news.ycombinator.com/item?id=-5")
	assert.False(t, ok)
}
