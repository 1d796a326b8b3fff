package pipeline

import (
	"context"
	"fmt"

	"github.com/maguenza/hackernews-ai-project/pkg/hnclient"
)

// Discovery modes select which upstream listing seeds an ingest run.
const (
	DiscoveryIncremental = "incremental"
	DiscoveryTopStories  = "topstories"
	DiscoveryJobStories  = "jobstories"
	DiscoveryFrontPage   = "frontpage"
)

// Discover resolves a discovery mode to a set of item ids. The incremental
// mode has no id set; callers use RunIncremental instead.
func Discover(ctx context.Context, client Client, mode string, limit int, feedURL string) ([]int64, error) {
	switch mode {
	case DiscoveryTopStories:
		return client.TopStories(ctx, limit)
	case DiscoveryJobStories:
		return client.JobStories(ctx, limit)
	case DiscoveryFrontPage:
		return hnclient.FrontPageIDs(ctx, feedURL, limit)
	default:
		return nil, fmt.Errorf("pipeline: unknown discovery mode %q", mode)
	}
}
