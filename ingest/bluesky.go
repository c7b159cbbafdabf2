package ingest

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/bluesky-social/indigo/xrpc"
	"github.com/sirupsen/logrus"

	"go-floodline/types"
	"go-floodline/zones"
)

const feedMethod = "app.bsky.feed.getFeed"

// feedDoer is the slice of the xrpc client the puller uses.
type feedDoer interface {
	Do(ctx context.Context, kind xrpc.XRPCRequestType, inpenc string, method string, params map[string]interface{}, bodyobj interface{}, out interface{}) error
}

// FeedResponse mirrors the getFeed payload, trimmed to the fields the
// ingestion path reads.
type FeedResponse struct {
	Cursor string      `json:"cursor"`
	Feed   []FeedEntry `json:"feed"`
}

type FeedEntry struct {
	Post Post `json:"post"`
}

type Post struct {
	CID    string `json:"cid"`
	Author struct {
		Handle string `json:"handle"`
	} `json:"author"`
	Record struct {
		Text      string `json:"text"`
		CreatedAt string `json:"createdAt"`
	} `json:"record"`
	Embed *struct {
		Images []struct {
			Fullsize string `json:"fullsize"`
		} `json:"images,omitempty"`
	} `json:"embed,omitempty"`
}

// FeedPuller maps public Bluesky feed posts onto the social ingestion
// channel. Posts without a recognizable category or zone mention are skipped;
// posts already ingested (by CID) are skipped on later pulls.
type FeedPuller struct {
	client   feedDoer
	feedURI  string
	limit    int
	sink     *Service
	registry *zones.Registry
	log      *logrus.Logger

	mu   sync.Mutex
	seen map[string]bool
}

func NewFeedPuller(host, feedURI string, limit int, sink *Service, registry *zones.Registry, log *logrus.Logger) *FeedPuller {
	client := &xrpc.Client{
		Client: &http.Client{Timeout: 10 * time.Second},
		Host:   host,
	}
	return &FeedPuller{
		client:   client,
		feedURI:  feedURI,
		limit:    limit,
		sink:     sink,
		registry: registry,
		log:      log,
		seen:     make(map[string]bool),
	}
}

// Pull fetches one page of the feed and ingests every mappable post.
func (p *FeedPuller) Pull(ctx context.Context) (int, error) {
	params := map[string]interface{}{
		"feed":  p.feedURI,
		"limit": p.limit,
	}

	var out FeedResponse
	if err := p.client.Do(ctx, xrpc.Query, "json", feedMethod, params, nil, &out); err != nil {
		return 0, fmt.Errorf("social pull: %w: %w", types.ErrSignalUnavailable, err)
	}

	ingested := 0
	for _, entry := range out.Feed {
		post := entry.Post
		p.mu.Lock()
		dup := p.seen[post.CID]
		if !dup {
			p.seen[post.CID] = true
		}
		p.mu.Unlock()
		if dup {
			continue
		}

		rep, ok := p.mapPost(post)
		if !ok {
			continue
		}
		if _, err := p.sink.Ingest(ctx, rep); err != nil {
			p.log.WithError(err).WithField("cid", post.CID).Warn("Social post rejected by ingestion")
			continue
		}
		ingested++
	}

	p.log.WithFields(logrus.Fields{
		"feed":     p.feedURI,
		"posts":    len(out.Feed),
		"ingested": ingested,
	}).Info("Social feed pulled")
	return ingested, nil
}

// mapPost converts a post into a raw report. Both a category keyword and a
// zone mention must be present, otherwise there is nothing to anchor the
// report to.
func (p *FeedPuller) mapPost(post Post) (types.RawReport, bool) {
	category, ok := categoryFromText(post.Record.Text)
	if !ok {
		return types.RawReport{}, false
	}

	zone, ok := p.zoneFromText(post.Record.Text)
	if !ok {
		return types.RawReport{}, false
	}

	rep := types.RawReport{
		Origin:    types.OriginSocial,
		Narrative: fmt.Sprintf("@%s: %s", post.Author.Handle, post.Record.Text),
		Lat:       &zone.Centroid.Lat,
		Lng:       &zone.Centroid.Lng,
		Category:  category,
	}
	if post.Embed != nil && len(post.Embed.Images) > 0 {
		rep.MediaURL = post.Embed.Images[0].Fullsize
	}
	return rep, true
}

func (p *FeedPuller) zoneFromText(text string) (*types.Zone, bool) {
	lower := strings.ToLower(text)
	for _, z := range p.registry.All() {
		if strings.Contains(lower, strings.ToLower(z.Name)) {
			return z, true
		}
	}
	return nil, false
}

var categoryKeywords = []struct {
	category types.Category
	words    []string
}{
	{types.Flood, []string{"flood", "waterlogged", "submerged", "inundat"}},
	{types.Landslide, []string{"landslide", "mudslide", "slope collapse"}},
	{types.Medical, []string{"injured", "ambulance", "medical", "casualt"}},
	{types.FoodShortage, []string{"food", "rations", "starving"}},
	{types.Infrastructure, []string{"bridge", "power line", "road closed", "collapsed"}},
}

func categoryFromText(text string) (types.Category, bool) {
	lower := strings.ToLower(text)
	for _, entry := range categoryKeywords {
		for _, w := range entry.words {
			if strings.Contains(lower, w) {
				return entry.category, true
			}
		}
	}
	return "", false
}
