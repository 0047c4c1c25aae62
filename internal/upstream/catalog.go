package upstream

import (
	"context"
	"net/url"
	"time"
)

type Video struct {
	Id        string `json:"id"`
	Title     string `json:"title"`
	Thumbnail string `json:"thumbnail"`
}

// CatalogClient resolves video metadata from the video catalog service.
// The engine snapshots what it needs at party creation, it never writes back.
type CatalogClient struct {
	client
}

func NewCatalogClient(baseURL string, timeout time.Duration) *CatalogClient {
	return &CatalogClient{client: newClient(baseURL, timeout)}
}

func (c *CatalogClient) GetVideo(ctx context.Context, videoId string) (Video, error) {
	var video Video
	if err := c.getJSON(ctx, "/videos/"+url.PathEscape(videoId), &video); err != nil {
		return Video{}, err
	}

	return video, nil
}
