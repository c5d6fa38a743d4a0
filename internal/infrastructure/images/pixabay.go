package images

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"AutoBlogger/internal/domain"
	"AutoBlogger/internal/ports"
)

const defaultEndpoint = "https://pixabay.com/api/"

// PixabayClient searches horizontal photos on Pixabay and downloads the large
// rendition.
type PixabayClient struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

var _ ports.ImageSource = (*PixabayClient)(nil)

// NewPixabayClient registers the API key; an empty endpoint selects the
// public API.
func NewPixabayClient(endpoint, apiKey string, timeout time.Duration) *PixabayClient {
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &PixabayClient{
		endpoint: endpoint,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: timeout},
	}
}

type searchResponse struct {
	TotalHits int `json:"totalHits"`
	Hits      []struct {
		ID            int64  `json:"id"`
		LargeImageURL string `json:"largeImageURL"`
		WebformatURL  string `json:"webformatURL"`
	} `json:"hits"`
}

// SearchImages returns the hits for query in relevance order.
func (p *PixabayClient) SearchImages(ctx context.Context, query string) ([]domain.ImageHandle, error) {
	if p.apiKey == "" || p.client == nil {
		return nil, fmt.Errorf("pixabay client misconfigured")
	}

	endpoint, err := url.Parse(p.endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid pixabay endpoint %s: %w", p.endpoint, err)
	}
	q := endpoint.Query()
	q.Set("key", p.apiKey)
	q.Set("q", query)
	q.Set("image_type", "photo")
	q.Set("orientation", "horizontal")
	endpoint.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search images: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("pixabay error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	var decoded searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode pixabay response: %w", err)
	}

	handles := make([]domain.ImageHandle, 0, len(decoded.Hits))
	for _, hit := range decoded.Hits {
		link := hit.LargeImageURL
		if link == "" {
			link = hit.WebformatURL
		}
		if link == "" {
			continue
		}
		handles = append(handles, domain.ImageHandle{ID: strconv.FormatInt(hit.ID, 10), URL: link})
	}
	return handles, nil
}

// Download stores the image behind handle at dest.
func (p *PixabayClient) Download(ctx context.Context, handle domain.ImageHandle, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, handle.URL, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("download image %s: %w", handle.ID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download image %s: %s", handle.ID, resp.Status)
	}

	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create %s: %w", dest, err)
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(dest)
		return fmt.Errorf("write %s: %w", dest, err)
	}
	return f.Close()
}
