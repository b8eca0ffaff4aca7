// Package nuget implements the small slice of the NuGet v3 protocol the
// symbol resolver needs: service index discovery, package search, and
// package (.nupkg) download.
package nuget

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/lincza/al-build/pkg/logger"
)

var clientLog = logger.New("nuget:client")

const userAgent = "al-build"

// Feed is a NuGet v3 package source.
type Feed struct {
	Name     string
	IndexURL string
	// Token authenticates against private feeds (GitHub Packages). Public
	// Microsoft feeds leave it empty.
	Token string
}

// PackageInfo is a search result entry.
type PackageInfo struct {
	ID      string `json:"id"`
	Version string `json:"version"`
}

type serviceIndex struct {
	Resources []struct {
		ID   string `json:"@id"`
		Type string `json:"@type"`
	} `json:"resources"`
}

type searchResponse struct {
	Data []PackageInfo `json:"data"`
}

// feedServices holds the resolved service URLs for one feed.
type feedServices struct {
	searchURL string
	baseURL   string
}

// Client talks to NuGet v3 feeds. Service indexes are resolved once per
// feed and cached for the lifetime of the client.
type Client struct {
	http *retryablehttp.Client

	mu       sync.Mutex
	services map[string]feedServices
}

// NewClient creates a feed client with retry behavior suitable for CI:
// a handful of retries with short backoff rather than long stalls.
func NewClient() *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 3
	rc.RetryWaitMin = 500 * time.Millisecond
	rc.RetryWaitMax = 5 * time.Second
	rc.HTTPClient.Timeout = 60 * time.Second
	rc.Logger = nil
	return &Client{http: rc, services: map[string]feedServices{}}
}

func (c *Client) do(ctx context.Context, feed Feed, rawURL string) (*http.Response, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	if feed.Token != "" {
		req.Header.Set("Authorization", "Bearer "+feed.Token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to feed %s failed: %w", feed.Name, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("feed %s returned %s for %s", feed.Name, resp.Status, rawURL)
	}
	return resp, nil
}

// resolveServices fetches and caches the feed's service index.
func (c *Client) resolveServices(ctx context.Context, feed Feed) (feedServices, error) {
	c.mu.Lock()
	if cached, ok := c.services[feed.IndexURL]; ok {
		c.mu.Unlock()
		return cached, nil
	}
	c.mu.Unlock()

	clientLog.Printf("Resolving service index for feed %s", feed.Name)
	resp, err := c.do(ctx, feed, feed.IndexURL)
	if err != nil {
		return feedServices{}, err
	}
	defer resp.Body.Close()

	var index serviceIndex
	if err := json.NewDecoder(resp.Body).Decode(&index); err != nil {
		return feedServices{}, fmt.Errorf("invalid service index from feed %s: %w", feed.Name, err)
	}

	var services feedServices
	for _, r := range index.Resources {
		switch {
		case strings.HasPrefix(r.Type, "SearchQueryService") && services.searchURL == "":
			services.searchURL = strings.TrimSuffix(r.ID, "/")
		case strings.HasPrefix(r.Type, "PackageBaseAddress") && services.baseURL == "":
			services.baseURL = strings.TrimSuffix(r.ID, "/")
		}
	}
	if services.searchURL == "" || services.baseURL == "" {
		return feedServices{}, fmt.Errorf("feed %s does not expose search and download services", feed.Name)
	}

	c.mu.Lock()
	c.services[feed.IndexURL] = services
	c.mu.Unlock()
	return services, nil
}

// Search queries the feed for packages matching the given term. Stable
// releases only; prerelease packages are excluded.
func (c *Client) Search(ctx context.Context, feed Feed, query string) ([]PackageInfo, error) {
	services, err := c.resolveServices(ctx, feed)
	if err != nil {
		return nil, err
	}

	searchURL := fmt.Sprintf("%s?q=%s&prerelease=false", services.searchURL, url.QueryEscape(query))
	clientLog.Printf("Searching feed %s for %q", feed.Name, query)
	resp, err := c.do(ctx, feed, searchURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var result searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("invalid search response from feed %s: %w", feed.Name, err)
	}
	clientLog.Printf("Feed %s returned %d packages for %q", feed.Name, len(result.Data), query)
	return result.Data, nil
}

// Download fetches the .nupkg for a specific package version.
func (c *Client) Download(ctx context.Context, feed Feed, id, version string) ([]byte, error) {
	services, err := c.resolveServices(ctx, feed)
	if err != nil {
		return nil, err
	}

	lowerID := strings.ToLower(id)
	lowerVersion := strings.ToLower(version)
	downloadURL := fmt.Sprintf("%s/%s/%s/%s.%s.nupkg", services.baseURL, lowerID, lowerVersion, lowerID, lowerVersion)

	clientLog.Printf("Downloading %s %s from feed %s", id, version, feed.Name)
	resp, err := c.do(ctx, feed, downloadURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to download %s %s: %w", id, version, err)
	}
	clientLog.Printf("Downloaded %s %s (%d bytes)", id, version, len(data))
	return data, nil
}
