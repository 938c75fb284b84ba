package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Location is the subset of the lookup response the activity log keeps.
type Location struct {
	Country string `json:"country"`
	Region  string `json:"regionName"`
	City    string `json:"city"`
}

func (l *Location) String() string {
	if l.City != "" {
		return l.City + ", " + l.Country
	}
	return l.Country
}

// Client resolves an IP to a coarse location. Lookups are best-effort;
// callers must tolerate errors and never block a login record on one.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient() *Client {
	return &Client{
		baseURL: "http://ip-api.com/json",
		http:    &http.Client{Timeout: 2 * time.Second},
	}
}

func (c *Client) Lookup(ctx context.Context, ip string) (*Location, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+ip, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geo lookup returned %d", resp.StatusCode)
	}

	var loc Location
	if err := json.NewDecoder(resp.Body).Decode(&loc); err != nil {
		return nil, err
	}
	return &loc, nil
}
