// ABOUTME: Alyx REST client for session dataset lookup
// ABOUTME: Resolves a session and probe index to compressed recording URLs
package one

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Resonate-Protocol/rawview/pkg/ephys/source"
)

// DefaultBaseURL is the public Alyx instance
const DefaultBaseURL = "https://alyx.internationalbrainlab.org"

// Dataset name filters for the action-potential band
const (
	FilterCBin = "ap.cbin"
	FilterCh   = "ap.ch"
)

// ErrNoDataset is returned when a session has no matching dataset for a probe
var ErrNoDataset = errors.New("one: no dataset for probe")

// FileRecord is one stored copy of a dataset
type FileRecord struct {
	DataURL string `json:"data_url"`
	Exists  bool   `json:"exists"`
}

// Dataset is an Alyx dataset record
type Dataset struct {
	Name        string       `json:"name"`
	Session     string       `json:"session"`
	FileRecords []FileRecord `json:"file_records"`
}

// Client talks to an Alyx server
type Client struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewClient creates a client. token may be empty for public instances.
func NewClient(baseURL, token string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// Token returns the current API token
func (c *Client) Token() string {
	return c.token
}

// Authenticate exchanges credentials for an API token
func (c *Client) Authenticate(ctx context.Context, username, password string) error {
	form := url.Values{"username": {username}, "password": {password}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth-token", strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create auth request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var resp struct {
		Token string `json:"token"`
	}
	if err := c.do(req, &resp); err != nil {
		return fmt.Errorf("failed to authenticate: %w", err)
	}
	if resp.Token == "" {
		return fmt.Errorf("failed to authenticate: empty token")
	}
	c.token = resp.Token
	log.Printf("Authenticated to %s as %s", c.baseURL, username)
	return nil
}

// Datasets lists the datasets of a session whose name contains filter
func (c *Client) Datasets(ctx context.Context, session, filter string) ([]Dataset, error) {
	q := url.Values{}
	q.Set("session", session)
	q.Set("django", "name__icontains,"+filter)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/datasets?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create datasets request: %w", err)
	}

	var datasets []Dataset
	if err := c.do(req, &datasets); err != nil {
		return nil, fmt.Errorf("failed to list datasets: %w", err)
	}
	return datasets, nil
}

// ResolveProbe returns the compressed data and metadata URLs of one probe
func (c *Client) ResolveProbe(ctx context.Context, eid string, probe int) (source.URLPair, error) {
	if _, err := uuid.Parse(eid); err != nil {
		return source.URLPair{}, fmt.Errorf("invalid session id %q: %w", eid, err)
	}
	if probe < 0 {
		return source.URLPair{}, fmt.Errorf("invalid probe index %d", probe)
	}

	var urls source.URLPair
	var err error
	if urls.CBin, err = c.probeURL(ctx, eid, probe, FilterCBin); err != nil {
		return source.URLPair{}, err
	}
	if urls.Ch, err = c.probeURL(ctx, eid, probe, FilterCh); err != nil {
		return source.URLPair{}, err
	}

	log.Printf("Resolved session %s probe %d: %s", eid, probe, urls.CBin)
	return urls, nil
}

// probeURL picks the last non-empty data URL of the probe's dataset
func (c *Client) probeURL(ctx context.Context, eid string, probe int, filter string) (string, error) {
	datasets, err := c.Datasets(ctx, eid, filter)
	if err != nil {
		return "", err
	}
	if probe >= len(datasets) {
		return "", fmt.Errorf("%s: probe %d of %d: %w", filter, probe, len(datasets), ErrNoDataset)
	}

	var found string
	for _, fr := range datasets[probe].FileRecords {
		if fr.DataURL != "" {
			found = fr.DataURL
		}
	}
	if found == "" {
		return "", fmt.Errorf("%s: probe %d has no data url: %w", filter, probe, ErrNoDataset)
	}
	return found, nil
}

func (c *Client) do(req *http.Request, out any) error {
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Token "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
