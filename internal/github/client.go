package github

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	defaultBaseURL = "https://api.github.com"
	apiVersion     = "2022-11-28"
	acceptHeader   = "application/vnd.github+json"
	userAgent      = "grindvault-backup-service"

	snapshotDir        = "snapshots"
	snapshotFilePrefix = "questions_snapshot_"
)

// Client talks to the GitHub contents API for one owner/repo pair.
// It keeps no state between calls; every mutation happens remotely.
type Client struct {
	logger *zap.Logger
	config Config
	client *http.Client
}

// Config represents the remote repository configuration.
type Config struct {
	Owner   string        `yaml:"owner" json:"owner"`
	Repo    string        `yaml:"repo" json:"repo"`
	Branch  string        `yaml:"branch" json:"branch"`
	Token   string        `yaml:"token" json:"token"`
	BaseURL string        `yaml:"base_url" json:"base_url"`
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
}

// Content is one entry of a contents listing. SHA is the version token
// required to delete or safely overwrite the entry.
type Content struct {
	Name string `json:"name"`
	Path string `json:"path"`
	SHA  string `json:"sha"`
	Type string `json:"type"`
	Size int64  `json:"size"`
}

// APIError reports a non-success response from the contents API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s | status=%d", e.Message, e.StatusCode)
}

// NewClient creates a new contents API client.
func NewClient(logger *zap.Logger, config Config) (*Client, error) {
	if config.Owner == "" || config.Repo == "" {
		return nil, fmt.Errorf("github owner/repo not configured")
	}
	if config.Token == "" {
		return nil, fmt.Errorf("github token not configured")
	}
	if config.Branch == "" {
		config.Branch = "main"
	}
	if config.BaseURL == "" {
		config.BaseURL = defaultBaseURL
	}
	if _, err := url.Parse(config.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid github base URL: %w", err)
	}
	if config.Timeout <= 0 {
		config.Timeout = 15 * time.Second
	}

	return &Client{
		logger: logger,
		config: config,
		client: &http.Client{
			Timeout: config.Timeout,
		},
	}, nil
}

// Upload creates or overwrites a snapshot file under the snapshots prefix.
func (c *Client) Upload(ctx context.Context, name string, data []byte) error {
	fullPath := snapshotDir + "/" + name
	c.logger.Info("GitHub upload start",
		zap.String("file", name),
		zap.Int("size", len(data)),
	)

	body := map[string]interface{}{
		"message": "Backup snapshot: " + name,
		"content": base64.StdEncoding.EncodeToString(data),
		"branch":  c.config.Branch,
	}

	resp, err := c.do(ctx, http.MethodPut, fullPath, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := validateResponse(resp, "upload failed"); err != nil {
		c.logger.Error("GitHub upload failed", zap.String("file", name), zap.Error(err))
		return err
	}

	c.logger.Info("GitHub upload success", zap.String("file", name))
	return nil
}

// ListSnapshots returns the snapshot files under the snapshots prefix,
// newest first. A missing prefix means zero snapshots, not an error.
func (c *Client) ListSnapshots(ctx context.Context) ([]Content, error) {
	resp, err := c.do(ctx, http.MethodGet, snapshotDir, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return []Content{}, nil
	}
	if err := validateResponse(resp, "list snapshots failed"); err != nil {
		return nil, err
	}

	var contents []Content
	if err := json.NewDecoder(resp.Body).Decode(&contents); err != nil {
		return nil, fmt.Errorf("failed to parse listing: %w", err)
	}

	snapshots := make([]Content, 0, len(contents))
	for _, entry := range contents {
		if !strings.EqualFold(entry.Type, "file") {
			continue
		}
		if !strings.HasPrefix(entry.Name, snapshotFilePrefix) {
			continue
		}
		snapshots = append(snapshots, entry)
	}

	// Names embed a fixed-width timestamp, so name order is chronological.
	sort.Slice(snapshots, func(i, j int) bool {
		return snapshots[i].Name > snapshots[j].Name
	})

	return snapshots, nil
}

// Delete removes a snapshot file. The entry's SHA is the precondition; if
// the file changed remotely since it was listed, the remote rejects the call.
func (c *Client) Delete(ctx context.Context, file Content) error {
	body := map[string]interface{}{
		"message": "Delete old snapshot: " + file.Name,
		"sha":     file.SHA,
		"branch":  c.config.Branch,
	}

	resp, err := c.do(ctx, http.MethodDelete, file.Path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := validateResponse(resp, "delete failed"); err != nil {
		return err
	}

	c.logger.Info("Deleted snapshot", zap.String("file", file.Name))
	return nil
}

// do issues one authenticated contents API call.
func (c *Client) do(ctx context.Context, method, contentPath string, body interface{}) (*http.Response, error) {
	endpoint := fmt.Sprintf("%s/repos/%s/%s/contents/%s",
		c.config.BaseURL, c.config.Owner, c.config.Repo, contentPath)

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.config.Token)
	req.Header.Set("Accept", acceptHeader)
	req.Header.Set("X-GitHub-Api-Version", apiVersion)
	req.Header.Set("User-Agent", userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("github request failed: %w", err)
	}

	return resp, nil
}

func validateResponse(resp *http.Response, msg string) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	if len(detail) > 0 {
		msg = fmt.Sprintf("%s: %s", msg, strings.TrimSpace(string(detail)))
	}

	return &APIError{
		StatusCode: resp.StatusCode,
		Message:    msg,
	}
}
