package tailscale

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"tailscale.com/client/local"
)

var ErrFailedRequest = errors.New("failed localapi call")

// localAPIHost is the placeholder host tailscaled expects on LocalAPI requests.
const localAPIHost = "local-tailscaled.sock"

var allowedReadPaths = map[string]struct{}{
	"/localapi/v0/status":       {},
	"/localapi/v0/prefs":        {},
	"/localapi/v0/tka/status":   {},
	"/localapi/v0/serve-config": {},
}

// Client is a strict read-only LocalAPI client.
type Client struct {
	lc      *local.Client
	timeout time.Duration
}

// NewClient talks to tailscaled over socketPath, or the platform default when empty.
func NewClient(socketPath string, timeout time.Duration) *Client {
	return &Client{
		lc: &local.Client{
			Socket:        socketPath,
			UseSocketOnly: socketPath != "",
		},
		timeout: timeout,
	}
}

// NewClientWithDialer is used when tailscaled is reachable through something other
// than its unix socket, e.g. a TCP forward.
func NewClientWithDialer(dial func(ctx context.Context, network, addr string) (net.Conn, error), timeout time.Duration) *Client {
	return &Client{
		lc:      &local.Client{Dial: dial},
		timeout: timeout,
	}
}

func (c *Client) GetStatus(ctx context.Context) (*Status, error) {
	var out Status
	if err := c.getJSON(ctx, "/localapi/v0/status", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetPrefs(ctx context.Context) (*Prefs, error) {
	var out Prefs
	if err := c.getJSON(ctx, "/localapi/v0/prefs", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetLockStatus returns nil without error when tailscaled answers with a JSON null.
func (c *Client) GetLockStatus(ctx context.Context) (*LockStatus, error) {
	var out *LockStatus
	if err := c.getJSON(ctx, "/localapi/v0/tka/status", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetServeConfig(ctx context.Context) (*ServeConfig, error) {
	var out ServeConfig
	if err := c.getJSON(ctx, "/localapi/v0/serve-config", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	if _, ok := allowedReadPaths[path]; !ok {
		return fmt.Errorf("path %q is not allowed in read-only mode", path)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://"+localAPIHost+path, nil)
	if err != nil {
		return fmt.Errorf("build request %s: %w", path, err)
	}

	resp, err := c.lc.DoLocalRequest(req)
	if err != nil {
		return fmt.Errorf("request %s: %w: %w", path, ErrFailedRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("request %s failed with status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response %s: %w", path, err)
	}

	return nil
}
