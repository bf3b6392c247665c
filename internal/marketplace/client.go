// SPDX-License-Identifier: MPL-2.0

package marketplace

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"doppio-engine/internal/engineerr"
	"doppio-engine/internal/hostresolve"
)

// Retry policy for transient marketplace failures: 300ms base, doubling, capped at
// 3s, up to 5 attempts.
const (
	retryWaitMin = 300 * time.Millisecond
	retryWaitMax = 3 * time.Second
	retryMax     = 5
)

// Client is the engine's narrow MarketplaceAPI client
// (start/stop/destroy by instance id), plus the
// instance-lookup call HostResolver needs for `vast:<n>` host ids.
type Client struct {
	http    *retryablehttp.Client
	baseURL string
	apiKey  string
}

// NewClient returns a Client against baseURL, authenticating with apiKey
// (resolved by the caller from SecretsStore beforehand — this package never
// touches the keychain itself).
func NewClient(baseURL, apiKey string) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryWaitMin = retryWaitMin
	rc.RetryWaitMax = retryWaitMax
	rc.RetryMax = retryMax
	rc.Backoff = retryablehttp.DefaultBackoff

	return &Client{
		http:    rc,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
	}
}

// instanceResponse is the subset of the marketplace's instance record the
// engine consumes.
type instanceResponse struct {
	Instances struct {
		SSHHost string `json:"ssh_host"`
		SSHPort int    `json:"ssh_port"`
		Status  string `json:"actual_status"`
	} `json:"instances"`
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, engineerr.Internal("marketplace.Client.do", fmt.Errorf("encoding request body: %w", err))
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, engineerr.Internal("marketplace.Client.do", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, engineerr.Network("marketplace.Client.do", fmt.Errorf("%s %s: %w", method, path, err))
	}
	if resp.StatusCode >= 300 {
		defer resp.Body.Close()
		return nil, engineerr.MarketplaceAPI("marketplace.Client.do", fmt.Errorf("%s %s: status %d", method, path, resp.StatusCode))
	}
	return resp, nil
}

// InstanceSSH implements hostresolve.Marketplace: it looks up instanceID
// and returns its current SSH reachability info.
func (c *Client) InstanceSSH(ctx context.Context, instanceID string) (hostresolve.MarketplaceInstance, error) {
	resp, err := c.do(ctx, http.MethodGet, "/instances/"+instanceID+"/", nil)
	if err != nil {
		return hostresolve.MarketplaceInstance{}, err
	}
	defer resp.Body.Close()

	var parsed instanceResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return hostresolve.MarketplaceInstance{}, engineerr.MarketplaceAPI("marketplace.Client.InstanceSSH", fmt.Errorf("decoding response: %w", err))
	}
	if parsed.Instances.SSHHost == "" {
		return hostresolve.MarketplaceInstance{}, engineerr.Network("marketplace.Client.InstanceSSH",
			fmt.Errorf("instance %q has no ssh_host yet (status %q)", instanceID, parsed.Instances.Status))
	}
	return hostresolve.MarketplaceInstance{
		SSHHost: parsed.Instances.SSHHost,
		SSHPort: parsed.Instances.SSHPort,
	}, nil
}

// Start starts instanceID (VastStart).
func (c *Client) Start(ctx context.Context, instanceID string) error {
	resp, err := c.do(ctx, http.MethodPut, "/instances/"+instanceID+"/", map[string]string{"state": "running"})
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return nil
}

// Stop stops instanceID (VastStop).
func (c *Client) Stop(ctx context.Context, instanceID string) error {
	resp, err := c.do(ctx, http.MethodPut, "/instances/"+instanceID+"/", map[string]string{"state": "stopped"})
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return nil
}

// Destroy terminates instanceID permanently (VastDestroy).
func (c *Client) Destroy(ctx context.Context, instanceID string) error {
	resp, err := c.do(ctx, http.MethodDelete, "/instances/"+instanceID+"/", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return nil
}
