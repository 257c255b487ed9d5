package deviceconfig

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// DefaultUsername is the default HTTP Basic Auth username for the local configuration server
	DefaultUsername = "SmarTap"

	// DefaultPassword is the default HTTP Basic Auth password for the local configuration server
	DefaultPassword = "yeswecan"

	// DefaultPort is the default port of the local configuration server
	DefaultPort = 8080

	// DefaultTimeout is the default HTTP request timeout
	DefaultTimeout = 10 * time.Second

	// DefaultMaxRetries is the default number of retry attempts for failed requests
	DefaultMaxRetries = 3

	// DefaultRetryDelay is the default delay between retry attempts
	DefaultRetryDelay = 1 * time.Second

	// DefaultMaxRetryDelay is the maximum delay for exponential backoff
	DefaultMaxRetryDelay = 30 * time.Second
)

// Client talks to a device's local configuration server.
type Client struct {
	// BaseURL is the base URL for the device (e.g., "http://192.168.4.16:8080")
	BaseURL string

	Username string
	Password string

	HTTPClient *http.Client

	// MaxRetries is the maximum number of retry attempts for retryable failures
	MaxRetries int

	// RetryDelay is the initial delay between retry attempts; it doubles up to MaxRetryDelay
	RetryDelay    time.Duration
	MaxRetryDelay time.Duration
}

// NewClient creates a new device configuration client
// ip: Device IP address (e.g., "192.168.4.16")
// port: Local configuration server port (typically 8080)
func NewClient(ip string, port int) *Client {
	return NewClientWithURL(fmt.Sprintf("http://%s:%d", ip, port))
}

// NewClientWithURL creates a new client with a full base URL
func NewClientWithURL(baseURL string) *Client {
	return &Client{
		BaseURL:       strings.TrimRight(baseURL, "/"),
		Username:      DefaultUsername,
		Password:      DefaultPassword,
		HTTPClient:    &http.Client{Timeout: DefaultTimeout},
		MaxRetries:    DefaultMaxRetries,
		RetryDelay:    DefaultRetryDelay,
		MaxRetryDelay: DefaultMaxRetryDelay,
	}
}

// SetAuth sets custom HTTP Basic Auth credentials
func (c *Client) SetAuth(username, password string) {
	c.Username = username
	c.Password = password
}

// SetRetry configures retry behavior
func (c *Client) SetRetry(maxRetries int, retryDelay time.Duration) {
	c.MaxRetries = maxRetries
	c.RetryDelay = retryDelay
}

// EventsURL returns the websocket URL of the live event stream.
func (c *Client) EventsURL() string {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return ""
	}
	if u.Scheme == "https" {
		u.Scheme = "wss"
	} else {
		u.Scheme = "ws"
	}
	u.Path = "/events"
	return u.String()
}

// GetConfiguration retrieves the device view.
func (c *Client) GetConfiguration(ctx context.Context) (*DeviceView, error) {
	var view *DeviceView
	err := c.withRetry(ctx, func() error {
		body, err := c.do(ctx, http.MethodGet, "/", nil)
		if err != nil {
			return err
		}
		v, err := ParseDeviceView(body)
		if err != nil {
			return NewParseError("failed to parse device view", err)
		}
		view = v
		return nil
	})
	return view, err
}

// UpdateWiFi pushes network credentials. A device in provisioning mode
// persists them and reboots into connected operation.
func (c *Client) UpdateWiFi(ctx context.Context, config *WiFiConfig) error {
	if errs := ValidateWiFiConfig(config); len(errs) > 0 {
		return errs[0]
	}
	form := config.ToFormData()
	return c.withRetry(ctx, func() error {
		_, err := c.do(ctx, http.MethodPost, "/", form)
		return err
	})
}

// SendSystemCommand requests a lifecycle transition on the device.
// Commands are not retried: a reset that was accepted but whose response
// was lost must not be issued twice.
func (c *Client) SendSystemCommand(ctx context.Context, cmd SystemCommand) error {
	if _, err := ParseSystemCommand(string(cmd)); err != nil {
		return err
	}
	_, err := c.do(ctx, http.MethodPost, "/system", cmd.ToFormData())
	return err
}

func (c *Client) withRetry(ctx context.Context, attempt func() error) error {
	var lastErr error
	delay := c.RetryDelay

	for i := 0; i <= c.MaxRetries; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return NewNetworkError("request cancelled", ctx.Err())
			case <-time.After(delay):
			}
			delay *= 2
			if delay > c.MaxRetryDelay {
				delay = c.MaxRetryDelay
			}
		}

		lastErr = attempt()
		if lastErr == nil || !IsRetryable(lastErr) {
			return lastErr
		}
	}
	return lastErr
}

func (c *Client) do(ctx context.Context, method, path string, form url.Values) ([]byte, error) {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return nil, NewNetworkError(fmt.Sprintf("failed to create %s request", method), err)
	}
	req.SetBasicAuth(c.Username, c.Password)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, NewNetworkError(fmt.Sprintf("%s request failed", method), err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, NewNetworkError("failed to read response body", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, NewAuthError("authentication failed (check credentials)")
	case resp.StatusCode == http.StatusOK, resp.StatusCode == http.StatusNoContent, resp.StatusCode == http.StatusAccepted:
		return data, nil
	default:
		return nil, NewHTTPError(resp.StatusCode, fmt.Sprintf("%s %s failed with status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(data))))
	}
}
