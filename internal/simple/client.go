// Package simple implements bank.Account for the Simple online banking API.
package simple

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/publicsuffix"

	"github.com/Veraticus/budget-sync/internal/bank"
	"github.com/Veraticus/budget-sync/internal/common"
	"github.com/Veraticus/budget-sync/internal/model"
)

const (
	// DefaultBaseURL is the production Simple endpoint.
	DefaultBaseURL = "https://bank.simple.com"

	signinPath       = "/signin"
	balancesPath     = "/account/balances"
	transactionsPath = "/transactions/data"

	defaultTimeout = 30 * time.Second
	maxErrorBody   = 512
)

var (
	csrfInput = regexp.MustCompile(`name="_csrf"\s+value="([^"]+)"`)
	csrfMeta  = regexp.MustCompile(`<meta\s+name="_csrf"\s+content="([^"]+)"`)
)

// Config holds the Simple credentials.
type Config struct {
	Username string
	Password string
	BaseURL  string
	Timeout  time.Duration
}

// Validate checks that credentials are present and the base URL parses.
func (c Config) Validate() error {
	if c.Username == "" || c.Password == "" {
		return fmt.Errorf("simple username and password are required: %w", common.ErrMissingConfig)
	}
	if c.BaseURL != "" {
		u, err := url.Parse(c.BaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid simple base url %q: %w", c.BaseURL, common.ErrInvalidConfig)
		}
	}
	return nil
}

// Client is a cookie-session HTTP client for a single Simple account.
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	config     Config
	baseURL    string
	loggedIn   bool
	mu         sync.RWMutex
}

// NewClient creates a client; call Login before fetching data.
func NewClient(config Config, logger *slog.Logger) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	timeout := config.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &Client{
		config:  config,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Jar:     jar,
			Timeout: timeout,
		},
		logger: logger.With("component", "simple"),
	}, nil
}

// Login fetches the sign-in form and submits the credentials with its CSRF token.
func (c *Client) Login(ctx context.Context) error {
	page, err := c.get(ctx, signinPath)
	if err != nil {
		return fmt.Errorf("failed to load sign-in page: %w", err)
	}

	token, err := extractCSRF(page)
	if err != nil {
		return err
	}

	form := url.Values{}
	form.Set("username", c.config.Username)
	form.Set("password", c.config.Password)
	form.Set("_csrf", token)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+signinPath, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create sign-in request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to sign in: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read sign-in response: %w", err)
	}

	// A rejected login answers with an error status or the sign-in form again.
	if resp.StatusCode >= http.StatusBadRequest || hasCSRF(body) {
		return fmt.Errorf("simple rejected credentials for %s (status %d): %w",
			c.config.Username, resp.StatusCode, common.ErrAuthentication)
	}

	c.mu.Lock()
	c.loggedIn = true
	c.mu.Unlock()

	c.logger.Info("logged in", "username", c.config.Username)
	return nil
}

// Balance returns the account balances.
func (c *Client) Balance(ctx context.Context) (model.Balances, error) {
	var balances model.Balances
	if err := c.getJSON(ctx, balancesPath, &balances); err != nil {
		return model.Balances{}, fmt.Errorf("failed to fetch balances: %w", err)
	}
	return balances, nil
}

// Transactions returns every transaction the bank reports.
func (c *Client) Transactions(ctx context.Context) (model.TransactionList, error) {
	var list model.TransactionList
	if err := c.getJSON(ctx, transactionsPath, &list); err != nil {
		return model.TransactionList{}, fmt.Errorf("failed to fetch transactions: %w", err)
	}

	c.logger.Debug("fetched transactions", "count", len(list.Transactions))
	return list, nil
}

func (c *Client) getJSON(ctx context.Context, path string, v any) error {
	c.mu.RLock()
	loggedIn := c.loggedIn
	c.mu.RUnlock()
	if !loggedIn {
		return common.ErrNotLoggedIn
	}

	body, err := c.get(ctx, path)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json, text/html")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("simple API error %d - %s: %w",
			resp.StatusCode, truncate(body), common.ErrUnexpectedResponse)
	}

	return body, nil
}

func extractCSRF(page []byte) (string, error) {
	for _, re := range []*regexp.Regexp{csrfInput, csrfMeta} {
		if m := re.FindSubmatch(page); m != nil {
			return string(m[1]), nil
		}
	}
	return "", fmt.Errorf("sign-in page has no _csrf token: %w", common.ErrUnexpectedResponse)
}

func hasCSRF(page []byte) bool {
	_, err := extractCSRF(page)
	return err == nil
}

func truncate(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > maxErrorBody {
		return s[:maxErrorBody] + "..."
	}
	return s
}

// Ensure Client implements the bank.Account interface.
var _ bank.Account = (*Client)(nil)
