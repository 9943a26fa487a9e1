package escape

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/jihyuk/escapemap-cli/internal/domain"
)

const defaultBaseURL = "http://localhost:8080/api/v1"

// HTTPClient is implemented by http.Client.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client queries the directory backend.
type Client struct {
	httpClient     HTTPClient
	baseURL        string
	authToken      string
	minRequestGap  time.Duration
	requestWindowM sync.Mutex
	nextRequestAt  time.Time
	verboseOutput  io.Writer
	verboseOutputM sync.RWMutex
}

// Option applies Client options.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(httpClient HTTPClient) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithBaseURL replaces the default backend base URL. Empty values keep the
// default.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/"); trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// WithAuthToken attaches a bearer token to every request.
func WithAuthToken(token string) Option {
	return func(c *Client) {
		c.authToken = strings.TrimSpace(token)
	}
}

// WithRequestMinInterval limits request burst by enforcing a minimum delay
// between backend calls.
func WithRequestMinInterval(interval time.Duration) Option {
	return func(c *Client) {
		if interval < 0 {
			interval = 0
		}
		c.minRequestGap = interval
	}
}

// WithVerboseOutput enables per-request trace output for backend HTTP calls.
func WithVerboseOutput(out io.Writer) Option {
	return func(c *Client) {
		c.SetVerboseOutput(out)
	}
}

// NewClient creates a production directory gateway client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 20 * time.Second},
		baseURL:    defaultBaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetVerboseOutput sets the destination for verbose HTTP trace lines.
func (c *Client) SetVerboseOutput(out io.Writer) {
	c.verboseOutputM.Lock()
	c.verboseOutput = out
	c.verboseOutputM.Unlock()
}

// envelope is the backend response wrapper.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	rawURL := c.baseURL + path

	var bodyReader io.Reader
	bodyBytes := 0
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		bodyBytes = len(payload)
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, bodyReader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}
	if err := c.waitForRequestSlot(ctx); err != nil {
		return err
	}

	startedAt := time.Now()
	c.traceRequestStart(method, rawURL, bodyBytes)

	res, err := c.httpClient.Do(req)
	if err != nil {
		upstreamErr := &UpstreamRequestError{Method: method, URL: rawURL, Cause: err}
		c.traceRequestDone(method, rawURL, 0, 0, startedAt, upstreamErr)
		return upstreamErr
	}
	defer func() {
		_ = res.Body.Close()
	}()

	rawResponse, err := io.ReadAll(res.Body)
	if err != nil {
		upstreamErr := &UpstreamRequestError{
			Method:     method,
			URL:        rawURL,
			StatusCode: res.StatusCode,
			Cause:      fmt.Errorf("read response body: %w", err),
		}
		c.traceRequestDone(method, rawURL, res.StatusCode, 0, startedAt, upstreamErr)
		return upstreamErr
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		upstreamErr := &UpstreamRequestError{
			Method:     method,
			URL:        rawURL,
			StatusCode: res.StatusCode,
			Body:       string(rawResponse),
		}
		c.traceRequestDone(method, rawURL, res.StatusCode, len(rawResponse), startedAt, upstreamErr)
		return upstreamErr
	}

	var env envelope
	if err := json.Unmarshal(rawResponse, &env); err != nil {
		upstreamErr := &UpstreamRequestError{
			Method:     method,
			URL:        rawURL,
			StatusCode: res.StatusCode,
			Body:       string(rawResponse),
			Cause:      fmt.Errorf("decode response body: %w", err),
		}
		c.traceRequestDone(method, rawURL, res.StatusCode, len(rawResponse), startedAt, upstreamErr)
		return upstreamErr
	}
	c.traceRequestDone(method, rawURL, res.StatusCode, len(rawResponse), startedAt, nil)

	if !env.Success {
		apiErr := &APIError{Message: "request failed"}
		if env.Error != nil {
			apiErr.Code = env.Error.Code
			apiErr.Message = env.Error.Message
		}
		return apiErr
	}
	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return &UpstreamRequestError{
			Method:     method,
			URL:        rawURL,
			StatusCode: res.StatusCode,
			Body:       string(rawResponse),
			Cause:      fmt.Errorf("decode data payload: %w", err),
		}
	}
	return nil
}

// Branches lists all approved branches with their themes.
func (c *Client) Branches(ctx context.Context) ([]domain.Branch, error) {
	var payload []wireBranch
	if err := c.do(ctx, http.MethodGet, "/branches", nil, &payload); err != nil {
		return nil, err
	}
	branches := make([]domain.Branch, 0, len(payload))
	for _, b := range payload {
		branches = append(branches, b.toDomain())
	}
	return branches, nil
}

// BranchByID fetches one branch.
func (c *Client) BranchByID(ctx context.Context, id string) (*domain.Branch, error) {
	parsed, err := backendID(id)
	if err != nil {
		return nil, err
	}
	var payload wireBranch
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/branches/%d", parsed), nil, &payload); err != nil {
		return nil, err
	}
	branch := payload.toDomain()
	return &branch, nil
}

// CreateBranch registers an approved branch with the backend.
func (c *Client) CreateBranch(ctx context.Context, in CreateBranchInput) (*domain.Branch, error) {
	themes := make([]map[string]any, 0, len(in.Themes))
	for _, t := range in.Themes {
		themes = append(themes, map[string]any{
			"name":                t.Name,
			"description":         t.Description,
			"posterUrl":           t.PosterURL,
			"pointDifficulty":     t.Difficulty,
			"pointFear":           t.Fear,
			"pointActivity":       t.Activity,
			"pointRecommendation": t.Recommendation,
			"tags":                joinTags(t.Tags),
		})
	}
	body := map[string]any{
		"brandName":  in.BrandName,
		"branchName": in.BranchName,
		"address":    in.Address,
		"latitude":   in.Lat,
		"longitude":  in.Lng,
		"websiteUrl": in.WebsiteURL,
		"phone":      in.Phone,
		"themes":     themes,
	}
	var payload wireBranch
	if err := c.do(ctx, http.MethodPost, "/branches", body, &payload); err != nil {
		return nil, err
	}
	branch := payload.toDomain()
	return &branch, nil
}

// DeleteBranch removes a branch and its themes from the backend.
func (c *Client) DeleteBranch(ctx context.Context, id string) error {
	parsed, err := backendID(id)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/branches/%d/delete", parsed), nil, nil)
}

// Themes lists every theme across all branches with denormalized branch ids.
func (c *Client) Themes(ctx context.Context) ([]domain.ThemeDisplay, error) {
	var payload []wireTheme
	if err := c.do(ctx, http.MethodGet, "/themes", nil, &payload); err != nil {
		return nil, err
	}
	themes := make([]domain.ThemeDisplay, 0, len(payload))
	for _, t := range payload {
		themes = append(themes, domain.ThemeDisplay{
			Theme:    t.toDomain(),
			BranchID: string(t.BranchID),
		})
	}
	return themes, nil
}

// ThemeByID fetches one theme.
func (c *Client) ThemeByID(ctx context.Context, id string) (*domain.Theme, error) {
	parsed, err := backendID(id)
	if err != nil {
		return nil, err
	}
	var payload wireTheme
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/themes/%d", parsed), nil, &payload); err != nil {
		return nil, err
	}
	theme := payload.toDomain()
	return &theme, nil
}

// ThemesByBranch lists the themes of one branch.
func (c *Client) ThemesByBranch(ctx context.Context, branchID string) ([]domain.Theme, error) {
	parsed, err := backendID(branchID)
	if err != nil {
		return nil, err
	}
	var payload []wireTheme
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/branches/%d/themes", parsed), nil, &payload); err != nil {
		return nil, err
	}
	themes := make([]domain.Theme, 0, len(payload))
	for _, t := range payload {
		themes = append(themes, t.toDomain())
	}
	return themes, nil
}

// ReviewsByTheme lists reviews for one theme, newest first per backend order.
func (c *Client) ReviewsByTheme(ctx context.Context, themeID string) ([]domain.Review, error) {
	parsed, err := backendID(themeID)
	if err != nil {
		return nil, err
	}
	var payload []wireReview
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/themes/%d/reviews", parsed), nil, &payload); err != nil {
		return nil, err
	}
	reviews := make([]domain.Review, 0, len(payload))
	for _, r := range payload {
		reviews = append(reviews, r.toDomain())
	}
	return reviews, nil
}

// CreateReview submits a review.
func (c *Client) CreateReview(ctx context.Context, in CreateReviewInput) (*domain.Review, error) {
	parsed, err := backendID(in.ThemeID)
	if err != nil {
		return nil, err
	}
	body := map[string]any{
		"themeId":             parsed,
		"nickname":            in.Nickname,
		"pointDifficulty":     in.Difficulty,
		"pointFear":           in.Fear,
		"pointActivity":       in.Activity,
		"pointRecommendation": in.Recommendation,
		"comment":             in.Comment,
	}
	var payload wireReview
	if err := c.do(ctx, http.MethodPost, "/reviews", body, &payload); err != nil {
		return nil, err
	}
	review := payload.toDomain()
	return &review, nil
}

// DeleteReview removes a review.
func (c *Client) DeleteReview(ctx context.Context, id string) error {
	parsed, err := backendID(id)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/reviews/%d/delete", parsed), nil, nil)
}

// Register creates an account.
func (c *Client) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	body := map[string]any{
		"email":    in.Email,
		"password": in.Password,
		"nickname": in.Nickname,
	}
	var payload AuthResult
	if err := c.do(ctx, http.MethodPost, "/auth/register", body, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// Login authenticates and returns the session token.
func (c *Client) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	body := map[string]any{
		"email":    in.Email,
		"password": in.Password,
	}
	var payload AuthResult
	if err := c.do(ctx, http.MethodPost, "/auth/login", body, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// Advertisements lists banner entries.
func (c *Client) Advertisements(ctx context.Context) ([]domain.Advertisement, error) {
	var payload []wireAd
	if err := c.do(ctx, http.MethodGet, "/advertisements", nil, &payload); err != nil {
		return nil, err
	}
	ads := make([]domain.Advertisement, 0, len(payload))
	for _, ad := range payload {
		ads = append(ads, ad.toDomain())
	}
	return ads, nil
}

func (c *Client) traceRequestStart(method, rawURL string, bodyBytes int) {
	if bodyBytes > 0 {
		c.tracef("[http] -> %s %s body_bytes=%d", method, rawURL, bodyBytes)
		return
	}
	c.tracef("[http] -> %s %s", method, rawURL)
}

func (c *Client) traceRequestDone(method, rawURL string, statusCode int, responseBytes int, startedAt time.Time, reqErr error) {
	duration := time.Since(startedAt).Round(time.Millisecond)
	if reqErr != nil {
		c.tracef("[http] <- %s %s error=%v duration=%s", method, rawURL, reqErr, duration)
		return
	}
	c.tracef(
		"[http] <- %s %s status=%d duration=%s bytes=%d",
		method,
		rawURL,
		statusCode,
		duration,
		responseBytes,
	)
}

func (c *Client) waitForRequestSlot(ctx context.Context) error {
	interval := c.minRequestGap
	if interval <= 0 {
		return nil
	}
	for {
		c.requestWindowM.Lock()
		wait := time.Until(c.nextRequestAt)
		if wait <= 0 {
			c.nextRequestAt = time.Now().Add(interval)
			c.requestWindowM.Unlock()
			return nil
		}
		c.requestWindowM.Unlock()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

func (c *Client) tracef(format string, args ...any) {
	c.verboseOutputM.RLock()
	out := c.verboseOutput
	c.verboseOutputM.RUnlock()
	if out == nil {
		return
	}
	_, _ = fmt.Fprintf(out, format+"\n", args...)
}
