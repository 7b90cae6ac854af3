package shooter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// JobClient submits generation jobs and checks their status.
// This interface is implemented by *Client and can be used for testing.
type JobClient interface {
	Submit(ctx context.Context, req GenerationRequest) (SubmitResult, error)
	Poll(ctx context.Context, handle JobHandle) (PollOutcome, error)
}

// Session answers whether the viewer is signed in and where to sign in.
type Session interface {
	Authenticated() bool
	LoginURL() string
}

// Ensure Client implements JobClient and Session at compile time.
var (
	_ JobClient = (*Client)(nil)
	_ Session   = (*Client)(nil)
)

const (
	defaultBaseURL   = "127.0.0.1:8000"
	defaultLoginPath = "/accounts/login/"
	defaultUserAgent = "shooter/0.1"
	requestTimeout   = 30 * time.Second
	maxResponseBytes = 1 << 20

	sessionCookie = "sessionid"
	csrfCookie    = "csrftoken"
	csrfHeader    = "X-CSRFToken"

	submitPath = "/images/generate/"
	statusPath = "/images/status/"
)

// ClientConfig configures NewClient.
type ClientConfig struct {
	BaseURL       string
	LoginPath     string
	SessionCookie string
	CSRFToken     string
	Timeout       time.Duration
	UserAgent     string
	Logger        zerolog.Logger
}

// Client talks to the image generation HTTP API.
type Client struct {
	baseURL   *url.URL
	loginPath string
	http      *http.Client
	userAgent string
	logger    zerolog.Logger
}

// NewClient builds a Client. The session and anti-forgery cookies are seeded into
// the client's cookie jar so the server sees the same cookies a browser would send.
func NewClient(cfg ClientConfig) (*Client, error) {
	base, err := parseBaseURL(cfg.BaseURL)
	if err != nil {
		return nil, err
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}
	var cookies []*http.Cookie
	if v := strings.TrimSpace(cfg.SessionCookie); v != "" {
		cookies = append(cookies, &http.Cookie{Name: sessionCookie, Value: v, Path: "/"})
	}
	if v := strings.TrimSpace(cfg.CSRFToken); v != "" {
		cookies = append(cookies, &http.Cookie{Name: csrfCookie, Value: v, Path: "/"})
	}
	if len(cookies) > 0 {
		jar.SetCookies(base, cookies)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = requestTimeout
	}
	loginPath := strings.TrimSpace(cfg.LoginPath)
	if loginPath == "" {
		loginPath = defaultLoginPath
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	return &Client{
		baseURL:   base,
		loginPath: loginPath,
		http: &http.Client{
			Timeout: timeout,
			Jar:     jar,
		},
		userAgent: userAgent,
		logger:    cfg.Logger,
	}, nil
}

// BaseURL returns the normalized API root.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// HTTPClient returns the underlying client, cookie jar included, for fetching
// image URLs the API hands out.
func (c *Client) HTTPClient() *http.Client {
	return c.http
}

// Authenticated reports whether a session cookie is present.
func (c *Client) Authenticated() bool {
	return c.cookie(sessionCookie) != ""
}

// LoginURL returns the page a viewer must visit to sign in.
func (c *Client) LoginURL() string {
	return c.resolve(c.loginPath)
}

// Submit sends the multipart generation request. Anything other than an accepted,
// queued job comes back as a *SubmitError.
func (c *Client) Submit(ctx context.Context, req GenerationRequest) (SubmitResult, error) {
	if c == nil {
		return SubmitResult{}, &SubmitError{Reason: DefaultFailureMessage, Err: errors.New("client is nil")}
	}
	body, contentType, err := encodeSubmission(req)
	if err != nil {
		return SubmitResult{}, &SubmitError{Reason: DefaultFailureMessage, Err: err}
	}

	reqURL := c.baseURL.ResolveReference(&url.URL{Path: submitPath})
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL.String(), body)
	if err != nil {
		return SubmitResult{}, &SubmitError{Reason: DefaultFailureMessage, Err: fmt.Errorf("create request: %w", err)}
	}
	requestID := uuid.NewString()
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("X-Request-ID", requestID)
	if token := c.cookie(csrfCookie); token != "" {
		httpReq.Header.Set(csrfHeader, token)
	}
	c.decorate(httpReq)

	c.logger.Debug().
		Str("request_id", requestID).
		Int("count", req.Count).
		Str("mode", string(req.Mode)).
		Int("image_bytes", len(req.Image)).
		Msg("submitting generation")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return SubmitResult{}, &SubmitError{Reason: err.Error(), Err: fmt.Errorf("execute request: %w", err)}
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return SubmitResult{}, &SubmitError{Reason: err.Error(), StatusCode: resp.StatusCode, Err: fmt.Errorf("read response: %w", err)}
	}

	var payload submitResponse
	decodeErr := json.Unmarshal(raw, &payload)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		reason := strings.TrimSpace(payload.Error)
		if decodeErr != nil || reason == "" {
			reason = DefaultFailureMessage
		}
		return SubmitResult{}, &SubmitError{
			Reason:     reason,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("api %s returned status %d", submitPath, resp.StatusCode),
		}
	}
	if decodeErr != nil {
		c.logger.Warn().Err(decodeErr).Str("request_id", requestID).Msg("submit response not json")
		return SubmitResult{}, &SubmitError{
			Reason:     DefaultFailureMessage,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("decode response: %w: %v", ErrMalformedResponse, decodeErr),
		}
	}
	if !strings.EqualFold(strings.TrimSpace(payload.Status), statusQueued) || strings.TrimSpace(payload.TaskID) == "" {
		reason := strings.TrimSpace(payload.Error)
		if reason == "" {
			reason = DefaultFailureMessage
		}
		c.logger.Warn().Str("request_id", requestID).Str("status", payload.Status).Msg("submit response lacks queued job")
		return SubmitResult{}, &SubmitError{
			Reason:     reason,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("decode response: %w: no queued job", ErrMalformedResponse),
		}
	}

	handle := JobHandle{TaskID: strings.TrimSpace(payload.TaskID), SubmittedAt: time.Now()}
	c.logger.Info().Str("request_id", requestID).Str("task_id", handle.TaskID).Msg("generation queued")
	return SubmitResult{Handle: handle, Credits: payload.NewCredits}, nil
}

// Poll performs exactly one status check. Transport failures come back as a
// *PollError; every server answer, including a garbled one, becomes a PollOutcome.
func (c *Client) Poll(ctx context.Context, handle JobHandle) (PollOutcome, error) {
	if c == nil {
		return PollOutcome{}, &PollError{TaskID: handle.TaskID, Err: errors.New("client is nil")}
	}
	taskID := strings.TrimSpace(handle.TaskID)
	if taskID == "" {
		return PollOutcome{}, &PollError{Err: errors.New("task id required")}
	}

	rel := &url.URL{
		Path:    statusPath + taskID + "/",
		RawPath: statusPath + url.PathEscape(taskID) + "/",
	}
	reqURL := c.baseURL.ResolveReference(rel)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return PollOutcome{}, &PollError{TaskID: taskID, Err: fmt.Errorf("create request: %w", err)}
	}
	c.decorate(httpReq)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return PollOutcome{}, &PollError{TaskID: taskID, Err: fmt.Errorf("execute request: %w", err)}
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return PollOutcome{}, &PollError{TaskID: taskID, Err: fmt.Errorf("read response: %w", err)}
	}

	var payload statusResponse
	if err := json.Unmarshal(raw, &payload); err != nil {
		c.logger.Warn().
			Err(fmt.Errorf("%w: %v", ErrMalformedResponse, err)).
			Str("task_id", taskID).
			Int("status_code", resp.StatusCode).
			Msg("status response not json")
		out := Failed("")
		out.Malformed = true
		return out, nil
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := payload.Message
		if strings.TrimSpace(msg) == "" {
			msg = payload.Error
		}
		c.logger.Warn().Str("task_id", taskID).Int("status_code", resp.StatusCode).Msg("status check rejected")
		return Failed(msg), nil
	}

	out := payload.outcome(c.resolve)
	if out.Malformed {
		c.logger.Warn().Str("task_id", taskID).Str("status", payload.Status).Msg("unknown job status")
	}
	return out, nil
}

func (c *Client) decorate(req *http.Request) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
}

func (c *Client) cookie(name string) string {
	if c.http.Jar == nil {
		return ""
	}
	for _, ck := range c.http.Jar.Cookies(c.baseURL) {
		if ck.Name == name {
			return ck.Value
		}
	}
	return ""
}

// resolve makes a server-relative reference absolute against the base URL.
func (c *Client) resolve(ref string) string {
	u, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return ref
	}
	return c.baseURL.ResolveReference(u).String()
}

func encodeSubmission(req GenerationRequest) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	filename := strings.TrimSpace(req.Filename)
	if filename == "" {
		filename = "image.png"
	}
	part, err := w.CreateFormFile("image", filename)
	if err != nil {
		return nil, "", fmt.Errorf("create image part: %w", err)
	}
	if _, err := part.Write(req.Image); err != nil {
		return nil, "", fmt.Errorf("write image part: %w", err)
	}
	fields := []struct{ name, value string }{
		{"count", strconv.Itoa(req.Count)},
		{"mode", string(req.Mode)},
		{"user_prompt", req.UserPrompt},
	}
	for _, f := range fields {
		if err := w.WriteField(f.name, f.value); err != nil {
			return nil, "", fmt.Errorf("write %s field: %w", f.name, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart body: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}

func parseBaseURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		trimmed = defaultBaseURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse base_url %q: %w", raw, err)
	}
	u.Path = ""
	u.RawPath = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
