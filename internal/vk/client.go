// Package vk implements the parts of the VK API the relay reads from:
// message and user lookups and the user long-poll event stream.
package vk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"github.com/edgard/vkrelay/internal/config"
)

// ErrAPI is wrapped by every error VK reports in its response envelope.
var ErrAPI = errors.New("vk api error")

// ErrNotFound is returned when a lookup succeeds but yields no item.
var ErrNotFound = errors.New("vk: not found")

// APIError is an error reported by VK in the "error" envelope.
type APIError struct {
	Code    int    `json:"error_code"`
	Message string `json:"error_msg"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("vk api error %d: %s", e.Code, e.Message)
}

func (e *APIError) Unwrap() error { return ErrAPI }

// VK error codes worth retrying: too many requests per second and internal
// server error.
const (
	codeTooManyRequests = 6
	codeInternalError   = 10
)

// errTransient marks failures that may succeed when repeated.
var errTransient = errors.New("transient failure")

// defaultRetryDelay is the first backoff step between attempts of one call.
const defaultRetryDelay = time.Second

type envelope struct {
	Response json.RawMessage `json:"response"`
	Error    *APIError       `json:"error"`
}

// Client calls VK API methods with the configured token and version.
type Client struct {
	api        *resty.Client
	limiter    *rate.Limiter
	cfg        config.VKConfig
	logger     *slog.Logger
	retryDelay time.Duration
}

// NewClient creates a rate-limited VK API client.
func NewClient(cfg config.VKConfig, logger *slog.Logger) *Client {
	api := resty.New().
		SetBaseURL(strings.TrimRight(cfg.APIURL, "/")).
		SetTimeout(cfg.RequestTimeout).
		SetHeader("Accept", "application/json")

	return &Client{
		api:        api,
		limiter:    rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.RequestBurst),
		cfg:        cfg,
		logger:     logger.With("component", "vk_client"),
		retryDelay: defaultRetryDelay,
	}
}

// call invokes method with params and decodes the "response" payload into out.
// Transport failures, 5xx responses and transient VK error codes are retried
// with exponential backoff up to cfg.RequestAttempts times.
func (c *Client) call(ctx context.Context, method string, params map[string]string, out any) error {
	attempts := c.cfg.RequestAttempts
	if attempts == 0 {
		attempts = 1
	}

	return retry.Do(
		func() error { return c.do(ctx, method, params, out) },
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(c.retryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool { return errors.Is(err, errTransient) }),
		retry.OnRetry(func(n uint, err error) {
			c.logger.DebugContext(ctx, "Retrying VK request", "method", method, "attempt", n+1, "max_attempts", attempts, "error", err)
		}),
	)
}

func (c *Client) do(ctx context.Context, method string, params map[string]string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait for %s: %w", method, err)
	}

	form := make(map[string]string, len(params)+2)
	for k, v := range params {
		form[k] = v
	}
	form["access_token"] = c.cfg.Token
	form["v"] = c.cfg.APIVersion

	resp, err := c.api.R().
		SetContext(ctx).
		SetFormData(form).
		Post("/" + method)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("vk %s request failed: %w", method, err)
		}
		return fmt.Errorf("vk %s request failed: %w: %w", method, errTransient, err)
	}
	if resp.StatusCode() >= http.StatusInternalServerError {
		return fmt.Errorf("vk %s returned HTTP %d: %w", method, resp.StatusCode(), errTransient)
	}
	if resp.IsError() {
		return fmt.Errorf("vk %s returned HTTP %d", method, resp.StatusCode())
	}

	var env envelope
	if err := json.Unmarshal(resp.Body(), &env); err != nil {
		return fmt.Errorf("vk %s: failed to decode response: %w", method, err)
	}
	if env.Error != nil {
		c.logger.DebugContext(ctx, "VK API returned error", "method", method, "code", env.Error.Code, "message", env.Error.Message)
		if env.Error.Code == codeTooManyRequests || env.Error.Code == codeInternalError {
			return fmt.Errorf("vk %s: %w: %w", method, errTransient, env.Error)
		}
		return fmt.Errorf("vk %s: %w", method, env.Error)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(env.Response, out); err != nil {
		return fmt.Errorf("vk %s: failed to decode payload: %w", method, err)
	}
	return nil
}

// MessageByID fetches a message by its global id, including attachments,
// forwarded messages and action.
func (c *Client) MessageByID(ctx context.Context, id int64) (*Message, error) {
	var resp messagesResponse
	err := c.call(ctx, "messages.getById", map[string]string{
		"message_ids":    strconv.FormatInt(id, 10),
		"fields":         "name",
		"preview_length": strconv.Itoa(c.cfg.PreviewLength),
	}, &resp)
	if err != nil {
		return nil, err
	}
	if len(resp.Items) == 0 {
		return nil, fmt.Errorf("message %d: %w", id, ErrNotFound)
	}
	return &resp.Items[0], nil
}

// MessageByConversationID fetches a message by its conversation-local id.
func (c *Client) MessageByConversationID(ctx context.Context, peerID, conversationMessageID int64) (*Message, error) {
	var resp messagesResponse
	err := c.call(ctx, "messages.getByConversationMessageId", map[string]string{
		"peer_id":                  strconv.FormatInt(peerID, 10),
		"conversation_message_ids": strconv.FormatInt(conversationMessageID, 10),
	}, &resp)
	if err != nil {
		return nil, err
	}
	if len(resp.Items) == 0 {
		return nil, fmt.Errorf("message %d in peer %d: %w", conversationMessageID, peerID, ErrNotFound)
	}
	return &resp.Items[0], nil
}

// User fetches a user profile by id.
func (c *Client) User(ctx context.Context, id int64) (*User, error) {
	var users []User
	if err := c.call(ctx, "users.get", map[string]string{"user_ids": strconv.FormatInt(id, 10)}, &users); err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, fmt.Errorf("user %d: %w", id, ErrNotFound)
	}
	return &users[0], nil
}

// LongPollServer acquires a new long-poll session.
func (c *Client) LongPollServer(ctx context.Context) (*LongPollServer, error) {
	var srv LongPollServer
	err := c.call(ctx, "messages.getLongPollServer", map[string]string{
		"lp_version": strconv.Itoa(c.cfg.LongPollVersion),
	}, &srv)
	if err != nil {
		return nil, err
	}
	if srv.Key == "" || srv.Server == "" {
		return nil, fmt.Errorf("vk messages.getLongPollServer: incomplete session")
	}
	return &srv, nil
}
