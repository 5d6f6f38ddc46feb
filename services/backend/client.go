// Package backendapi is the client of the LMS REST backend.
// Every call takes the context of the page request it serves, and is never retried.
package backendapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sendgrid/rest"

	"github.com/gcl-lms/web/core"
)

type Options struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client // optional
	Logger     core.Logger  // optional
}

// Client talks to the backend, optionally on behalf of a user (see As).
type Client struct {
	baseURL string
	rest    *rest.Client
	logger  core.Logger
	token   string
	now     func() time.Time
}

// TokenSource supplies the access token of the current session.
type TokenSource interface {
	Token() string
}

func NewClient(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}
	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		rest:    &rest.Client{HTTPClient: httpClient},
		logger:  opts.Logger,
		now:     time.Now,
	}
}

// As returns a copy of the client that authenticates with the token of src.
func (c *Client) As(src TokenSource) *Client {
	return c.WithToken(src.Token())
}

func (c *Client) WithToken(token string) *Client {
	cp := *c
	cp.token = token
	return &cp
}

func (c *Client) url(path string) string {
	return c.baseURL + "/" + strings.TrimLeft(path, "/")
}

func (c *Client) headers() map[string]string {
	h := map[string]string{"Accept": "application/json"}
	if c.token != "" {
		h["Authorization"] = "Bearer " + c.token
	}
	return h
}

// do sends `in` as JSON and decodes the response into `out`; both are optional.
func (c *Client) do(ctx context.Context, method rest.Method, path string, in, out interface{}) error {
	req := rest.Request{
		Method:  method,
		BaseURL: c.url(path),
		Headers: c.headers(),
	}
	if in != nil {
		body, err := json.Marshal(in)
		if err != nil {
			return errors.Wrap(err, "encoding request body")
		}
		req.Body = body
		req.Headers["Content-Type"] = "application/json"
	}
	return c.send(ctx, req, out)
}

// doForm posts url-encoded values, as the password recovery endpoints expect.
func (c *Client) doForm(ctx context.Context, path string, form url.Values, out interface{}) error {
	req := rest.Request{
		Method:  rest.Post,
		BaseURL: c.url(path),
		Headers: c.headers(),
		Body:    []byte(form.Encode()),
	}
	req.Headers["Content-Type"] = "application/x-www-form-urlencoded"
	return c.send(ctx, req, out)
}

func (c *Client) send(ctx context.Context, req rest.Request, out interface{}) error {
	res, err := c.rest.SendWithContext(ctx, req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return errors.Wrapf(err, "%s %s", req.Method, req.BaseURL)
	}
	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		apiErr := newError(res.StatusCode, res.Body)
		if c.logger != nil && res.StatusCode >= http.StatusInternalServerError {
			c.logger.Error("backend error", apiErr, map[string]interface{}{"method": req.Method, "url": req.BaseURL})
		}
		return apiErr
	}
	if out == nil || strings.TrimSpace(res.Body) == "" {
		return nil
	}
	if err = json.Unmarshal([]byte(res.Body), out); err != nil {
		return errors.Wrapf(err, "decoding response of %s %s", req.Method, req.BaseURL)
	}
	return nil
}

// created is the backend's answer to a create request.
type created struct {
	ID      core.ID `json:"id"`
	Message string  `json:"mensaje"`
}
