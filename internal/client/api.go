// Package client is the Go SDK for the FundiConnect API. A Session owns the
// signed-in identity; views opened from it mirror a remote slice and keep it
// current from the change feed.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
)

var (
	ErrUnauthenticated = errors.New("client: not signed in")
	ErrForbidden       = errors.New("client: access denied")
)

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status   int
	Code     string
	Message  string
	Fields   map[string][]string
	Redirect string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api %d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("api %d: %s", e.Status, e.Message)
}

// Rejected reports a mutation the server refused (validation or conflict).
func (e *APIError) Rejected() bool {
	return e.Status >= 400 && e.Status < 500 &&
		e.Status != fiber.StatusUnauthorized && e.Status != fiber.StatusForbidden
}

func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthenticated:
		return e.Status == fiber.StatusUnauthorized
	case ErrForbidden:
		return e.Status == fiber.StatusForbidden
	}
	return false
}

// HasCode reports whether err is an APIError carrying code.
func HasCode(err error, code string) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == code
}

type envelope struct {
	Success  bool                `json:"success"`
	Message  string              `json:"message"`
	Code     string              `json:"code"`
	Data     json.RawMessage     `json:"data"`
	Errors   map[string][]string `json:"errors"`
	Redirect string              `json:"redirect"`
}

// API is a thin JSON client over fiber's HTTP agent.
type API struct {
	BaseURL string
	Timeout time.Duration

	mu    sync.RWMutex
	token string
}

func NewAPI(baseURL string) *API {
	return &API{BaseURL: strings.TrimRight(baseURL, "/"), Timeout: 15 * time.Second}
}

func (a *API) SetToken(token string) {
	a.mu.Lock()
	a.token = token
	a.mu.Unlock()
}

func (a *API) Token() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.token
}

// Do sends body as JSON and decodes the envelope's data into out. It returns
// the envelope message. A context that ends first wins over a late response.
func (a *API) Do(ctx context.Context, method, path string, body, out interface{}) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	timeout := a.Timeout
	if dl, ok := ctx.Deadline(); ok {
		if left := time.Until(dl); left < timeout {
			timeout = left
		}
	}

	agent := fiber.AcquireAgent()
	req := agent.Request()
	req.Header.SetMethod(method)
	req.SetRequestURI(a.BaseURL + path)
	if tok := a.Token(); tok != "" {
		agent.Set(fiber.HeaderAuthorization, "Bearer "+tok)
	}
	if body != nil {
		agent.JSON(body)
	}
	agent.Timeout(timeout)
	if err := agent.Parse(); err != nil {
		fiber.ReleaseAgent(agent)
		return "", fmt.Errorf("client: build request: %w", err)
	}

	status, raw, errs := agent.Bytes()
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(errs) > 0 {
		return "", fmt.Errorf("client: %s %s: %w", method, path, errors.Join(errs...))
	}

	var env envelope
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil {
			return "", &APIError{Status: status, Message: "malformed response"}
		}
	}
	if status >= 400 || (len(raw) > 0 && !env.Success) {
		return "", &APIError{
			Status:   status,
			Code:     env.Code,
			Message:  env.Message,
			Fields:   env.Errors,
			Redirect: env.Redirect,
		}
	}
	if out != nil && len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return env.Message, fmt.Errorf("client: decode %s: %w", path, err)
		}
	}
	return env.Message, nil
}

func (a *API) Get(ctx context.Context, path string, out interface{}) error {
	_, err := a.Do(ctx, fiber.MethodGet, path, nil, out)
	return err
}

func (a *API) Post(ctx context.Context, path string, body, out interface{}) error {
	_, err := a.Do(ctx, fiber.MethodPost, path, body, out)
	return err
}
