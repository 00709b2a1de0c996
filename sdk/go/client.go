package intakeflowsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client is a minimal Intakeflow HTTP API client.
type Client struct {
	BaseURL     string
	BearerToken string
	// KlantToken authenticates a klant session when no bearer token is set.
	KlantToken string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// New creates a client with sane defaults.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		Timeout: 10 * time.Second,
	}
}

// Form represents the API form model (partial).
type Form struct {
	ID           string `json:"id"`
	FormType     string `json:"formType"`
	Title        string `json:"title"`
	IntakeStatus string `json:"intakeStatus"`
	KlantID      string `json:"klantId,omitempty"`
	KlantNaam    string `json:"klantNaam,omitempty"`
	Eigenaar     string `json:"eigenaar,omitempty"`
}

// StatusChange is one audit entry.
type StatusChange struct {
	From   string  `json:"from"`
	To     string  `json:"to"`
	By     string  `json:"by"`
	Role   string  `json:"role"`
	At     string  `json:"at"`
	Reason *string `json:"reason,omitempty"`
}

// Action is a transition the caller may trigger.
type Action struct {
	To        string `json:"to"`
	Label     string `json:"label"`
	RouteType string `json:"routeType,omitempty"`
}

// Notification is one delivered in-app message.
type Notification struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Title     string `json:"title"`
	Message   string `json:"message"`
	IsRead    bool   `json:"isRead"`
	CreatedAt string `json:"createdAt"`
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

// CreateForm creates a form.
func (c *Client) CreateForm(ctx context.Context, formType, title string) (Form, error) {
	body := map[string]any{
		"formType": formType,
		"title":    title,
	}
	var resp Form
	err := c.do(ctx, http.MethodPost, "v1/forms", body, &resp)
	return resp, err
}

// GetForm fetches a form by id.
func (c *Client) GetForm(ctx context.Context, id string) (Form, error) {
	var resp Form
	err := c.do(ctx, http.MethodGet, "v1/forms/"+url.PathEscape(id), nil, &resp)
	return resp, err
}

// Transition moves a form to a new status.
func (c *Client) Transition(ctx context.Context, formID, status, reason, assignedTo string) (Form, error) {
	body := map[string]any{
		"status": status,
	}
	if reason != "" {
		body["reason"] = reason
	}
	if assignedTo != "" {
		body["assignedTo"] = assignedTo
	}
	var resp Form
	err := c.do(ctx, http.MethodPost, "v1/forms/"+url.PathEscape(formID)+"/transition", body, &resp)
	return resp, err
}

// Actions returns the transitions available to the caller's role.
func (c *Client) Actions(ctx context.Context, formID string) ([]Action, error) {
	var resp []Action
	err := c.do(ctx, http.MethodGet, "v1/forms/"+url.PathEscape(formID)+"/actions", nil, &resp)
	return resp, err
}

// History returns the status history of a form.
func (c *Client) History(ctx context.Context, formID string) ([]StatusChange, error) {
	var resp []StatusChange
	err := c.do(ctx, http.MethodGet, "v1/forms/"+url.PathEscape(formID)+"/history", nil, &resp)
	return resp, err
}

// Notifications returns the caller's notifications.
func (c *Client) Notifications(ctx context.Context, unreadOnly bool) ([]Notification, error) {
	endpoint := "v1/notifications"
	if unreadOnly {
		endpoint += "?unread=true"
	}
	var resp []Notification
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	url := c.base() + "/" + strings.TrimLeft(endpoint, "/")
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	switch {
	case c.BearerToken != "":
		req.Header.Set("Authorization", "Bearer "+c.BearerToken)
	case c.KlantToken != "":
		req.Header.Set("X-Klant-Token", c.KlantToken)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Body: string(b)}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) base() string {
	return strings.TrimRight(c.BaseURL, "/")
}
