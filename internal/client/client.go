// Package client talks to the workout tracker HTTP API. Client implements
// calendar.MutationStore, so a calendar.Session can run against a remote server.
package client

import (
	"alcyxob/workout-tracker/internal/calendar"
	"alcyxob/workout-tracker/internal/domain"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const apiPrefix = "/api/v1"

var ErrAlreadySubscribed = errors.New("already subscribed to calendar events")

// APIError is a non-2xx response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: %d %s", e.Status, e.Message)
}

// IsStatus reports whether err is an APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

type Client struct {
	baseURL        string
	httpClient     *http.Client
	reconnectDelay time.Duration
	readyTimeout   time.Duration

	tokenMu sync.RWMutex
	token   string

	subMu   sync.Mutex
	stopSub context.CancelFunc
	subDone chan struct{}
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithReconnectDelay sets the pause before reopening a dropped event stream.
func WithReconnectDelay(d time.Duration) Option {
	return func(c *Client) { c.reconnectDelay = d }
}

// WithReadyTimeout bounds how long Subscribe waits for the server to confirm
// the subscription.
func WithReadyTimeout(d time.Duration) Option {
	return func(c *Client) { c.readyTimeout = d }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		httpClient:     &http.Client{Timeout: 30 * time.Second},
		reconnectDelay: 2 * time.Second,
		readyTimeout:   10 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Token() string {
	c.tokenMu.RLock()
	defer c.tokenMu.RUnlock()
	return c.token
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+apiPrefix+path, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

// do sends a JSON request and decodes the response into out, if out is not nil.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return readAPIError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func readAPIError(resp *http.Response) error {
	var payload struct {
		Error string `json:"error"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err := json.Unmarshal(raw, &payload); err != nil || payload.Error == "" {
		payload.Error = strings.TrimSpace(string(raw))
	}
	return &APIError{Status: resp.StatusCode, Message: payload.Error}
}

// --- Account ---

func (c *Client) Register(ctx context.Context, name, email, password string) error {
	body := map[string]string{"name": name, "email": email, "password": password}
	return c.do(ctx, http.MethodPost, "/auth/register", body, nil)
}

// Login authenticates and keeps the token for later requests.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	var resp struct {
		Token string `json:"token"`
	}
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/auth/login", body, &resp); err != nil {
		return "", err
	}
	c.tokenMu.Lock()
	c.token = resp.Token
	c.tokenMu.Unlock()
	return resp.Token, nil
}

func (c *Client) Settings(ctx context.Context) (domain.Settings, error) {
	var settings domain.Settings
	err := c.do(ctx, http.MethodGet, "/me/settings", nil, &settings)
	return settings, err
}

// Sensors fetches the server's drag activation constraints.
func (c *Client) Sensors(ctx context.Context) (calendar.Sensors, error) {
	var resp struct {
		PointerDistance float64 `json:"pointerDistance"`
		TouchDelayMs    int64   `json:"touchDelayMs"`
		TouchTolerance  float64 `json:"touchTolerance"`
	}
	if err := c.do(ctx, http.MethodGet, "/calendar/sensors", nil, &resp); err != nil {
		return calendar.Sensors{}, err
	}
	return calendar.Sensors{
		PointerDistance: resp.PointerDistance,
		TouchDelay:      time.Duration(resp.TouchDelayMs) * time.Millisecond,
		TouchTolerance:  resp.TouchTolerance,
	}, nil
}

// --- calendar.MutationStore ---

func (c *Client) Fetch(ctx context.Context) (domain.CalendarData, error) {
	var cal domain.CalendarData
	if err := c.do(ctx, http.MethodGet, "/calendar", nil, &cal); err != nil {
		return domain.CalendarData{}, err
	}
	return cal, nil
}

func (c *Client) Persist(ctx context.Context, cal domain.CalendarData) error {
	return c.do(ctx, http.MethodPut, "/calendar", cal, nil)
}

// ApplyMutation sends one calendar change; the server applies it atomically.
func (c *Client) ApplyMutation(ctx context.Context, m calendar.Mutation) error {
	switch m.Op {
	case calendar.OpSchedule:
		body := map[string]string{"planId": m.PlanID, "target": calendar.DropTargetID(m.DateKey)}
		return c.do(ctx, http.MethodPost, "/calendar/schedule", body, nil)
	case calendar.OpUnschedule:
		path := "/calendar/schedule/" + url.PathEscape(m.DateKey) + "/" + url.PathEscape(m.PlanID)
		return c.do(ctx, http.MethodDelete, path, nil, nil)
	case calendar.OpSavePlan:
		if m.Plan == nil {
			return fmt.Errorf("%s mutation without a plan", m.Op)
		}
		return c.SavePlan(ctx, *m.Plan)
	case calendar.OpDeletePlan:
		err := c.DeletePlan(ctx, m.PlanID)
		if IsStatus(err, http.StatusNotFound) {
			// already gone on the server
			return nil
		}
		return err
	}
	return fmt.Errorf("unknown mutation %q", m.Op)
}

// SavePlan creates the plan, or edits the plan with the same ID in place.
// The schedule is left as it is on the server.
func (c *Client) SavePlan(ctx context.Context, plan domain.WorkoutPlan) error {
	if plan.ID == "" {
		return c.do(ctx, http.MethodPost, "/calendar/plans", plan, nil)
	}
	return c.do(ctx, http.MethodPut, "/calendar/plans/"+url.PathEscape(plan.ID), plan, nil)
}

// DeletePlan removes the plan and its schedule references on the server.
func (c *Client) DeletePlan(ctx context.Context, planID string) error {
	return c.do(ctx, http.MethodDelete, "/calendar/plans/"+url.PathEscape(planID), nil, nil)
}

// Subscribe opens the event stream and calls onChange for every remote change.
// It returns once the server confirmed the subscription with a ready event, or
// fails after the ready timeout. A dropped stream is reopened, and onChange is
// called after reconnecting since changes may have been missed.
func (c *Client) Subscribe(onChange func()) error {
	c.subMu.Lock()
	if c.stopSub != nil {
		c.subMu.Unlock()
		return ErrAlreadySubscribed
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	c.stopSub, c.subDone = cancel, done
	c.subMu.Unlock()

	ready := make(chan error, 1)
	go c.streamLoop(ctx, cancel, onChange, ready, done)

	timer := time.NewTimer(c.readyTimeout)
	defer timer.Stop()
	var err error
	select {
	case err = <-ready:
	case <-timer.C:
		err = fmt.Errorf("no %s event within %s", readyEvent, c.readyTimeout)
	}
	if err != nil {
		c.stopSubscription(done)
		return fmt.Errorf("open event stream: %w", err)
	}
	return nil
}

// Unsubscribe closes the event stream and waits for the reader to stop.
func (c *Client) Unsubscribe() {
	c.stopSubscription(nil)
}

// stopSubscription stops the current subscription. With a non-nil done it only
// stops the subscription whose reader closes done.
func (c *Client) stopSubscription(done chan struct{}) {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	if c.stopSub == nil || (done != nil && c.subDone != done) {
		return
	}
	c.stopSub()
	<-c.subDone
	c.stopSub = nil
	c.subDone = nil
}
