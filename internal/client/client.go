// Copyright (C) 2024 the quixsi maintainers
// See root-dir/LICENSE for more information

// Package client talks to the organizer API on behalf of the check-in desk.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/quixsi/checkin/internal/model"
)

var tracer = otel.GetTracerProvider().Tracer("github.com/quixsi/checkin/internal/client")

const defaultTimeout = 10 * time.Second

type Client struct {
	baseURL  string
	user     string
	password string
	http     *http.Client
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithBasicAuth(user, password string) Option {
	return func(c *Client) {
		c.user = user
		c.password = password
	}
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

func (c *Client) GuestsForAttendance(ctx context.Context, eventID uuid.UUID) ([]*model.Guest, error) {
	var span trace.Span
	ctx, span = tracer.Start(ctx, "GuestsForAttendance")
	defer span.End()

	var guests []*model.Guest
	err := c.call(ctx, http.MethodGet, "/admin/events/"+eventID.String()+"/attendance/guests", nil, &guests)
	return guests, recordErr(span, err)
}

func (c *Client) UpdateGuestAttendanceStatus(ctx context.Context, guestID uuid.UUID, status model.AttendanceStatus) error {
	var span trace.Span
	ctx, span = tracer.Start(ctx, "UpdateGuestAttendanceStatus")
	defer span.End()

	body := map[string]model.AttendanceStatus{"attendance_status": status}
	return recordErr(span, c.call(ctx, http.MethodPut, "/admin/guests/"+guestID.String()+"/attendance", body, nil))
}

func (c *Client) GuestsByToken(ctx context.Context, token string) ([]*model.Guest, error) {
	var span trace.Span
	ctx, span = tracer.Start(ctx, "GuestsByToken")
	defer span.End()

	guests := []*model.Guest{}
	err := c.call(ctx, http.MethodGet, "/admin/guests?token="+url.QueryEscape(token), nil, &guests)
	return guests, recordErr(span, err)
}

// GetEvent fetches a single event. The events endpoint answers without the
// success envelope.
func (c *Client) GetEvent(ctx context.Context, id uuid.UUID) (*model.Event, error) {
	var span trace.Span
	ctx, span = tracer.Start(ctx, "GetEvent")
	defer span.End()

	resp, err := c.do(ctx, http.MethodGet, "/admin/events/"+id.String(), nil)
	if err != nil {
		return nil, recordErr(span, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Message string `json:"message"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err != nil || apiErr.Message == "" {
			return nil, recordErr(span, fmt.Errorf("unexpected status %s", resp.Status))
		}
		return nil, recordErr(span, errors.New(apiErr.Message))
	}
	var event model.Event
	if err := json.NewDecoder(resp.Body).Decode(&event); err != nil {
		return nil, recordErr(span, fmt.Errorf("decode event: %w", err))
	}
	return &event, nil
}

// call performs an envelope request. A failed envelope turns into an error
// carrying the server message unchanged.
func (c *Client) call(ctx context.Context, method, path string, body, out any) error {
	resp, err := c.do(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("unexpected response (%s): %w", resp.Status, err)
	}
	if !env.Success {
		if env.Message == "" {
			return fmt.Errorf("request failed: %s", resp.Status)
		}
		return errors.New(env.Message)
	}
	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode data: %w", err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.user != "" {
		req.SetBasicAuth(c.user, c.password)
	}
	propagation.TraceContext{}.Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		resp.Body.Close()
		return nil, errors.New("organizer api rejected the credentials")
	}
	return resp, nil
}

func recordErr(span trace.Span, err error) error {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}
