// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Consensus Contributors

// Package polymarket reads open events from the Polymarket Gamma API.
package polymarket

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	conserr "github.com/consensus-dev/consensus/pkg/errors"
	"github.com/consensus-dev/consensus/pkg/types"
)

const (
	DefaultEndpoint = "https://gamma-api.polymarket.com"
	DefaultLimit    = 50
	DefaultOrder    = "volume24hr"
	DefaultTimeout  = 30 * time.Second

	// maxBodyBytes caps how much of a response is read.
	maxBodyBytes = 32 << 20
)

// Config controls which events are requested.
type Config struct {
	Endpoint string
	Limit    int
	Order    string
	Timeout  time.Duration
}

// Client fetches events. It is safe for concurrent use.
type Client struct {
	endpoint string
	limit    int
	order    string
	http     *http.Client
}

// New returns a Client with defaults applied to unset fields. A nil
// httpClient uses a client with the configured timeout.
func New(cfg Config, httpClient *http.Client) (*Client, error) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Limit <= 0 {
		cfg.Limit = DefaultLimit
	}
	if cfg.Order == "" {
		cfg.Order = DefaultOrder
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	u, err := url.Parse(cfg.Endpoint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, conserr.Errorf(conserr.CodeConfigValidateInvalidValue,
			"events endpoint must be an absolute URL, got %q", cfg.Endpoint)
	}

	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &Client{
		endpoint: strings.TrimRight(cfg.Endpoint, "/"),
		limit:    cfg.Limit,
		order:    cfg.Order,
		http:     httpClient,
	}, nil
}

// Events returns open, active events in the upstream's order.
func (c *Client) Events(ctx context.Context) ([]types.Event, error) {
	q := url.Values{}
	q.Set("closed", "false")
	q.Set("limit", strconv.Itoa(c.limit))
	q.Set("order", c.order)
	q.Set("active", "true")
	reqURL := c.endpoint + "/events?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, conserr.Wrap(err, conserr.CodeSourceEventsUpstreamFailure, "building events request")
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, conserr.Wrap(err, conserr.CodeSourceEventsTimeout, "fetching events timed out")
		}
		return nil, conserr.Wrap(err, conserr.CodeSourceEventsUpstreamFailure, "fetching events")
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, conserr.Wrap(err, conserr.CodeSourceEventsUpstreamFailure, "reading events response")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, conserr.New(conserr.CodeSourceEventsUpstreamFailure,
			fmt.Sprintf("events endpoint returned %d", resp.StatusCode),
			conserr.Field("status", resp.StatusCode))
	}

	events, err := ParseEvents(body)
	if err != nil {
		return nil, err
	}

	slog.Debug("fetched events", "count", len(events), "elapsed", time.Since(start))
	return events, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ue *url.Error
	return errors.As(err, &ue) && ue.Timeout()
}

// ParseEvents decodes a Gamma /events response body.
func ParseEvents(body []byte) ([]types.Event, error) {
	if !gjson.ValidBytes(body) {
		return nil, conserr.New(conserr.CodeSourceEventsResponseInvalid, "events response is not valid JSON")
	}
	root := gjson.ParseBytes(body)
	if !root.IsArray() {
		return nil, conserr.New(conserr.CodeSourceEventsResponseInvalid, "events response is not an array")
	}

	events := []types.Event{}
	root.ForEach(func(_, ev gjson.Result) bool {
		events = append(events, parseEvent(ev))
		return true
	})
	return events, nil
}

func parseEvent(ev gjson.Result) types.Event {
	e := types.Event{
		ID:          ev.Get("id").String(),
		Title:       ev.Get("title").String(),
		Description: ev.Get("description").String(),
		Image:       ev.Get("image").String(),
	}

	markets := ev.Get("markets")
	if !markets.IsArray() {
		return e
	}
	markets.ForEach(func(_, m gjson.Result) bool {
		image := m.Get("image").String()
		if image == "" {
			image = e.Image
		}
		e.Markets = append(e.Markets, types.Market{
			ID:       m.Get("id").String(),
			Question: m.Get("question").String(),
			Image:    image,
			Outcomes: parseOutcomes(m.Get("outcomes"), m.Get("outcomePrices")),
		})
		return true
	})
	return e
}

// parseOutcomes pairs outcome names with prices. Both fields arrive as JSON
// arrays encoded in strings. Every outcome is kept; a missing or unparsable
// price is left nil.
func parseOutcomes(names, prices gjson.Result) []types.Outcome {
	nameList := stringArray(names)
	if len(nameList) == 0 {
		return nil
	}
	priceList := stringArray(prices)

	out := make([]types.Outcome, len(nameList))
	for i, name := range nameList {
		out[i] = types.Outcome{Name: name}
		if i >= len(priceList) {
			continue
		}
		if p, err := strconv.ParseFloat(strings.TrimSpace(priceList[i]), 64); err == nil {
			out[i].Price = &p
		}
	}
	return out
}

// stringArray accepts either a real JSON array or a string holding one.
func stringArray(r gjson.Result) []string {
	if r.Type == gjson.String {
		if !gjson.Valid(r.Str) {
			return nil
		}
		r = gjson.Parse(r.Str)
	}
	if !r.IsArray() {
		return nil
	}
	var out []string
	r.ForEach(func(_, v gjson.Result) bool {
		out = append(out, v.String())
		return true
	})
	return out
}
