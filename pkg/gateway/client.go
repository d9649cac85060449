/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package gateway is the typed client for the agent admin API. Every call is
// bounded by the configured timeout and classified into errs kinds.
package gateway

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

	"github.com/cenkalti/backoff"
	"github.com/hyperledger/aries-framework-go/pkg/common/log"
	"github.com/pkg/errors"

	"github.com/caduceus-vc/caduceus/pkg/errs"
	"github.com/caduceus-vc/caduceus/pkg/util"
)

var logger = log.New("caduceus/gateway")

const (
	DefaultTimeout    = 30 * time.Second
	DefaultDIDMethod  = "did:peer:4"
	DefaultHandshake  = "https://didcomm.org/didexchange/1.1"
	defaultMaxRetries = 3
)

type Config struct {
	URL       string              `mapstructure:"url"`
	Scheme    string              `mapstructure:"scheme"`
	Host      string              `mapstructure:"host"`
	Port      int                 `mapstructure:"port"`
	APIKey    string              `mapstructure:"apiKey"`
	Timeout   time.Duration       `mapstructure:"timeout"`
	Retries   uint64              `mapstructure:"retries"`
	DIDSeed   string              `mapstructure:"didSeed"`
	DIDMethod string              `mapstructure:"didMethod"`
	Handshake string              `mapstructure:"handshake"`
	Endpoints map[string]Endpoint `mapstructure:"endpoints"`
}

// Address is the admin API base URL.
func (r Config) Address() string {
	if r.URL != "" {
		return strings.TrimSuffix(r.URL, "/")
	}

	scheme := r.Scheme
	if scheme == "" {
		scheme = "http"
	}

	if r.Port == 0 {
		return fmt.Sprintf("%s://%s", scheme, r.Host)
	}
	return fmt.Sprintf("%s://%s:%d", scheme, r.Host, r.Port)
}

type Client struct {
	base      string
	apiKey    string
	timeout   time.Duration
	retries   uint64
	didMethod string
	handshake string
	endpoints map[string]Endpoint
	http      *http.Client
}

func New(cfg Config) *Client {
	r := &Client{
		base:      cfg.Address(),
		apiKey:    cfg.APIKey,
		timeout:   cfg.Timeout,
		retries:   cfg.Retries,
		didMethod: cfg.DIDMethod,
		handshake: cfg.Handshake,
		endpoints: mergeEndpoints(cfg.Endpoints),
		http:      &http.Client{},
	}

	if r.timeout <= 0 {
		r.timeout = DefaultTimeout
	}
	if r.retries == 0 {
		r.retries = defaultMaxRetries
	}
	if r.didMethod == "" {
		r.didMethod = DefaultDIDMethod
	}
	if r.handshake == "" {
		r.handshake = DefaultHandshake
	}

	return r
}

// Endpoint returns the resolved endpoint for name.
func (r *Client) Endpoint(name string) (Endpoint, bool) {
	ep, ok := r.endpoints[name]
	return ep, ok
}

type call struct {
	name   string
	params map[string]string
	query  url.Values
	body   interface{}
	out    interface{}
}

// do issues one admin API call. GETs are retried on transient failures,
// side-effecting calls are attempted exactly once.
func (r *Client) do(ctx context.Context, c call) error {
	ep, ok := r.endpoints[c.name]
	if !ok {
		return errs.New(errs.ValidationError, "unknown agent endpoint %s", c.name)
	}

	path, err := ep.Expand(c.params)
	if err != nil {
		return errs.Wrap(errs.ValidationError, err, c.name)
	}

	u := r.base + path
	if len(c.query) > 0 {
		u += "?" + c.query.Encode()
	}

	var body []byte
	if c.body != nil {
		body, err = json.Marshal(c.body)
		if err != nil {
			return errs.Wrap(errs.ValidationError, err, "unable to marshal request body for "+c.name)
		}
	}

	if ep.Method != http.MethodGet {
		return r.once(ctx, ep.Method, u, c.name, body, c.out)
	}

	op := func() error {
		err := r.once(ctx, ep.Method, u, c.name, body, c.out)
		if err != nil && !errs.Is(err, errs.TransientAgentFailure) {
			return backoff.Permanent(err)
		}
		return err
	}

	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), r.retries), ctx)
	return backoff.RetryNotify(op, b, util.Logger)
}

func (r *Client) once(ctx context.Context, method, u, name string, body []byte, out interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var rdr io.Reader
	if body != nil {
		rdr = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, rdr)
	if err != nil {
		return errs.Wrap(errs.ValidationError, err, "unable to build request for "+name)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if r.apiKey != "" {
		req.Header.Set("X-API-Key", r.apiKey)
	}

	resp, err := r.http.Do(req)
	if err != nil {
		return errs.Wrap(errs.TransientAgentFailure, err, name)
	}
	defer resp.Body.Close()

	d, err := io.ReadAll(resp.Body)
	if err != nil {
		return errs.Wrap(errs.TransientAgentFailure, err, "unable to read response from "+name)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return errs.New(errs.NotFound, "%s: agent returned 404 for %s", name, req.URL.Path)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return errs.New(errs.TransientAgentFailure, "%s: agent returned %d: %s", name, resp.StatusCode, truncate(d))
	}

	logger.Debugf("%s %s -> %d", method, req.URL.Path, resp.StatusCode)

	if out == nil || len(bytes.TrimSpace(d)) == 0 {
		return nil
	}

	if err := json.Unmarshal(d, out); err != nil {
		return errs.Wrap(errs.TransientAgentFailure, errors.Wrap(err, "malformed agent response"), name)
	}

	return nil
}

func truncate(d []byte) string {
	const max = 256
	s := strings.TrimSpace(string(d))
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}
