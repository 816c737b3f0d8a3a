// Package raceapi talks to the race results API gateway: the authoritative
// time of day, the upload endpoints for starts, finishes and race control,
// and the official classification.
package raceapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/brgilsonsp/corrida-familia-piba-front/internal/model"
)

const (
	serverTimePath   = "/prd/configuracoes/hora_servidor"
	startsPath       = "/prd/cronometragem/largadas"
	finishesPath     = "/prd/cronometragem/chegadas"
	generalStartPath = "/prd/cronometragem/largada_geral"
	endRacePath      = "/prd/classificacao/encerrar_corrida"
	segmentsPath     = "/prd/segmentacao"
	classPath        = "/prd/classificacao"

	// DefaultTimeout applies to every request unless WithTimeout overrides it.
	DefaultTimeout = 30 * time.Second
)

// ErrNoBaseURL is returned by every call when no gateway is configured.
var ErrNoBaseURL = errors.New("results API base URL not configured")

// APIError is a non-2xx response from the gateway.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("results API error %d: %s", e.StatusCode, e.Body)
}

// Timing is one start or finish upload.
type Timing struct {
	Bib     int    `json:"numero_peito"`
	Time    string `json:"hora"`
	Monitor string `json:"monitor"`
}

type generalStart struct {
	Time    string `json:"hora"`
	Monitor string `json:"monitor"`
}

type endRace struct {
	Monitor string `json:"monitor"`
}

// Filter narrows the official classification. Zero fields are not sent.
type Filter struct {
	Sex      string
	AgeRange string
	Category string
	Name     string
	Bib      int
}

func (f Filter) query() url.Values {
	q := url.Values{}
	if f.Sex != "" {
		q.Set("sexo", f.Sex)
	}
	if f.AgeRange != "" {
		q.Set("faixa_etaria", f.AgeRange)
	}
	if f.Category != "" {
		q.Set("modalidade", f.Category)
	}
	if f.Name != "" {
		q.Set("nome_atleta", f.Name)
	}
	if f.Bib > 0 {
		q.Set("numero_peito", strconv.Itoa(f.Bib))
	}
	return q
}

type serverTimeResponse struct {
	Hora string `json:"hora"`
}

// Client is a results API client.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	token      string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithToken sends token as a bearer credential on every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// New creates a client for the gateway at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{baseURL: baseURL, timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: c.timeout}
	}
	if c.token != "" {
		c.httpClient = authorizedClient(c.httpClient, c.token)
	}
	return c
}

// ServerTime returns the gateway's time of day as HH:MM:SS.
func (c *Client) ServerTime(ctx context.Context) (string, error) {
	body, err := c.do(ctx, http.MethodGet, serverTimePath, nil)
	if err != nil {
		return "", err
	}
	var resp serverTimeResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("decoding server time: %w", err)
	}
	if resp.Hora == "" {
		return "", errors.New("server time response has no hora")
	}
	return resp.Hora, nil
}

// PostStart uploads a delayed start.
func (c *Client) PostStart(ctx context.Context, t Timing) error {
	_, err := c.do(ctx, http.MethodPost, startsPath, t)
	return err
}

// PostFinish uploads a finish time.
func (c *Client) PostFinish(ctx context.Context, t Timing) error {
	_, err := c.do(ctx, http.MethodPost, finishesPath, t)
	return err
}

// PostGeneralStart records the time the whole field started.
func (c *Client) PostGeneralStart(ctx context.Context, hora, monitor string) error {
	_, err := c.do(ctx, http.MethodPost, generalStartPath, generalStart{Time: hora, Monitor: monitor})
	return err
}

// EndRace closes the race and triggers the final classification.
func (c *Client) EndRace(ctx context.Context, monitor string) error {
	_, err := c.do(ctx, http.MethodPost, endRacePath, endRace{Monitor: monitor})
	return err
}

// Segmentation returns the sex, age range and category values accepted by
// Classification.
func (c *Client) Segmentation(ctx context.Context) (model.Segments, error) {
	body, err := c.do(ctx, http.MethodGet, segmentsPath, nil)
	if err != nil {
		return model.Segments{}, err
	}
	var seg model.Segments
	if err := json.Unmarshal(body, &seg); err != nil {
		return model.Segments{}, fmt.Errorf("decoding segmentation: %w", err)
	}
	return seg, nil
}

// Classification returns the official classification matching f.
func (c *Client) Classification(ctx context.Context, f Filter) ([]model.ClassificationEntry, error) {
	path := classPath
	if q := f.query(); len(q) > 0 {
		path += "?" + q.Encode()
	}
	body, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	entries := []model.ClassificationEntry{}
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("decoding classification: %w", err)
	}
	return entries, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	if c.baseURL == "" {
		return nil, ErrNoBaseURL
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("results API request failed: %w", err)
	}
	respBody, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}
	return respBody, nil
}
