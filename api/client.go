package api

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

	"github.com/google/go-querystring/query"
	"github.com/google/uuid"

	qc "github.com/unkn0wn-root/querycache"
)

const (
	HeaderRequestID = "X-Request-ID"

	defaultTimeout = 30 * time.Second
	maxErrorBody   = 4 << 10
)

var ErrBaseURL = errors.New("api: base URL must be absolute http(s)")

// HTTPError is returned for any non-2xx response.
type HTTPError struct {
	Method    string
	Path      string
	Status    int
	RequestID string
	Body      []byte
}

func (e *HTTPError) Error() string {
	msg := strings.TrimSpace(string(e.Body))
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	return fmt.Sprintf("api: %s %s: %d: %s", e.Method, e.Path, e.Status, msg)
}

type Config struct {
	BaseURL    string
	HTTPClient *http.Client  // default: http.Client with Timeout
	Timeout    time.Duration // default 30s, ignored when HTTPClient is set
	Header     http.Header   // static headers sent with every request
	Logger     qc.Logger
}

// Client issues requests against the backend. Every method takes the caller's
// ctx as its cancellation handle.
type Client struct {
	base   string
	http   *http.Client
	header http.Header
	log    qc.Logger
}

func New(cfg Config) (*Client, error) {
	u, err := url.Parse(cfg.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, ErrBaseURL
	}
	u.RawQuery, u.Fragment = "", ""

	hc := cfg.HTTPClient
	if hc == nil {
		to := cfg.Timeout
		if to <= 0 {
			to = defaultTimeout
		}
		hc = &http.Client{Timeout: to}
	}
	log := cfg.Logger
	if log == nil {
		log = qc.NopLogger{}
	}
	return &Client{base: strings.TrimRight(u.String(), "/"), http: hc, header: cfg.Header.Clone(), log: log}, nil
}

func (c *Client) GetMe(ctx context.Context) (Response[Provider], error) {
	return get[Provider](ctx, c, EndpointMe.Path(), nil)
}

func (c *Client) GetAudits(ctx context.Context, p AuditsParams) (PageResponse[Audit], error) {
	return get[Page[Audit]](ctx, c, EndpointAudits.Path(), p)
}

func (c *Client) GetClients(ctx context.Context, p ClientsParams) (PageResponse[Client], error) {
	return get[Page[Client]](ctx, c, EndpointClients.Path(), p)
}

func (c *Client) GetAllClients(ctx context.Context, p ClientsParams) (PageResponse[Client], error) {
	return get[Page[Client]](ctx, c, EndpointClientsAll.Path(), p)
}

func (c *Client) GetClient(ctx context.Context, id string) (Response[FullClient], error) {
	return get[FullClient](ctx, c, byID(EndpointClients, id), nil)
}

func (c *Client) GetPatients(ctx context.Context, p PatientsParams) (PageResponse[Patient], error) {
	return get[Page[Patient]](ctx, c, EndpointPatients.Path(), p)
}

func (c *Client) GetPatient(ctx context.Context, id string) (Response[Patient], error) {
	return get[Patient](ctx, c, byID(EndpointPatients, id), nil)
}

func (c *Client) GetProvider(ctx context.Context, id string) (Response[Provider], error) {
	return get[Provider](ctx, c, byID(EndpointProviders, id), nil)
}

func (c *Client) GetPostalCodes(ctx context.Context, p PostalCodeParams) (Response[[]PostalCode], error) {
	return get[[]PostalCode](ctx, c, EndpointZipCodes.Path(), p)
}

// GetStates returns the state codes the backend serves.
func (c *Client) GetStates(ctx context.Context) (Response[[]string], error) {
	return get[[]string](ctx, c, EndpointStates.Path(), nil)
}

// GetAllStates returns the code/name list used by program forms.
func (c *Client) GetAllStates(ctx context.Context) (Response[[]State], error) {
	return get[[]State](ctx, c, EndpointStatesList.Path(), nil)
}

func (c *Client) GetProgram(ctx context.Context, id string) (Response[Program], error) {
	return get[Program](ctx, c, byID(EndpointPrograms, id), nil)
}

func (c *Client) GetConditions(ctx context.Context) (PageResponse[Condition], error) {
	return get[Page[Condition]](ctx, c, EndpointProgramConditions.Path(), nil)
}

func (c *Client) GetPartners(ctx context.Context, p PartnersParams) (PageResponse[Partner], error) {
	return get[Page[Partner]](ctx, c, EndpointAssignee.Path(), p)
}

func (c *Client) GetVitals(ctx context.Context, programID string) (Response[[]Vital], error) {
	var q url.Values
	if programID != "" {
		q = url.Values{"programId": {programID}}
	}
	var out Response[[]Vital]
	err := c.do(ctx, http.MethodGet, EndpointUnderProgramVital.Path(), q, nil, &out)
	return out, err
}

func (c *Client) CreateAudit(ctx context.Context, a Audit) (Response[Audit], error) {
	var out Response[Audit]
	err := c.do(ctx, http.MethodPost, EndpointAudits.Path(), nil, a, &out)
	return out, err
}

func byID(e Endpoint, id string) string {
	return e.Path() + "/" + url.PathEscape(id)
}

func get[T any](ctx context.Context, c *Client, path string, params any) (Response[T], error) {
	var out Response[T]
	var q url.Values
	if params != nil {
		v, err := query.Values(params)
		if err != nil {
			return out, fmt.Errorf("api: encode query for %s: %w", path, err)
		}
		q = v
	}
	err := c.do(ctx, http.MethodGet, path, q, nil, &out)
	return out, err
}

// do sends one request. path is already escaped.
func (c *Client) do(ctx context.Context, method, path string, q url.Values, body any, out any) error {
	u, err := url.Parse(c.base + path)
	if err != nil {
		return fmt.Errorf("api: bad path %q: %w", path, err)
	}
	if len(q) > 0 {
		u.RawQuery = q.Encode()
	}

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("api: encode body for %s %s: %w", method, path, err)
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), rd)
	if err != nil {
		return err
	}
	for k, vs := range c.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	rid := uuid.NewString()
	req.Header.Set(HeaderRequestID, rid)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		// keep context errors recognisable for callers that abandoned the request
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	defer resp.Body.Close()

	c.log.Debug("api request", qc.Fields{
		"method":     method,
		"path":       path,
		"status":     resp.StatusCode,
		"request_id": rid,
		"took":       time.Since(start).String(),
	})

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &HTTPError{Method: method, Path: path, Status: resp.StatusCode, RequestID: rid, Body: b}
	}

	return decodeInto(resp, out)
}

// decodeInto fills the envelope behind out. An empty body leaves Data zero.
func decodeInto(resp *http.Response, out any) error {
	type envelope interface {
		setMeta(status int, h http.Header)
		dataPtr() any
	}
	env, ok := out.(envelope)
	if !ok {
		return fmt.Errorf("api: unsupported response target %T", out)
	}
	env.setMeta(resp.StatusCode, resp.Header.Clone())

	if resp.StatusCode == http.StatusNoContent {
		return nil
	}
	dec := json.NewDecoder(resp.Body)
	if err := dec.Decode(env.dataPtr()); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("api: decode response: %w", err)
	}
	return nil
}
