package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

type backend struct {
	mu      sync.Mutex
	queries []string
	reqIDs  []string
	audits  []Audit
}

func (b *backend) record(c echo.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.queries = append(b.queries, c.Request().URL.RawQuery)
	b.reqIDs = append(b.reqIDs, c.Request().Header.Get(HeaderRequestID))
}

func (b *backend) query(i int) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.queries[i]
}

func (b *backend) snapshot() (ids []string, audits []Audit) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.reqIDs...), append([]Audit(nil), b.audits...)
}

func newBackend(t *testing.T) (*Client, *backend) {
	t.Helper()
	b := &backend{}
	e := echo.New()
	e.HideBanner = true

	g := e.Group("/v1")
	g.GET("/clients", func(c echo.Context) error {
		b.record(c)
		page, _ := strconv.Atoi(c.QueryParam("page"))
		return c.JSON(http.StatusOK, Page[Client]{
			Data:    []Client{{ID: "c" + strconv.Itoa(page)}},
			Total:   2,
			Limit:   1,
			Offset:  page - 1,
			HasMore: page < 2,
		})
	})
	g.GET("/clients/:id", func(c echo.Context) error {
		b.record(c)
		if c.Param("id") == "missing" {
			return c.String(http.StatusNotFound, "no such client")
		}
		return c.JSON(http.StatusOK, FullClient{Client: Client{ID: c.Param("id")}, Notes: "n"})
	})
	g.GET("/providers/me", func(c echo.Context) error {
		b.record(c)
		c.Response().Header().Set("X-Trace", "abc")
		return c.JSON(http.StatusOK, Provider{ID: "me", Active: true})
	})
	g.GET("/states", func(c echo.Context) error {
		b.record(c)
		return c.NoContent(http.StatusInternalServerError)
	})
	g.GET("/programs/vitals", func(c echo.Context) error {
		b.record(c)
		return c.JSON(http.StatusOK, []Vital{{ID: "v1", Code: c.QueryParam("programId")}})
	})
	g.GET("/postal-codes", func(c echo.Context) error {
		b.record(c)
		return c.JSON(http.StatusOK, []PostalCode{{ZipCode: c.QueryParam("zipCode"), City: "Austin"}})
	})
	g.GET("/slow", func(c echo.Context) error {
		select {
		case <-c.Request().Context().Done():
		case <-time.After(2 * time.Second):
		}
		return c.NoContent(http.StatusOK)
	})
	g.POST("/audits", func(c echo.Context) error {
		b.record(c)
		var a Audit
		if err := c.Bind(&a); err != nil {
			return err
		}
		a.ID = "a1"
		b.mu.Lock()
		b.audits = append(b.audits, a)
		b.mu.Unlock()
		return c.JSON(http.StatusCreated, a)
	})

	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)

	c, err := New(Config{BaseURL: srv.URL + "/v1/", Header: http.Header{"Authorization": {"Bearer t"}}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c, b
}

func TestNewRejectsBadBaseURL(t *testing.T) {
	for _, u := range []string{"", "localhost:8080", "ftp://x", "http://"} {
		if _, err := New(Config{BaseURL: u}); !errors.Is(err, ErrBaseURL) {
			t.Fatalf("%q: expected ErrBaseURL, got %v", u, err)
		}
	}
}

func TestGetClientsEncodesParams(t *testing.T) {
	c, b := newBackend(t)

	res, err := c.GetClients(context.Background(), ClientsParams{PageParams: PageParams{Page: 2}, Status: "active"})
	if err != nil {
		t.Fatalf("GetClients: %v", err)
	}
	if res.Status != http.StatusOK {
		t.Fatalf("status = %d", res.Status)
	}
	if len(res.Data.Data) != 1 || res.Data.Data[0].ID != "c2" || res.Data.HasMore {
		t.Fatalf("unexpected page: %+v", res.Data)
	}
	if got := b.query(0); got != "page=2&status=active" {
		t.Fatalf("query = %q", got)
	}
	if ids, _ := b.snapshot(); ids[0] == "" {
		t.Fatalf("missing %s header", HeaderRequestID)
	}
}

func TestZeroParamsSendNoQuery(t *testing.T) {
	c, b := newBackend(t)
	if _, err := c.GetClients(context.Background(), ClientsParams{}); err != nil {
		t.Fatalf("GetClients: %v", err)
	}
	if got := b.query(0); got != "" {
		t.Fatalf("expected empty query, got %q", got)
	}
}

func TestRequestIDsAreUnique(t *testing.T) {
	c, b := newBackend(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if _, err := c.GetMe(ctx); err != nil {
			t.Fatalf("GetMe: %v", err)
		}
	}
	ids, _ := b.snapshot()
	seen := map[string]bool{}
	for _, id := range ids {
		if seen[id] {
			t.Fatalf("duplicate request id %q", id)
		}
		seen[id] = true
	}
}

func TestGetMeCarriesHeaders(t *testing.T) {
	c, _ := newBackend(t)
	res, err := c.GetMe(context.Background())
	if err != nil {
		t.Fatalf("GetMe: %v", err)
	}
	if res.Data.ID != "me" || !res.Data.Active {
		t.Fatalf("unexpected data: %+v", res.Data)
	}
	if res.Header.Get("X-Trace") != "abc" {
		t.Fatalf("response header lost: %v", res.Header)
	}
}

func TestGetClientByIDAndNotFound(t *testing.T) {
	c, _ := newBackend(t)
	ctx := context.Background()

	res, err := c.GetClient(ctx, "c 1")
	if err != nil {
		t.Fatalf("GetClient: %v", err)
	}
	if res.Data.ID != "c 1" || res.Data.Notes != "n" {
		t.Fatalf("unexpected client: %+v", res.Data)
	}

	_, err = c.GetClient(ctx, "missing")
	var he *HTTPError
	if !errors.As(err, &he) {
		t.Fatalf("expected *HTTPError, got %T %v", err, err)
	}
	if he.Status != http.StatusNotFound || he.Method != http.MethodGet || he.Path != "/clients/missing" {
		t.Fatalf("unexpected error fields: %+v", he)
	}
	if string(he.Body) != "no such client" || he.RequestID == "" {
		t.Fatalf("unexpected body/request id: %q %q", he.Body, he.RequestID)
	}
}

func TestServerErrorWithoutBody(t *testing.T) {
	c, _ := newBackend(t)
	_, err := c.GetStates(context.Background())
	var he *HTTPError
	if !errors.As(err, &he) || he.Status != http.StatusInternalServerError {
		t.Fatalf("expected 500 HTTPError, got %v", err)
	}
	if he.Error() != "api: GET /states: 500: Internal Server Error" {
		t.Fatalf("Error() = %q", he.Error())
	}
}

func TestGetVitalsAndPostalCodes(t *testing.T) {
	c, b := newBackend(t)
	ctx := context.Background()

	v, err := c.GetVitals(ctx, "p1")
	if err != nil {
		t.Fatalf("GetVitals: %v", err)
	}
	if len(v.Data) != 1 || v.Data[0].Code != "p1" {
		t.Fatalf("unexpected vitals: %+v", v.Data)
	}

	z, err := c.GetPostalCodes(ctx, PostalCodeParams{ZipCode: "78701"})
	if err != nil {
		t.Fatalf("GetPostalCodes: %v", err)
	}
	if len(z.Data) != 1 || z.Data[0].ZipCode != "78701" {
		t.Fatalf("unexpected postal codes: %+v", z.Data)
	}
	if got := b.query(1); got != "zipCode=78701" {
		t.Fatalf("query = %q", got)
	}
}

func TestCreateAuditPostsJSON(t *testing.T) {
	c, b := newBackend(t)
	res, err := c.CreateAudit(context.Background(), Audit{Action: "view", ResourceID: "c1"})
	if err != nil {
		t.Fatalf("CreateAudit: %v", err)
	}
	if res.Status != http.StatusCreated || res.Data.ID != "a1" || res.Data.Action != "view" {
		t.Fatalf("unexpected response: %+v", res)
	}
	if _, audits := b.snapshot(); len(audits) != 1 || audits[0].ResourceID != "c1" {
		t.Fatalf("backend did not receive audit: %+v", audits)
	}
}

func TestCancelledContextSurfaces(t *testing.T) {
	c, _ := newBackend(t)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	var out Response[struct{}]
	err := c.do(ctx, http.MethodGet, "/slow", nil, nil, &out)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}
