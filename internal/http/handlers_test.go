package http

import (
	"context"
	"encoding/json"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/ANIKETSHETTY47/utility-metering-backoffice/internal/auth"
	"github.com/ANIKETSHETTY47/utility-metering-backoffice/internal/domain"
	"github.com/ANIKETSHETTY47/utility-metering-backoffice/internal/relayid"
	"github.com/ANIKETSHETTY47/utility-metering-backoffice/internal/service"
)

type stubUsers struct {
	hash string
}

func (s *stubUsers) user(name string, id int64) *domain.User {
	return &domain.User{ID: id, Username: name, PasswordHash: s.hash, IsActive: true}
}

func (s *stubUsers) UserByUsername(_ context.Context, username string) (*domain.User, error) {
	switch username {
	case "admin":
		return s.user("admin", 1), nil
	case "viewer":
		return s.user("viewer", 2), nil
	}
	return nil, domain.ErrNotFound
}

func (s *stubUsers) UserByID(ctx context.Context, id int64) (*domain.User, error) {
	switch id {
	case 1:
		return s.UserByUsername(ctx, "admin")
	case 2:
		return s.UserByUsername(ctx, "viewer")
	}
	return nil, domain.ErrNotFound
}

func (s *stubUsers) UserPermissions(_ context.Context, userID int64) ([]string, error) {
	if userID == 1 {
		return auth.AllPermissions(), nil
	}
	return []string{"api.view_customer"}, nil
}

type harness struct {
	t    *testing.T
	idp  *auth.Provider
	mock sqlmock.Sqlmock
	call func(req *nethttp.Request) *nethttp.Response
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	hasher := auth.NewBcryptHasher(bcrypt.MinCost)
	hash, err := hasher.Hash("pw")
	require.NoError(t, err)

	idp := auth.NewProvider(&stubUsers{hash: hash}, auth.NewTokenService("k", time.Minute, time.Hour),
		auth.NewMemoryRevocationStore(), hasher, zerolog.Nop())
	app := NewApp(service.New(sqlx.NewDb(mockDB, "pgx"), zerolog.Nop()), idp, zerolog.Nop())

	return &harness{t: t, idp: idp, mock: mock, call: func(req *nethttp.Request) *nethttp.Response {
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		return resp
	}}
}

func (h *harness) token(user string) string {
	pair, err := h.idp.Obtain(context.Background(), user, "pw")
	require.NoError(h.t, err)
	return pair.Token
}

func request(method, target, token, body string) *nethttp.Request {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func decode(t *testing.T, resp *nethttp.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	out := map[string]any{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func errorCode(t *testing.T, resp *nethttp.Response) string {
	body := decode(t, resp)
	e, ok := body["error"].(map[string]any)
	require.True(t, ok, "error body: %v", body)
	return e["code"].(string)
}

func TestHealth(t *testing.T) {
	h := newHarness(t)
	resp := h.call(request(nethttp.MethodGet, "/health", "", ""))
	assert.Equal(t, nethttp.StatusOK, resp.StatusCode)
}

func TestAnonymousIsRejected(t *testing.T) {
	h := newHarness(t)

	resp := h.call(request(nethttp.MethodGet, "/api/customers", "", ""))
	assert.Equal(t, nethttp.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "UNAUTHENTICATED", errorCode(t, resp))

	resp = h.call(request(nethttp.MethodPost, "/api/customers", "bogus", `{"first_name":"a","last_name":"b"}`))
	assert.Equal(t, nethttp.StatusUnauthorized, resp.StatusCode)

	resp = h.call(request(nethttp.MethodPost, "/api/customers", "", `not json`))
	assert.Equal(t, nethttp.StatusUnauthorized, resp.StatusCode)

	assert.NoError(t, h.mock.ExpectationsWereMet())
}

func TestMissingPermissionIsForbidden(t *testing.T) {
	h := newHarness(t)
	tok := h.token("viewer")

	resp := h.call(request(nethttp.MethodPost, "/api/customers", tok, `{"first_name":"a","last_name":"b"}`))
	assert.Equal(t, nethttp.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "PERMISSION_DENIED", errorCode(t, resp))

	id := url.PathEscape(relayid.Encode(domain.KindMeter, 1))
	resp = h.call(request(nethttp.MethodDelete, "/api/meters/"+id, tok, ""))
	assert.Equal(t, nethttp.StatusForbidden, resp.StatusCode)

	assert.NoError(t, h.mock.ExpectationsWereMet())
}

func TestCreateCustomer(t *testing.T) {
	h := newHarness(t)

	h.mock.ExpectBegin()
	h.mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO customers`)).
		WithArgs("Dave", "Backster").
		WillReturnRows(sqlmock.NewRows([]string{"id", "first_name", "last_name", "created_at"}).
			AddRow(4, "Dave", "Backster", time.Now()))
	h.mock.ExpectCommit()

	resp := h.call(request(nethttp.MethodPost, "/api/customers", h.token("admin"), `{"first_name":"Dave","last_name":"Backster"}`))
	require.Equal(t, nethttp.StatusCreated, resp.StatusCode)

	body := decode(t, resp)
	assert.Equal(t, relayid.Encode(domain.KindCustomer, 4), body["id"])
	assert.Equal(t, "Dave", body["first_name"])
	assert.NoError(t, h.mock.ExpectationsWereMet())
}

func TestCreateWithBadBody(t *testing.T) {
	h := newHarness(t)

	resp := h.call(request(nethttp.MethodPost, "/api/customers", h.token("admin"), `{"first_name":`))
	assert.Equal(t, nethttp.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(t, resp))
}

func TestReadCustomers(t *testing.T) {
	h := newHarness(t)

	h.mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, first_name, last_name, created_at FROM customers WHERE last_name ILIKE $1 ORDER BY created_at, id LIMIT $2`)).
		WithArgs("%oe%", 101).
		WillReturnRows(sqlmock.NewRows([]string{"id", "first_name", "last_name", "created_at"}).
			AddRow(3, "Amy", "Joe", time.Now()))

	resp := h.call(request(nethttp.MethodGet, "/api/customers?last_name__icontains=oe", h.token("viewer"), ""))
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)

	body := decode(t, resp)
	edges := body["edges"].([]any)
	require.Len(t, edges, 1)
	node := edges[0].(map[string]any)["node"].(map[string]any)
	assert.Equal(t, "Amy", node["first_name"])
	assert.Equal(t, relayid.Encode(domain.KindCustomer, 3), node["id"])
	assert.Equal(t, false, body["page_info"].(map[string]any)["has_next_page"])
	assert.NoError(t, h.mock.ExpectationsWereMet())
}

func TestGetByEscapedID(t *testing.T) {
	h := newHarness(t)

	h.mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, first_name, last_name, created_at FROM customers WHERE id = $1`)).
		WithArgs(int64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "first_name", "last_name", "created_at"}))

	id := strings.ReplaceAll(relayid.Encode(domain.KindCustomer, 4), "=", "%3D")
	resp := h.call(request(nethttp.MethodGet, "/api/customers/"+id, h.token("viewer"), ""))
	assert.Equal(t, nethttp.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", errorCode(t, resp))
	assert.NoError(t, h.mock.ExpectationsWereMet())
}

func TestMalformedID(t *testing.T) {
	h := newHarness(t)

	resp := h.call(request(nethttp.MethodGet, "/api/customers/nope", h.token("viewer"), ""))
	assert.Equal(t, nethttp.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "MALFORMED_ID", errorCode(t, resp))
}

func TestTokenEndpoints(t *testing.T) {
	h := newHarness(t)

	resp := h.call(request(nethttp.MethodPost, "/auth/token", "", `{"username":"admin","password":"wrong"}`))
	assert.Equal(t, nethttp.StatusUnauthorized, resp.StatusCode)

	resp = h.call(request(nethttp.MethodPost, "/auth/token", "", `{"username":"admin","password":"pw"}`))
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)
	pair := decode(t, resp)
	access := pair["token"].(string)
	refresh := pair["refresh_token"].(string)

	resp = h.call(request(nethttp.MethodPost, "/auth/verify", "", `{"token":"`+access+`"}`))
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)
	payload := decode(t, resp)["payload"].(map[string]any)
	assert.Equal(t, "admin", payload["username"])

	resp = h.call(request(nethttp.MethodPost, "/auth/refresh", "", `{"refresh_token":"`+refresh+`"}`))
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)
	next := decode(t, resp)

	resp = h.call(request(nethttp.MethodPost, "/auth/revoke", "", `{"refresh_token":"`+next["refresh_token"].(string)+`"}`))
	assert.Equal(t, nethttp.StatusOK, resp.StatusCode)

	resp = h.call(request(nethttp.MethodPost, "/auth/invalidate", "", `{"token":"`+access+`"}`))
	assert.Equal(t, nethttp.StatusOK, resp.StatusCode)

	resp = h.call(request(nethttp.MethodGet, "/api/customers", access, ""))
	assert.Equal(t, nethttp.StatusUnauthorized, resp.StatusCode, "invalidated token")
}

func TestRateView(t *testing.T) {
	end := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)
	n := rateView(&domain.Rate{
		ID:             2,
		EffectiveStart: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		EffectiveEnd:   &end,
		UnitOfMeasure:  domain.Liter,
	}).(rateNode)
	assert.Equal(t, "0.0000", n.Rate)
	assert.Equal(t, "2024-01-01", n.EffectiveStart)
	assert.Equal(t, "2024-12-31", *n.EffectiveEnd)
}
