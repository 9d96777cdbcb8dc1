package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/mguerin/materiguard/gate"
	"github.com/mguerin/materiguard/internal/db"
	"github.com/mguerin/materiguard/internal/services"
)

type testEnv struct {
	srv    *httptest.Server
	client *http.Client
	db     *gorm.DB
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(conn))
	require.NoError(t, db.Seed(conn))

	srv := httptest.NewServer(New(conn, zap.NewNop(), "http://materiguard.test"))
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return &testEnv{srv: srv, client: client, db: conn}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, e.srv.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	resp, err := e.client.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, dst any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dst))
}

func (e *testEnv) login(t *testing.T, username, password string) map[string]any {
	t.Helper()
	resp := e.do(t, http.MethodPost, "/login", map[string]string{"username": username, "password": password})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var rec map[string]any
	decodeBody(t, resp, &rec)
	return rec
}

func TestLoginAndMe(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/login", map[string]string{"username": "admin", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	rec := env.login(t, "admin", "admin123")
	assert.Equal(t, "Administrator", rec["role"])
	perms, ok := rec["permissions"].([]any)
	require.True(t, ok)
	assert.Contains(t, perms, "manage_users")

	resp = env.do(t, http.MethodGet, "/me", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var me map[string]any
	decodeBody(t, resp, &me)
	assert.Equal(t, "admin", me["username"])
}

func TestMeWithoutSession(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, http.MethodGet, "/me", nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLogoutEndsSession(t *testing.T) {
	env := newTestEnv(t)
	env.login(t, "admin", "admin123")

	resp := env.do(t, http.MethodPost, "/logout", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = env.do(t, http.MethodGet, "/me", nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRefreshSlidesExpiryKeepsLoginTime(t *testing.T) {
	env := newTestEnv(t)
	rec := env.login(t, "admin", "admin123")
	firstExpiry, err := time.Parse(time.RFC3339Nano, rec["expiresAt"].(string))
	require.NoError(t, err)
	loginTime := rec["loginTime"].(string)

	time.Sleep(20 * time.Millisecond)

	resp := env.do(t, http.MethodPost, "/me/refresh", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var renewed map[string]any
	decodeBody(t, resp, &renewed)

	secondExpiry, err := time.Parse(time.RFC3339Nano, renewed["expiresAt"].(string))
	require.NoError(t, err)
	assert.True(t, secondExpiry.After(firstExpiry), "refresh must push expiry forward")
	assert.Equal(t, loginTime, renewed["loginTime"], "original login time is preserved")

	// The re-issued cookie keeps the session usable.
	resp = env.do(t, http.MethodGet, "/me", nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestUserRoleIsDeniedUserManagement(t *testing.T) {
	env := newTestEnv(t)
	_, err := services.NewUserService(env.db).Create(services.UserInput{
		Username: "agent1",
		Email:    "agent1@example.org",
		Password: "secret99",
		Role:     gate.RoleUser,
	})
	require.NoError(t, err)

	env.login(t, "agent1", "secret99")

	// Reading stock is allowed for every role.
	resp := env.do(t, http.MethodGet, "/articles", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// Managing users is not.
	resp = env.do(t, http.MethodGet, "/users", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	// Neither is creating stock: create belongs to Manager and above.
	resp = env.do(t, http.MethodPost, "/articles", map[string]any{"name": "Jumelles", "quantity_total": 2})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestLoanWorkflowOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	env.login(t, "admin", "admin123")

	resp := env.do(t, http.MethodPost, "/articles", map[string]any{
		"name": "Jumelles thermiques", "category": "Optique", "quantity_total": 10, "alert_threshold": 2,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var article map[string]any
	decodeBody(t, resp, &article)
	articleID := uint(article["id"].(float64))
	assert.EqualValues(t, 10, article["quantity_available"])

	due := time.Now().Add(7 * 24 * time.Hour).Format(time.RFC3339)

	// Too greedy: more than the shelf holds.
	resp = env.do(t, http.MethodPost, "/loans", map[string]any{
		"agent": "Martin", "article_id": articleID, "quantity": 11, "expected_return": due,
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	var errBody map[string]any
	decodeBody(t, resp, &errBody)
	assert.Equal(t, "insufficient_stock", errBody["error"])

	resp = env.do(t, http.MethodPost, "/loans", map[string]any{
		"agent": "Martin", "article_id": articleID, "quantity": 9, "expected_return": due,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var loan map[string]any
	decodeBody(t, resp, &loan)
	loanID := uint(loan["id"].(float64))
	assert.Equal(t, "En cours", loan["status"])

	resp = env.do(t, http.MethodGet, fmt.Sprintf("/articles/%d", articleID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeBody(t, resp, &article)
	assert.EqualValues(t, 1, article["quantity_available"])

	resp = env.do(t, http.MethodPost, fmt.Sprintf("/loans/%d/return", loanID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeBody(t, resp, &loan)
	assert.Equal(t, "Retourné", loan["status"])

	// Returning again is a conflict.
	resp = env.do(t, http.MethodPost, fmt.Sprintf("/loans/%d/return", loanID), nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	resp = env.do(t, http.MethodGet, fmt.Sprintf("/articles/%d", articleID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeBody(t, resp, &article)
	assert.EqualValues(t, 10, article["quantity_available"])
}

func TestIssuanceQRImage(t *testing.T) {
	env := newTestEnv(t)
	env.login(t, "admin", "admin123")

	due := time.Now().Add(48 * time.Hour).Format(time.RFC3339)
	resp := env.do(t, http.MethodPost, "/issuances", map[string]any{
		"agent": "Durand", "materials": []string{"Radio portative"}, "expected_return": due,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var issuance map[string]any
	decodeBody(t, resp, &issuance)
	id := uint(issuance["id"].(float64))
	assert.True(t, strings.HasPrefix(issuance["qr_code"].(string), "MGT-"))

	resp = env.do(t, http.MethodGet, fmt.Sprintf("/issuances/%d/qr.png", id), nil)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	magic := make([]byte, 4)
	_, err := io.ReadFull(resp.Body, magic)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, magic)
}

func TestDashboardAndAlerts(t *testing.T) {
	env := newTestEnv(t)
	env.login(t, "admin", "admin123")

	resp := env.do(t, http.MethodGet, "/dashboard/stats", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var stats map[string]any
	decodeBody(t, resp, &stats)
	assert.Contains(t, stats, "articles")
	assert.Contains(t, stats, "active_loans")
	assert.Contains(t, stats, "overdue_loans")

	resp = env.do(t, http.MethodGet, "/dashboard/alerts", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var alerts []map[string]any
	decodeBody(t, resp, &alerts)
	assert.NotNil(t, alerts)
}

func TestExportDownload(t *testing.T) {
	env := newTestEnv(t)
	env.login(t, "admin", "admin123")

	resp := env.do(t, http.MethodGet, "/exports/stock", nil)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "stock_")
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	resp, err := http.Get(env.srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
