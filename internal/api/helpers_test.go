package api_test

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/vrsandeep/shelf-go/internal/api"
	"github.com/vrsandeep/shelf-go/internal/testutil"
)

// client sends requests to the router as one logged-in user acting as
// one member.
type client struct {
	t      *testing.T
	router http.Handler
	cookie *http.Cookie
	member string
}

func (c *client) as(memberID string) *client {
	cp := *c
	cp.member = memberID
	return &cp
}

func (c *client) do(method, target string, body interface{}) *httptest.ResponseRecorder {
	c.t.Helper()
	var reader io.Reader
	if body != nil {
		if s, ok := body.(string); ok {
			reader = bytes.NewBufferString(s)
		} else {
			payload, err := json.Marshal(body)
			if err != nil {
				c.t.Fatalf("Failed to encode request body: %v", err)
			}
			reader = bytes.NewBuffer(payload)
		}
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	if c.cookie != nil {
		req.AddCookie(c.cookie)
	}
	if c.member != "" {
		req.Header.Set(api.MemberHeader, c.member)
	}
	rr := httptest.NewRecorder()
	c.router.ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), v); err != nil {
		t.Fatalf("Could not unmarshal response body %q: %v", rr.Body.String(), err)
	}
}

func expectStatus(t *testing.T, rr *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rr.Code != want {
		t.Fatalf("handler returned wrong status code: got %v want %v, body: %s", rr.Code, want, rr.Body.String())
	}
}

type testEnv struct {
	server   *api.Server
	db       *sql.DB
	familyID string
	memberID string
	user     *client // acting as memberID
	admin    *client
}

// setupEnv creates a family "Smith" with member Ana, a regular user and an
// admin user, both logged in.
func setupEnv(t *testing.T) *testEnv {
	t.Helper()
	server, db := testutil.SetupTestServer(t)
	familyID, memberID := testutil.SeedFamily(t, db, "Smith", "Ana")
	router := server.Router()

	userCookie := testutil.GetAuthCookie(t, server, familyID, "ana", "password123", "user")
	adminCookie := testutil.GetAuthCookie(t, server, familyID, "root", "password123", "admin")

	return &testEnv{
		server:   server,
		db:       db,
		familyID: familyID,
		memberID: memberID,
		user:     &client{t: t, router: router, cookie: userCookie, member: memberID},
		admin:    &client{t: t, router: router, cookie: adminCookie},
	}
}
