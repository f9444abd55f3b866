package api_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vrsandeep/shelf-go/internal/models"
)

func TestMemberHandlers(t *testing.T) {
	env := setupEnv(t)

	rr := env.user.do("POST", "/api/members", map[string]string{"name": "Ben"})
	expectStatus(t, rr, http.StatusCreated)
	var ben models.Member
	decode(t, rr, &ben)
	assert.Equal(t, env.familyID, ben.FamilyID)

	expectStatus(t, env.user.do("POST", "/api/members", map[string]string{"name": "Ben"}), http.StatusConflict)
	expectStatus(t, env.user.do("POST", "/api/members", map[string]string{"name": " "}), http.StatusBadRequest)

	rr = env.user.do("GET", "/api/members", nil)
	expectStatus(t, rr, http.StatusOK)
	var members []models.Member
	decode(t, rr, &members)
	require.Len(t, members, 2)
	assert.Equal(t, "Ana", members[0].Name)
	assert.Equal(t, "Ben", members[1].Name)

	expectStatus(t, env.user.do("DELETE", "/api/members/"+ben.ID, nil), http.StatusNoContent)
	expectStatus(t, env.user.as(ben.ID).do("GET", "/api/library", nil), http.StatusBadRequest)
}

func TestChangeFeed(t *testing.T) {
	env := setupEnv(t)
	ts := httptest.NewServer(env.server.Router())
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/changes"

	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err, "the feed requires a session")
	if resp != nil {
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	}

	header := http.Header{}
	header.Add("Cookie", env.user.cookie.String())
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, header)
	require.NoError(t, err)
	defer conn.Close()

	hub := env.server.App().WsHub()
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	rr := env.user.do("POST", "/api/series", map[string]string{"name": "Earthsea"})
	expectStatus(t, rr, http.StatusCreated)
	var series models.Series
	decode(t, rr, &series)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev models.ChangeEvent
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, models.CollectionSeries, ev.Collection)
	assert.Equal(t, "create", ev.Op)
	assert.Equal(t, series.ID, ev.ID)
	assert.Equal(t, env.familyID, ev.FamilyID)
}
