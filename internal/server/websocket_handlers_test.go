package server

import (
	"encoding/json"
	"net"
	"net/http"
	"testing"
	"time"

	"postshare/internal/config"
	"postshare/internal/featureflags"
	"postshare/internal/models"
	"postshare/internal/notifications"

	"github.com/gofiber/fiber/v2"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const wsWait = 2 * time.Second

// listen serves the harness app on a loopback port and returns its ws:// base URL.
func (h *harness) listen(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = h.app.Listener(ln) }()
	t.Cleanup(func() { _ = h.app.ShutdownWithTimeout(time.Second) })
	return "ws://" + ln.Addr().String() + "/ws"
}

func (h *harness) dial(t *testing.T, url string, userID uint) *websocket.Conn {
	t.Helper()
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })
	require.Eventually(t, func() bool { return h.s.hub.IsOnline(userID) }, wsWait, 10*time.Millisecond)
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) notifications.Event {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(wsWait)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)
	var ev notifications.Event
	require.NoError(t, json.Unmarshal(raw, &ev))
	return ev
}

func expectSilence(t *testing.T, conn *websocket.Conn) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)
	var netErr net.Error
	if assert.ErrorAs(t, err, &netErr) {
		assert.True(t, netErr.Timeout())
	}
}

func TestWebsocket_ClientRelay(t *testing.T) {
	h := newHarness(t)
	ada := h.user(t, "ada")
	bob := h.user(t, "bob")
	url := h.listen(t)

	sender := h.dial(t, url+"?userId="+itoa(ada.ID), ada.ID)
	receiver := h.dial(t, url+"?token="+h.token(t, bob.ID), bob.ID)

	postID := uint(7)
	require.NoError(t, sender.WriteJSON(notifications.RelayRequest{
		Type:   models.NotificationComment,
		UserID: bob.ID,
		PostID: &postID,
	}))

	ev := readEvent(t, receiver)
	assert.Equal(t, models.NotificationComment, ev.Type)
	assert.Equal(t, ada.ID, ev.From)
	require.NotNil(t, ev.PostID)
	assert.Equal(t, postID, *ev.PostID)

	// Malformed requests are dropped and the connection stays usable.
	require.NoError(t, sender.WriteMessage(websocket.TextMessage, []byte(`{"type":"poke","userId":2}`)))
	require.NoError(t, sender.WriteJSON(notifications.RelayRequest{Type: models.NotificationFollow, UserID: bob.ID}))
	ev = readEvent(t, receiver)
	assert.Equal(t, models.NotificationFollow, ev.Type)
	assert.Nil(t, ev.PostID)
}

func TestWebsocket_ServerPushOnLikeAndFollow(t *testing.T) {
	h := newHarness(t)
	ada := h.user(t, "ada")
	bob := h.user(t, "bob")
	p := h.post(t, ada.ID, "push me")
	url := h.listen(t)

	owner := h.dial(t, url+"?userId="+itoa(ada.ID), ada.ID)

	resp := h.do(t, http.MethodPost, "/api/post/"+itoa(p.ID)+"/like", fiber.Map{"userId": bob.ID}, "", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	ev := readEvent(t, owner)
	assert.Equal(t, models.NotificationLike, ev.Type)
	assert.Equal(t, bob.ID, ev.From)
	require.NotNil(t, ev.PostID)
	assert.Equal(t, p.ID, *ev.PostID)

	// Unliking pushes nothing.
	resp = h.do(t, http.MethodPost, "/api/post/"+itoa(p.ID)+"/like", fiber.Map{"userId": bob.ID}, "", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = h.do(t, http.MethodPost, "/api/auth/follow/"+itoa(ada.ID), fiber.Map{"actingUserId": bob.ID}, "", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	ev = readEvent(t, owner)
	assert.Equal(t, models.NotificationFollow, ev.Type)
	assert.Equal(t, bob.ID, ev.From)
}

func TestWebsocket_OwnActionsDoNotPush(t *testing.T) {
	h := newHarness(t)
	ada := h.user(t, "ada")
	p := h.post(t, ada.ID, "mine")
	url := h.listen(t)

	owner := h.dial(t, url+"?userId="+itoa(ada.ID), ada.ID)

	resp := h.do(t, http.MethodPost, "/api/post/"+itoa(p.ID)+"/comment", fiber.Map{"user": ada.ID, "text": "self"}, "", nil)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	expectSilence(t, owner)
}

func TestWebsocket_FlagsOff(t *testing.T) {
	h := newHarness(t, func(cfg *config.Config) {
		cfg.FeatureFlags = featureflags.ClientRelay + "=off," + featureflags.ServerPush + "=off"
	})
	ada := h.user(t, "ada")
	bob := h.user(t, "bob")
	p := h.post(t, ada.ID, "quiet")
	url := h.listen(t)

	sender := h.dial(t, url+"?userId="+itoa(bob.ID), bob.ID)
	owner := h.dial(t, url+"?userId="+itoa(ada.ID), ada.ID)

	require.NoError(t, sender.WriteJSON(notifications.RelayRequest{Type: models.NotificationLike, UserID: ada.ID}))
	resp := h.do(t, http.MethodPost, "/api/post/"+itoa(p.ID)+"/like", fiber.Map{"userId": bob.ID}, "", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	expectSilence(t, owner)
}

func TestWebsocket_UpgradeRejections(t *testing.T) {
	h := newHarness(t)
	h.user(t, "ada")
	url := h.listen(t)

	resp := h.do(t, http.MethodGet, "/ws?userId=1", nil, "", nil)
	assert.Equal(t, fiber.StatusUpgradeRequired, resp.StatusCode)

	tests := []struct {
		name   string
		query  string
		status int
	}{
		{"unknown user", "?userId=999", http.StatusNotFound},
		{"no identity", "", http.StatusUnauthorized},
		{"bad token", "?token=garbage", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, resp, err := websocket.DefaultDialer.Dial(url+tt.query, nil)
			require.Error(t, err)
			require.NotNil(t, resp)
			defer func() { _ = resp.Body.Close() }()
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestFeatureFlagsEndpoint(t *testing.T) {
	h := newHarness(t, func(cfg *config.Config) {
		cfg.FeatureFlags = featureflags.ClientRelay + "=off"
	})

	var body struct {
		Raw       map[string]string `json:"raw"`
		Evaluated map[string]bool   `json:"evaluated"`
	}
	resp := h.do(t, http.MethodGet, "/api/features?userId=3", nil, "", &body)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "off", body.Raw[featureflags.ClientRelay])
	assert.False(t, body.Evaluated[featureflags.ClientRelay])
	assert.True(t, body.Evaluated[featureflags.ServerPush])
}

func TestWebsocket_RegisterRejectionIsJSON(t *testing.T) {
	h := newHarness(t)
	ada := h.user(t, "ada")
	url := h.listen(t) + "?userId=" + itoa(ada.ID)

	for i := 1; i <= 12; i++ {
		h.dial(t, url, ada.ID)
		require.Eventually(t, func() bool { return h.s.hub.Connections(ada.ID) == i }, wsWait, 10*time.Millisecond)
	}

	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(wsWait)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)
	var body map[string]string
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, notifications.ErrUserFull.Error(), body["error"])
}
