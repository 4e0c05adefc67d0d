package realtime

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func startHubServer(t *testing.T) (*Hub, string) {
	t.Helper()

	hub := NewHub()
	go hub.Run()
	t.Cleanup(hub.Stop)

	router := gin.New()
	router.GET("/realtime", hub.ServeWS)
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return hub, "ws" + strings.TrimPrefix(server.URL, "http") + "/realtime"
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var event Event
	require.NoError(t, conn.ReadJSON(&event))
	return event
}

func TestHubDeliversEventsInOrder(t *testing.T) {
	hub, url := startHubServer(t)
	conn := dial(t, url)

	// Let the registration land before publishing
	time.Sleep(50 * time.Millisecond)

	hub.Publish(NewSignupEvent("ada@example.com", 1, "AAAAAA"))
	hub.Publish(NewReferralEvent("AAAAAA", 1))
	hub.Publish(AnalyticsUpdateEvent(2, 1))

	first := readEvent(t, conn)
	assert.Equal(t, EventNewSignup, first.Type)
	payload := first.Payload.(map[string]interface{})
	assert.Equal(t, "ada@example.com", payload["email"])
	assert.Equal(t, float64(1), payload["position"])
	assert.Equal(t, "AAAAAA", payload["referral_code"])

	assert.Equal(t, EventNewReferral, readEvent(t, conn).Type)
	assert.Equal(t, EventAnalyticsUpdate, readEvent(t, conn).Type)
	assert.Equal(t, int64(3), hub.Published())
}

func TestHubFansOutToAllClients(t *testing.T) {
	hub, url := startHubServer(t)
	first := dial(t, url)
	second := dial(t, url)

	time.Sleep(50 * time.Millisecond)
	hub.Publish(NewSignupEvent("grace@example.com", 3, "BBBBBB"))

	assert.Equal(t, EventNewSignup, readEvent(t, first).Type)
	assert.Equal(t, EventNewSignup, readEvent(t, second).Type)
}

func TestHubSurvivesClientDisconnect(t *testing.T) {
	hub, url := startHubServer(t)

	gone := dial(t, url)
	gone.Close()
	stays := dial(t, url)

	time.Sleep(50 * time.Millisecond)
	hub.Publish(AnalyticsUpdateEvent(10, 4))

	assert.Equal(t, EventAnalyticsUpdate, readEvent(t, stays).Type)
}

func TestHubDropsFramesForSlowClients(t *testing.T) {
	hub, url := startHubServer(t)

	// The client never reads, so once its send buffer and the socket
	// buffers fill, further frames must be dropped instead of blocking
	// the broadcast loop
	dial(t, url)
	time.Sleep(50 * time.Millisecond)

	for i := 0; i < clientSendBuf*20; i++ {
		hub.Publish(AnalyticsUpdateEvent(int64(i), 0))
		if i%broadcastBuf == 0 {
			time.Sleep(5 * time.Millisecond)
		}
	}

	deadline := time.Now().Add(2 * time.Second)
	for hub.DroppedFrames() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	assert.Greater(t, hub.DroppedFrames(), int64(0))
}

func TestServeWSAfterStopClosesConnection(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	router := gin.New()
	router.GET("/realtime", hub.ServeWS)
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/realtime"

	hub.Stop()

	// The handler must not hang on registration once the hub loop has
	// exited; the upgraded connection is closed instead
	done := make(chan struct{})
	go func() {
		defer close(done)
		conn, _, err := websocket.DefaultDialer.Dial(url, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, _, readErr := conn.ReadMessage()
		assert.Error(t, readErr)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("connection to a stopped hub hung")
	}
}

func TestPublishNeverBlocksWithoutRunningLoop(t *testing.T) {
	hub := NewHub()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < broadcastBuf*4; i++ {
			hub.Publish(AnalyticsUpdateEvent(int64(i), 0))
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked with a full broadcast buffer")
	}
	assert.Greater(t, hub.DroppedFrames(), int64(0))
}
