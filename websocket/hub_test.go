package websocket

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/baaten/partner_console/models"
	"github.com/baaten/partner_console/services"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

func TestHubBroadcastsTransitions(t *testing.T) {
	hub := NewHub(zap.NewNop())
	go hub.Run()

	e := echo.New()
	upgrader := NewUpgrader(nil)
	e.GET("/ws", func(c echo.Context) error {
		return HandleWebSocket(c, hub, upgrader, "op-1")
	})
	srv := httptest.NewServer(e)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var hello Notification
	if err := conn.ReadJSON(&hello); err != nil || hello.Type != NotificationTypeConnected {
		t.Fatalf("welcome = %+v, %v", hello, err)
	}

	hub.BroadcastTransition(models.TransitionEvent{
		Type:        services.EventPartnerApproved,
		PartnerID:   "p1",
		PartnerName: "Asha",
		Status:      models.StatusApproved,
	})

	var got Notification
	if err := conn.ReadJSON(&got); err != nil {
		t.Fatalf("read: %v", err)
	}
	if got.Type != NotificationTypeTransition || got.Message != "Asha was approved" {
		t.Errorf("notification = %+v", got)
	}
}

func TestUpgraderChecksOrigin(t *testing.T) {
	upgrader := NewUpgrader([]string{"https://admin.baaten.in"})
	cases := map[string]bool{
		"":                        true,
		"https://admin.baaten.in": true,
		"https://evil.test":       false,
	}
	for origin, want := range cases {
		req := httptest.NewRequest(http.MethodGet, "/ws", nil)
		if origin != "" {
			req.Header.Set("Origin", origin)
		}
		if got := upgrader.CheckOrigin(req); got != want {
			t.Errorf("CheckOrigin(%q) = %t, want %t", origin, got, want)
		}
	}
}

func TestTransitionMessage(t *testing.T) {
	msg := transitionMessage(models.TransitionEvent{
		Type:      services.EventTransitionFailed,
		PartnerID: "p9",
		Stage:     services.StageOnboard,
	})
	if msg != "p9 transition failed at onboard" {
		t.Errorf("message = %q", msg)
	}
}
