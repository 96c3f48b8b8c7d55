package handlers

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/VanshGarg05/WhatsappWebClone/internal/handlers/ws"
	"github.com/gofiber/fiber/v2"
)

type stubConn struct{}

func (stubConn) WriteMessage(messageType int, data []byte) error { return nil }
func (stubConn) WriteControl(messageType int, data []byte, deadline time.Time) error {
	return nil
}
func (stubConn) SetReadDeadline(t time.Time) error   { return nil }
func (stubConn) SetPongHandler(h func(string) error) {}
func (stubConn) Close() error                        { return nil }

func onlineUsersApp(handler *UserHandler, authed bool) *fiber.App {
	app := fiber.New()
	app.Get("/api/users/online", func(c *fiber.Ctx) error {
		if authed {
			c.Locals("userID", uint(1))
		}
		return c.Next()
	}, handler.GetOnlineUsers)
	return app
}

func TestGetOnlineUsersFallsBackToHub(t *testing.T) {
	hub := ws.NewHub(nil)
	hub.Register(2, "bob", stubConn{})
	hub.Register(3, "carol", stubConn{})

	// No Redis attached: the mirror is disabled and the hub answers.
	handler := NewUserHandler(nil, hub, nil)
	app := onlineUsersApp(handler, true)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/users/online", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	body, _ := io.ReadAll(resp.Body)
	var payload struct {
		OnlineUserIDs []uint `json:"online_user_ids"`
		Count         int    `json:"count"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("bad body %q: %v", body, err)
	}
	if payload.Count != 2 || len(payload.OnlineUserIDs) != 2 {
		t.Errorf("expected the hub's 2 bindings, got %+v", payload)
	}
	seen := map[uint]bool{}
	for _, id := range payload.OnlineUserIDs {
		seen[id] = true
	}
	if !seen[2] || !seen[3] {
		t.Errorf("expected users 2 and 3 online, got %v", payload.OnlineUserIDs)
	}
}

func TestGetOnlineUsersRequiresAuth(t *testing.T) {
	handler := NewUserHandler(nil, ws.NewHub(nil), nil)
	app := onlineUsersApp(handler, false)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/users/online", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Errorf("expected 401, got %d", resp.StatusCode)
	}
}
