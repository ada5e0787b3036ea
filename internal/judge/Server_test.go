package judge

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Mshel/lightcycle/internal/game"
	"github.com/gorilla/websocket"
)

// corridorTurn has a single free neighbour for self: right.
const corridorTurn = `{
	"selfPosition": [1, 1],
	"opponentPosition": [4, 3],
	"grid": [
		[1, 1, 1, 1, 1],
		[1, 0, 0, 0, 0],
		[1, 1, 1, 1, 0],
		[0, 0, 0, 0, 0]
	]
}`

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	server := NewServer(nil, nil)
	srv := httptest.NewServer(server.Handler())
	t.Cleanup(srv.Close)
	return server, srv
}

func postMove(t *testing.T, url, body string) (int, map[string]any) {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	defer resp.Body.Close()

	var payload map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp.StatusCode, payload
}

func TestMove(t *testing.T) {
	_, srv := newTestServer(t)

	status, payload := postMove(t, srv.URL+"/move", corridorTurn)
	if status != http.StatusOK {
		t.Fatalf("status %d, payload %v", status, payload)
	}
	if payload["move"] != "right" || payload["mode"] != "full" {
		t.Errorf("got %v, want right/full", payload)
	}
}

func TestMoveMalformedTurnFallsBack(t *testing.T) {
	_, srv := newTestServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"ragged grid", `{"selfPosition": [1, 1], "opponentPosition": [0, 0], "grid": [[0, 0, 0], [0, 0], [0, 0, 0]]}`},
		{"empty grid", `{"selfPosition": [1, 1], "opponentPosition": [0, 0], "grid": []}`},
		{"missing opponent", `{"selfPosition": [1, 1], "grid": [[0, 0], [0, 0]]}`},
		{"truncated", `{"selfPosition": [1, 1]`},
		{"not json", `not json`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, payload := postMove(t, srv.URL+"/move", tt.body)
			if status != http.StatusOK {
				t.Errorf("status %d, want 200", status)
			}
			if payload["move"] != "up" || payload["mode"] != "fallback" {
				t.Errorf("got %v, want up/fallback", payload)
			}
			if msg, _ := payload["error"].(string); msg == "" {
				t.Error("missing error message")
			}
		})
	}
}

func TestMoveWhileBusyStillAnswers(t *testing.T) {
	resp := newMoveResponse(game.Decision{Direction: game.Right, Mode: game.ModeFallback, Err: game.ErrBusy})
	if resp.Move != "right" || resp.Mode != "fallback" || resp.Error == "" {
		t.Fatalf("busy decision rendered as %+v", resp)
	}

	_, srv := newTestServer(t)
	body := openTurn(200, 200)

	type reply struct {
		status  int
		payload moveResponse
		err     error
	}
	replies := make(chan reply, 8)
	var wg sync.WaitGroup
	for i := 0; i < cap(replies); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := http.Post(srv.URL+"/move?match=shared", "application/json", strings.NewReader(body))
			if err != nil {
				replies <- reply{err: err}
				return
			}
			defer resp.Body.Close()
			var payload moveResponse
			err = json.NewDecoder(resp.Body).Decode(&payload)
			replies <- reply{status: resp.StatusCode, payload: payload, err: err}
		}()
	}
	wg.Wait()
	close(replies)

	for r := range replies {
		if r.err != nil {
			t.Errorf("request failed: %v", r.err)
			continue
		}
		if r.status != http.StatusOK {
			t.Errorf("status %d, payload %+v", r.status, r.payload)
		}
		if _, err := game.ParseDirection(r.payload.Move); err != nil {
			t.Errorf("reply without a move: %+v", r.payload)
		}
	}
}

// openTurn is an empty width x height board with the players in opposite corners.
func openTurn(width, height int) string {
	var b strings.Builder
	fmt.Fprintf(&b, `{"selfPosition": [0, 0], "opponentPosition": [%d, %d], "grid": [`, width-1, height-1)
	row := "[" + strings.TrimSuffix(strings.Repeat("0,", width), ",") + "]"
	for y := 0; y < height; y++ {
		if y > 0 {
			b.WriteByte(',')
		}
		b.WriteString(row)
	}
	b.WriteString("]}")
	return b.String()
}

func TestMoveInvalidPositionsFallBack(t *testing.T) {
	_, srv := newTestServer(t)

	body := `{"selfPosition": [9, 9], "opponentPosition": [0, 0], "grid": [[0, 0], [0, 0]]}`
	status, payload := postMove(t, srv.URL+"/move", body)
	if status != http.StatusOK {
		t.Fatalf("status %d", status)
	}
	if payload["mode"] != "fallback" || payload["move"] != "up" {
		t.Errorf("got %v, want up/fallback", payload)
	}
}

func TestMatchControllersAreShared(t *testing.T) {
	server, srv := newTestServer(t)

	postMove(t, srv.URL+"/move?match=abc", corridorTurn)
	postMove(t, srv.URL+"/move?match=abc", corridorTurn)
	postMove(t, srv.URL+"/move", corridorTurn)

	server.mu.Lock()
	count := len(server.matches)
	server.mu.Unlock()
	if count != 1 {
		t.Fatalf("expected one tracked match, got %d", count)
	}

	req, _ := http.NewRequest(http.MethodDelete, srv.URL+"/move?match=abc", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("forget: status %d", resp.StatusCode)
	}

	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("second forget: status %d, want 404", resp.StatusCode)
	}
}

func TestIdleMatchesAreEvicted(t *testing.T) {
	server := NewServer(nil, nil, WithMatchTTL(time.Minute))
	clock := time.Unix(1_700_000_000, 0)
	server.now = func() time.Time { return clock }

	server.controllerFor("old")
	clock = clock.Add(45 * time.Second)
	fresh := server.controllerFor("fresh")
	clock = clock.Add(30 * time.Second)

	if got := server.controllerFor("fresh"); got != fresh {
		t.Error("an active match lost its controller")
	}
	if _, ok := server.matches["old"]; ok {
		t.Error("idle match was not evicted")
	}
	if len(server.matches) != 1 {
		t.Errorf("expected one tracked match, got %d", len(server.matches))
	}
}

func TestMatchTTLDisabled(t *testing.T) {
	server := NewServer(nil, nil, WithMatchTTL(0))
	clock := time.Unix(1_700_000_000, 0)
	server.now = func() time.Time { return clock }

	server.controllerFor("a")
	clock = clock.Add(24 * time.Hour)
	server.controllerFor("b")

	if len(server.matches) != 2 {
		t.Errorf("expected both matches kept, got %d", len(server.matches))
	}
}

func TestHealthAndMetrics(t *testing.T) {
	_, srv := newTestServer(t)
	postMove(t, srv.URL+"/move", corridorTurn)

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("healthz: status %d", resp.StatusCode)
	}

	resp, err = http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	for _, name := range []string{"lightcycle_engine_decisions_total", "lightcycle_judge_websocket_connections"} {
		if !strings.Contains(string(body), name) {
			t.Errorf("metrics output is missing %s", name)
		}
	}
}

func TestWebsocket(t *testing.T) {
	_, srv := newTestServer(t)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() {
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		conn.Close()
	})

	exchange := func(message string) moveResponse {
		t.Helper()
		if err := conn.WriteMessage(websocket.TextMessage, []byte(message)); err != nil {
			t.Fatalf("write: %v", err)
		}
		var reply moveResponse
		if err := conn.ReadJSON(&reply); err != nil {
			t.Fatalf("read: %v", err)
		}
		return reply
	}

	if reply := exchange(corridorTurn); reply.Move != "right" || reply.Mode != "full" {
		t.Errorf("first turn: %+v", reply)
	}
	if reply := exchange("{broken"); reply.Move != "up" || reply.Mode != "fallback" || reply.Error == "" {
		t.Errorf("malformed turn: %+v", reply)
	}
	if reply := exchange(corridorTurn); reply.Move != "right" {
		t.Errorf("connection did not recover: %+v", reply)
	}
}

func TestConfigSourceIsUsed(t *testing.T) {
	calls := 0
	server := NewServer(func() game.Config {
		calls++
		cfg := game.DefaultConfig()
		cfg.TimeBudgetMS = 50
		return cfg
	}, nil)

	if got := server.newController().Config().TimeBudgetMS; got != 50 {
		t.Errorf("controller budget %d, want 50", got)
	}
	if calls != 1 {
		t.Errorf("config source called %d times", calls)
	}
}
