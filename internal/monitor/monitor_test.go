package monitor

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/jeongseonghan/baseband/internal/sim"
)

type wireMsg struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func TestMonitor_ResultsSnapshot(t *testing.T) {
	m := New(nil)
	m.Publish(sim.Point{EbNoDB: 0, BER: 0.1, Bits: 1000})
	m.Publish(sim.Point{EbNoDB: 1, BER: 0.05, Bits: 1000})

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	read := func() (bool, []sim.Point) {
		resp, err := http.Get(srv.URL + "/api/results")
		if err != nil {
			t.Fatalf("GET /api/results: %v", err)
		}
		defer resp.Body.Close()
		var body struct {
			Done   bool        `json:"done"`
			Points []sim.Point `json:"points"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		return body.Done, body.Points
	}

	done, points := read()
	if done {
		t.Error("done before sweep finished")
	}
	if len(points) != 2 || points[0].EbNoDB != 0 || points[1].BER != 0.05 {
		t.Errorf("points = %+v", points)
	}

	m.Done()
	if done, _ := read(); !done {
		t.Error("done flag not reported")
	}
}

func TestMonitor_Status(t *testing.T) {
	m := New(nil)
	m.Publish(sim.Point{EbNoDB: 3})

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/status")
	if err != nil {
		t.Fatalf("GET /api/status: %v", err)
	}
	defer resp.Body.Close()

	var body struct {
		Status string `json:"status"`
		Points int    `json:"points"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != "running" || body.Points != 1 {
		t.Errorf("status = %+v", body)
	}
}

func TestMonitor_WebSocketStream(t *testing.T) {
	m := New(nil)
	m.Publish(sim.Point{EbNoDB: 0, BER: 0.5})

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	if resp != nil {
		resp.Body.Close()
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	m.Publish(sim.Point{EbNoDB: 2, BER: 0.1})

	// One replayed point and one live point, in publish order.
	for i, wantEbNo := range []float64{0, 2} {
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read %d: %v", i, err)
		}
		var msg wireMsg
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("unmarshal %d: %v", i, err)
		}
		if msg.Type != "point" {
			t.Fatalf("message %d type = %q, want point", i, msg.Type)
		}
		var p sim.Point
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			t.Fatalf("payload %d: %v", i, err)
		}
		if p.EbNoDB != wantEbNo {
			t.Errorf("point %d EbNoDB = %v, want %v", i, p.EbNoDB, wantEbNo)
		}
	}

	m.Done()
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read done: %v", err)
	}
	var msg wireMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("unmarshal done: %v", err)
	}
	if msg.Type != "done" {
		t.Errorf("final message type = %q, want done", msg.Type)
	}
}
