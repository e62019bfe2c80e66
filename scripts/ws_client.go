// Package main runs a demo WebSocket client for match events.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/gorilla/websocket"
)

type wsMessage struct {
	Type    string          `json:"type"`
	ID      string          `json:"id,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

const demoProblem = `{
  "drivers": [{"id": 1, "locationId": 1}, {"id": 2, "locationId": 2}],
  "riders": [{"id": 10, "pickupLocationId": 3, "dropLocationId": 4}, {"id": 11, "pickupLocationId": 4, "dropLocationId": 1}],
  "costs": [
    {"fromLocation": 1, "toLocation": 3, "cost": 4},
    {"fromLocation": 1, "toLocation": 4, "cost": 9},
    {"fromLocation": 2, "toLocation": 3, "cost": 6},
    {"fromLocation": 2, "toLocation": 4, "cost": 2},
    {"fromLocation": 3, "toLocation": 4, "cost": 5},
    {"fromLocation": 4, "toLocation": 1, "cost": 7}
  ]
}`

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	base := fmt.Sprintf("http://localhost:%s", port)

	// Connect WS
	u := url.URL{Scheme: "ws", Host: "localhost:" + port, Path: "/v1/matching/ws"}
	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatal("dial:", err)
	}
	defer func() { _ = c.Close() }()

	if err := c.WriteJSON(wsMessage{Type: "connection_init"}); err != nil {
		log.Fatal(err)
	}
	pl, _ := json.Marshal(map[string]any{"events": []string{"match.completed", "match.failed"}})
	if err := c.WriteJSON(wsMessage{Type: "subscribe", ID: "1", Payload: pl}); err != nil {
		log.Fatal(err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			var m wsMessage
			if err := c.ReadJSON(&m); err != nil {
				log.Printf("read: %v", err)
				return
			}
			log.Printf("WS <- %s: %s", m.Type, string(m.Payload))
		}
	}()

	// Trigger a match event via an inline solve
	time.Sleep(500 * time.Millisecond)
	req, _ := http.NewRequest(http.MethodPost, base+"/v1/matching/solve", bytes.NewReader([]byte(demoProblem)))
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Fatal(err)
	}
	var out struct {
		RunID     string `json:"runId"`
		TotalCost int64  `json:"totalCost"`
		Status    string `json:"status"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	_ = resp.Body.Close()
	log.Printf("Run %s: %s, total cost %d", out.RunID, out.Status, out.TotalCost)

	// Wait briefly to receive the event
	select {
	case <-time.After(2 * time.Second):
	case <-done:
	}
}
