package bridge

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// Config describes the public relay the agent keeps a tunnel open to.
type Config struct {
	PublicWS   string // ws://host:port/agent
	LocalURL   string // http://localhost:5069
	AgentID    string
	RetryDelay time.Duration
}

type requestMsg struct {
	Type   string      `json:"type"`
	ReqId  string      `json:"reqId"`
	Method string      `json:"method"`
	Path   string      `json:"path"`
	Body   interface{} `json:"body"`
}

type responseMsg struct {
	Type   string      `json:"type"`
	ReqId  string      `json:"reqId"`
	Status int         `json:"status"`
	Body   interface{} `json:"body"`
}

// Start connects to the public relay and replays incoming requests against
// the local API. Reconnects forever on failure.
func Start(cfg Config) {
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = 2 * time.Second
	}

	for {
		run(cfg)
		log.Println("BRIDGE: Agent disconnected, reconnecting...")
		time.Sleep(cfg.RetryDelay)
	}
}

func run(cfg Config) {
	ws, _, err := websocket.DefaultDialer.Dial(cfg.PublicWS, nil)
	if err != nil {
		log.Println("BRIDGE: WebSocket error:", err)
		return
	}
	defer ws.Close()

	ws.WriteJSON(map[string]interface{}{
		"type": "register",
		"id":   cfg.AgentID,
	})

	for {
		_, msg, err := ws.ReadMessage()
		if err != nil {
			return
		}

		var req requestMsg
		json.Unmarshal(msg, &req)

		if req.Type != "request" {
			continue
		}

		respBody, status := doLocalRequest(cfg.LocalURL, req)

		ws.WriteJSON(responseMsg{
			Type:   "response",
			ReqId:  req.ReqId,
			Status: status,
			Body:   respBody,
		})
	}
}

func doLocalRequest(base string, req requestMsg) (interface{}, int) {
	bodyBytes, _ := json.Marshal(req.Body)

	httpReq, _ := http.NewRequest(req.Method, base+req.Path, bytes.NewBuffer(bodyBytes))
	httpReq.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Do(httpReq)
	if err != nil {
		return "local request failed", 500
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)

	var parsed interface{}
	json.Unmarshal(raw, &parsed)

	return parsed, resp.StatusCode
}
