package ws

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/billiardpi/backend/internal/run"
)

// SetSpeedData carries a speed-slider update from the client.
type SetSpeedData struct {
	Speed float64 `json:"speed"`
}

// RunHub is the single hub for all run watchers.
var RunHub *Hub

func init() {
	RunHub = NewHub()
	go runHubLoop(RunHub)
}

// AttachManager wires the manager's frame hook to the hub so every
// driver tick is streamed to watchers.
func AttachManager(rm *run.RunManager) {
	rm.SetFrameHook(func(token string, f run.Frame) {
		RunHub.BroadcastToRun(token, map[string]interface{}{
			"type":  "frame",
			"frame": f,
		})
		if f.Status == run.StatusCompleted {
			RunHub.BroadcastToRun(token, map[string]interface{}{
				"type":             "run_complete",
				"total_collisions": f.Engine.TotalCollisions,
				"pi_digits":        f.Engine.PiDigits,
			})
		}
	})
}

// HandleWebSocket upgrades a connection for streaming one run.
func HandleWebSocket(c *gin.Context) {
	token := c.Param("token")
	if token == "" {
		token = c.Query("token")
	}
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "token required"})
		return
	}

	if _, err := run.Manager.GetRun(token); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[WS] Upgrade error: %v", err)
		return
	}

	idBytes := make([]byte, 8)
	rand.Read(idBytes)

	client := &Client{
		conn:     conn,
		clientID: hex.EncodeToString(idBytes),
		runToken: token,
		send:     make(chan []byte, 256),
	}

	RunHub.register <- client

	go client.writePump()
	go client.readPump()
}

// runHubLoop registers and unregisters watchers.
func runHubLoop(h *Hub) {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.clientID] = client
			if _, exists := h.runRooms[client.runToken]; !exists {
				h.runRooms[client.runToken] = make(map[string]*Client)
			}
			h.runRooms[client.runToken][client.clientID] = client
			h.mu.Unlock()

			log.Printf("[WS] Client %s watching run %s", client.clientID, client.runToken)

			// Greet with the current state so the client can render
			// before the first frame arrives.
			if r, err := run.Manager.GetRun(client.runToken); err == nil {
				data, _ := json.Marshal(map[string]interface{}{
					"type":  "run_state",
					"frame": r.Snapshot(),
				})
				select {
				case client.send <- data:
				default:
				}
			}

		case client := <-h.unregister:
			h.mu.Lock()
			if cur, ok := h.clients[client.clientID]; ok && cur == client {
				delete(h.clients, client.clientID)
				if room, exists := h.runRooms[client.runToken]; exists {
					delete(room, client.clientID)
					if len(room) == 0 {
						delete(h.runRooms, client.runToken)
					}
				}
				log.Printf("[WS] Client %s left run %s", client.clientID, client.runToken)

				select {
				case <-client.send:
				default:
					close(client.send)
				}
			}
			h.mu.Unlock()
		}
	}
}

// readPump reads control messages for a run.
func (c *Client) readPump() {
	defer func() {
		RunHub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(65536)
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error (unexpected) for client %s: %v", c.clientID, err)
			} else {
				log.Printf("WebSocket read error for client %s: %v", c.clientID, err)
			}
			break
		}

		var msg WSMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}

		c.handleMessage(msg)
	}
}

// handleMessage processes incoming run control messages.
func (c *Client) handleMessage(msg WSMessage) {
	r, err := run.Manager.GetRun(c.runToken)
	if err != nil {
		c.sendError("Run not found")
		return
	}

	switch msg.Type {
	case "start":
		if err := run.Manager.StartRun(c.runToken); err != nil {
			c.sendError(err.Error())
			return
		}
		RunHub.BroadcastToRun(c.runToken, map[string]interface{}{
			"type": "run_started",
		})

	case "pause":
		if err := r.Pause(); err != nil {
			c.sendError(err.Error())
			return
		}
		RunHub.BroadcastToRun(c.runToken, map[string]interface{}{
			"type": "run_paused",
		})

	case "resume":
		if err := r.Resume(); err != nil {
			c.sendError(err.Error())
			return
		}
		RunHub.BroadcastToRun(c.runToken, map[string]interface{}{
			"type": "run_resumed",
		})

	case "reset":
		if err := run.Manager.ResetRun(c.runToken); err != nil {
			c.sendError(err.Error())
			return
		}
		RunHub.BroadcastToRun(c.runToken, map[string]interface{}{
			"type":  "run_reset",
			"frame": r.Snapshot(),
		})

	case "set_speed":
		var data SetSpeedData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("Invalid speed data")
			return
		}
		if err := r.SetSpeed(data.Speed); err != nil {
			c.sendError(err.Error())
			return
		}
		RunHub.BroadcastToRun(c.runToken, map[string]interface{}{
			"type":  "speed_changed",
			"speed": data.Speed,
		})

	case "get_state":
		data, _ := json.Marshal(map[string]interface{}{
			"type":  "run_state",
			"frame": r.Snapshot(),
		})
		select {
		case c.send <- data:
		default:
		}

	default:
		c.sendError("Unknown message type")
	}
}
