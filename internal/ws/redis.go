package ws

import (
	"context"
	"encoding/json"
	"log"

	"github.com/redis/go-redis/v9"

	"github.com/billiardpi/backend/internal/config"
)

var rdbClient *redis.Client
var wsConfig *config.Config

func SetRedisClient(r *redis.Client, cfg *config.Config) {
	rdbClient = r
	wsConfig = cfg
}

// StartRunEventSubscriber subscribes to the run_events channel and
// relays incoming events to the watchers of the named run. With a
// single server instance this mirrors the in-process broadcast; with
// several instances it is what keeps watchers on other instances
// informed.
func StartRunEventSubscriber(ctx context.Context) {
	if rdbClient == nil {
		log.Println("[WS] Redis client not set; run event subscriber not started")
		return
	}

	pubsub := rdbClient.Subscribe(ctx, "run_events")
	ch := pubsub.Channel()
	go func() {
		log.Println("[WS] run_events subscriber started")
		for msg := range ch {
			var payload map[string]interface{}
			if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
				log.Printf("[WS] invalid event payload: %v", err)
				continue
			}

			typeStr, _ := payload["type"].(string)
			token, _ := payload["token"].(string)
			if token == "" {
				log.Printf("[WS] event without token: type=%s", typeStr)
				continue
			}

			log.Printf("[WS] event received: type=%s run=%s", typeStr, token)
			RunHub.BroadcastToRun(token, payload)
		}
	}()
}
