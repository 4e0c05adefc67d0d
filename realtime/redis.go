package realtime

import (
	"context"
	"encoding/json"

	"github.com/peochain/peochain-api/utils"
	"github.com/redis/go-redis/v9"
)

// DefaultChannel is the Redis pub/sub channel carrying analytics events.
const DefaultChannel = "analytics:events"

// RedisBroadcaster fans events out across API instances: Publish writes to
// a Redis channel, and a subscription goroutine forwards everything received
// on that channel (from this instance and every other) into the local hub.
type RedisBroadcaster struct {
	client  *redis.Client
	channel string
	hub     *Hub
	cancel  context.CancelFunc
}

// NewRedisBroadcaster starts the subscription loop on an existing client.
// The client is shared with the rate limiter and owned by the caller.
func NewRedisBroadcaster(client *redis.Client, channel string, hub *Hub) *RedisBroadcaster {
	ctx, cancel := context.WithCancel(context.Background())
	rb := &RedisBroadcaster{
		client:  client,
		channel: channel,
		hub:     hub,
		cancel:  cancel,
	}
	go rb.subscribe(ctx)
	return rb
}

// Publish sends the event to the Redis channel. Local delivery happens via
// the subscription loop, so all instances take the same path.
func (rb *RedisBroadcaster) Publish(event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		utils.LogError("Failed to marshal realtime event: %v", err)
		return
	}
	if err := rb.client.Publish(context.Background(), rb.channel, payload).Err(); err != nil {
		utils.LogError("Failed to publish realtime event to redis: %v", err)
	}
}

func (rb *RedisBroadcaster) subscribe(ctx context.Context) {
	pubsub := rb.client.Subscribe(ctx, rb.channel)
	defer pubsub.Close()

	for {
		select {
		case msg, ok := <-pubsub.Channel():
			if !ok {
				return
			}
			var event Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				utils.LogError("Failed to decode realtime event from redis: %v", err)
				continue
			}
			rb.hub.Publish(event)
		case <-ctx.Done():
			return
		}
	}
}

// Close stops the subscription loop. The shared Redis client is left open
// for its other users.
func (rb *RedisBroadcaster) Close() {
	rb.cancel()
}
