package services

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/yungbote/storyloom-backend/internal/logger"
	"github.com/yungbote/storyloom-backend/internal/sse"
)

// EventEmitter fans generation progress out to connected clients. The hub
// emitter serves single-process deployments; the redis emitter lets a
// separate SSE tier subscribe when the API runs behind more than one node.
type EventEmitter interface {
	Emit(userID uuid.UUID, event sse.SSEEvent, data map[string]interface{})
}

type hubEmitter struct {
	log *logger.Logger
	hub *sse.SSEHub
}

func NewHubEmitter(log *logger.Logger, hub *sse.SSEHub) EventEmitter {
	return &hubEmitter{
		log: log.With("service", "EventEmitter", "mode", "hub"),
		hub: hub,
	}
}

func (e *hubEmitter) Emit(userID uuid.UUID, event sse.SSEEvent, data map[string]interface{}) {
	e.hub.Broadcast(sse.SSEMessage{
		Channel: userID.String(),
		Event:   event,
		Data:    data,
	})
}

type redisEmitter struct {
	log     *logger.Logger
	client  *redis.Client
	channel string
}

func NewRedisEmitter(log *logger.Logger, client *redis.Client, channel string) EventEmitter {
	if channel == "" {
		channel = "storyloom:events"
	}
	return &redisEmitter{
		log:     log.With("service", "EventEmitter", "mode", "redis"),
		client:  client,
		channel: channel,
	}
}

func (e *redisEmitter) Emit(userID uuid.UUID, event sse.SSEEvent, data map[string]interface{}) {
	payload, err := json.Marshal(sse.SSEMessage{
		Channel: userID.String(),
		Event:   event,
		Data:    data,
	})
	if err != nil {
		e.log.Warn("Failed to marshal event", "event", string(event), "error", err.Error())
		return
	}
	if err := e.client.Publish(context.Background(), e.channel, payload).Err(); err != nil {
		e.log.Warn("Failed to publish event", "event", string(event), "error", err.Error())
	}
}

// multiEmitter forwards each event to every configured sink.
type multiEmitter struct {
	emitters []EventEmitter
}

func NewMultiEmitter(emitters ...EventEmitter) EventEmitter {
	return &multiEmitter{emitters: emitters}
}

func (e *multiEmitter) Emit(userID uuid.UUID, event sse.SSEEvent, data map[string]interface{}) {
	for _, em := range e.emitters {
		em.Emit(userID, event, data)
	}
}
