package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"chatbot-backend/internal/models"
)

// UserChannel is the Redis pub/sub channel carrying a user's live updates.
func UserChannel(userID uuid.UUID) string {
	return fmt.Sprintf("user_updates:%s", userID.String())
}

// Notifier publishes live updates to the websocket hub through Redis.
type Notifier struct {
	redis *redis.Client
}

func NewNotifier(redisClient *redis.Client) *Notifier {
	return &Notifier{redis: redisClient}
}

func (n *Notifier) Publish(ctx context.Context, userID uuid.UUID, msg models.WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("notifier: marshal %s: %v", msg.Type, err)
		return
	}
	if err := n.redis.Publish(ctx, UserChannel(userID), data).Err(); err != nil {
		log.Printf("notifier: publish %s for user %s: %v", msg.Type, userID, err)
	}
}

func (n *Notifier) TurnCreated(ctx context.Context, userID uuid.UUID, turn *models.Turn, hasCode bool) {
	if userID == uuid.Nil {
		return
	}
	n.Publish(ctx, userID, models.WSMessage{
		Type:    models.WSTurnCreated,
		Payload: models.TurnCreatedEvent{ChatID: turn.ChatID, TurnID: turn.ID, HasCode: hasCode},
	})
}

func (n *Notifier) DocumentProcessed(ctx context.Context, userID uuid.UUID, documentID uuid.UUID, status string, errMsg string) {
	n.Publish(ctx, userID, models.WSMessage{
		Type:    models.WSDocumentProcessed,
		Payload: models.DocumentProcessedEvent{DocumentID: documentID, Status: status, Error: errMsg},
	})
}
