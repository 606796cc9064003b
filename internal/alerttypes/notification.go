package alerttypes

import "fmt"

// Channel enumerates the delivery channels a NotificationRequest targets.
type Channel string

const (
	ChannelWebhook   Channel = "webhook"
	ChannelWebsocket Channel = "websocket"
	ChannelTelegram  Channel = "telegram"
)

// NotificationRequest is the router's output per recipient per channel
// (§3.1).
type NotificationRequest struct {
	NotificationID string                 `json:"notification_id"`
	UserID         string                 `json:"user_id"`
	InstanceID     string                 `json:"instance_id"`
	Channel        Channel                `json:"channel"`
	Title          string                 `json:"title"`
	Body           string                 `json:"body"`
	TargetKey      TargetKey              `json:"target_key"`
	Context        map[string]interface{} `json:"context,omitempty"`
	SentAt         int64                  `json:"sent_at"`
}

// DedupeKey builds the alerts:dedupe:{user}:{dedupe_key} KV key.
func DedupeKey(userID, renderedKey string) string {
	return fmt.Sprintf("alerts:dedupe:%s:%s", userID, renderedKey)
}

// CooldownKey builds the alerts:cooldown:{user}:{cooldown_key} KV key.
func CooldownKey(userID, renderedKey string) string {
	return fmt.Sprintf("alerts:cooldown:%s:%s", userID, renderedKey)
}
