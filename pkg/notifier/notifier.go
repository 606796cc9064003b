// Package notifier implements the notification router stage (§4.11): it
// consumes MatchBatches, applies per-recipient dedupe and cooldown, renders
// titles/bodies, and fans out one payload per channel.
package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/web3ekko/ekko-streams/internal/alerttypes"
	"github.com/web3ekko/ekko-streams/internal/types"
	"github.com/web3ekko/ekko-streams/pkg/bus"
	"github.com/web3ekko/ekko-streams/pkg/columnar"
	"github.com/web3ekko/ekko-streams/pkg/kv"
)

// NotificationContentSubject is the dedicated columnar-write subject a
// notification-content row is published to (§4.11 step 3e.i).
const NotificationContentSubject = "ducklake.notification_content.ekko.default.write"

// ImmediateSendSubject builds notifications.send.immediate.{channel}.
func ImmediateSendSubject(ch alerttypes.Channel) string {
	return fmt.Sprintf("notifications.send.immediate.%s", ch)
}

// Router is the notification router stage.
type Router struct {
	log zerolog.Logger
	bus bus.Bus
	kv  kv.Store
	now func() time.Time
}

// New builds a Router.
func New(b bus.Bus, store kv.Store) *Router {
	return &Router{
		log: log.With().Str("component", "notifier").Logger(),
		bus: b,
		kv:  store,
		now: time.Now,
	}
}

// TriggeredWildcardSubject is the NATS wildcard subscribed in production
// (§6.1 alerts.triggered.{instance}). The in-memory bus used by tests
// matches subjects literally, so tests use Subscribe with a concrete
// instance ID instead.
const TriggeredWildcardSubject = "alerts.triggered.*"

// Subscribe attaches the router to alerts.triggered.{instance}.
func (r *Router) Subscribe(ctx context.Context, instanceID string) (bus.Subscription, error) {
	return r.subscribe(ctx, fmt.Sprintf("alerts.triggered.%s", instanceID))
}

// SubscribeAll attaches the router to the wildcard production subject,
// sharing a queue group across horizontally-scaled router instances.
func (r *Router) SubscribeAll(ctx context.Context) (bus.Subscription, error) {
	return r.subscribe(ctx, TriggeredWildcardSubject)
}

func (r *Router) subscribe(ctx context.Context, subject string) (bus.Subscription, error) {
	return r.bus.Subscribe(ctx, subject, "notifier", func(ctx context.Context, msg bus.Message) {
		var batch alerttypes.MatchBatch
		if err := json.Unmarshal(msg.Body, &batch); err != nil {
			r.log.Error().Err(err).Msg("decoding match batch")
			return
		}
		if err := r.HandleMatchBatch(ctx, batch); err != nil {
			r.log.Error().Err(err).Str("instance_id", batch.InstanceID).Msg("routing match batch failed")
		}
	})
}

// HandleMatchBatch runs the full §4.11 pipeline for one batch.
func (r *Router) HandleMatchBatch(ctx context.Context, batch alerttypes.MatchBatch) error {
	if !batch.Succeeded() || len(batch.Matches) == 0 {
		return nil
	}

	var inst alerttypes.AlertInstance
	if err := kv.GetJSON(ctx, r.kv, alerttypes.InstanceKey(batch.InstanceID), &inst); err != nil {
		return errors.Wrap(err, "loading instance snapshot")
	}
	if !inst.Enabled {
		return nil
	}

	var tmpl alerttypes.AlertTemplate
	if err := kv.GetJSON(ctx, r.kv, alerttypes.TemplateKey(inst.TemplateID, inst.TemplateVersion), &tmpl); err != nil {
		return errors.Wrap(err, "loading alert template")
	}

	recipients, err := r.loadRecipients(ctx, inst)
	if err != nil {
		return err
	}

	for _, match := range batch.Matches {
		renderCtx := buildRenderContext(inst, batch, match)
		for _, userID := range recipients {
			if err := r.notifyRecipient(ctx, inst, tmpl, userID, renderCtx); err != nil {
				r.log.Error().Err(err).Str("user_id", userID).Str("instance_id", inst.InstanceID).
					Msg("notifying recipient failed")
			}
		}
	}
	return nil
}

func (r *Router) loadRecipients(ctx context.Context, inst alerttypes.AlertInstance) ([]string, error) {
	var recipients []string
	err := kv.GetJSON(ctx, r.kv, alerttypes.InstanceSubscribersKey(inst.InstanceID), &recipients)
	if err != nil && !errors.Is(err, kv.ErrNotFound) {
		return nil, errors.Wrap(err, "loading instance subscribers")
	}
	if len(recipients) == 0 {
		if inst.UserID == "" {
			return nil, nil
		}
		return []string{inst.UserID}, nil
	}
	return recipients, nil
}

// notifyRecipient runs §4.11 step 3 for one (match, recipient) pair.
func (r *Router) notifyRecipient(
	ctx context.Context, inst alerttypes.AlertInstance, tmpl alerttypes.AlertTemplate, userID string, renderCtx map[string]interface{},
) error {
	policy := tmpl.Action

	dedupeKey := render(policy.DedupeKeyTmpl, renderCtx)
	if dedupeKey != "" {
		count, err := r.kv.Incr(ctx, alerttypes.DedupeKey(userID, dedupeKey))
		if err != nil {
			return errors.Wrap(err, "incrementing dedupe counter")
		}
		if count != 1 {
			return nil
		}
	}

	if policy.CooldownSecs > 0 {
		cooldownKey := render(policy.CooldownKeyTmpl, renderCtx)
		skip, err := r.checkCooldown(ctx, userID, cooldownKey, policy.CooldownSecs)
		if err != nil {
			return err
		}
		if skip {
			return nil
		}
	}

	title, body := r.renderTitleBody(tmpl, renderCtx)

	notificationID := uuid.NewString()
	sentAt := r.now().Unix()

	targetKey, _ := renderCtx["target"].(map[string]interface{})
	var key alerttypes.TargetKey
	if targetKey != nil {
		if s, ok := targetKey["key"].(string); ok {
			key = alerttypes.TargetKey(s)
		}
	}

	content := types.EnrichedRecord{
		Table: "notification_content",
		Partition: types.PartitionKey{
			ChainIDString: "ekko_default",
			BlockDate:     types.BlockDate(uint64(sentAt)),
			Shard:         types.Shard(notificationID, columnar.ShardCount("notification_content")),
		},
		Fields: map[string]interface{}{
			"notification_id": notificationID,
			"instance_id":     inst.InstanceID,
			"user_id":         userID,
			"title":           title,
			"body":            body,
			"target_key":      string(key),
			"sent_at":         sentAt,
		},
	}
	if err := r.publishJSON(ctx, NotificationContentSubject, content); err != nil {
		return errors.Wrap(err, "publishing notification content")
	}

	for _, ch := range resolveChannels(policy) {
		if ch == alerttypes.ChannelWebsocket {
			priority := inst.Priority == "high"
			suppressed, err := inQuietHours(ctx, r.kv, userID, r.now(), priority)
			if err != nil {
				r.log.Error().Err(err).Str("user_id", userID).Msg("checking quiet hours")
			} else if suppressed {
				continue
			}
		}

		req := alerttypes.NotificationRequest{
			NotificationID: notificationID,
			UserID:         userID,
			InstanceID:     inst.InstanceID,
			Channel:        ch,
			Title:          title,
			Body:           body,
			TargetKey:      key,
			Context:        renderCtx,
			SentAt:         sentAt,
		}
		if err := r.publishJSON(ctx, ImmediateSendSubject(ch), req); err != nil {
			return errors.Wrapf(err, "publishing %s notification", ch)
		}
	}
	return nil
}

func (r *Router) checkCooldown(ctx context.Context, userID, cooldownKey string, cooldownSecs int64) (bool, error) {
	key := alerttypes.CooldownKey(userID, cooldownKey)
	raw, err := r.kv.Get(ctx, key)
	now := r.now().Unix()
	if err == nil {
		var last int64
		if jsonErr := json.Unmarshal(raw, &last); jsonErr == nil && now-last < cooldownSecs {
			return true, nil
		}
	} else if !errors.Is(err, kv.ErrNotFound) {
		return false, errors.Wrap(err, "reading cooldown marker")
	}
	body, err := kv.MarshalJSON(now)
	if err != nil {
		return false, err
	}
	if err := r.kv.Set(ctx, key, body); err != nil {
		return false, errors.Wrap(err, "writing cooldown marker")
	}
	return false, nil
}

// renderTitleBody applies the title/body -> alert_name -> "Alert triggered"
// fallback chain and the address-shortening post-process (§4.11 step 3c).
func (r *Router) renderTitleBody(tmpl alerttypes.AlertTemplate, renderCtx map[string]interface{}) (string, string) {
	title := render(tmpl.Notification.Title, renderCtx)
	body := render(tmpl.Notification.Body, renderCtx)
	if title == "" {
		title = tmpl.Name
	}
	if title == "" {
		title = "Alert triggered"
	}
	if body == "" {
		body = title
	}
	return shortenAddresses(title), shortenAddresses(body)
}

func (r *Router) publishJSON(ctx context.Context, subject string, v interface{}) error {
	body, err := kv.MarshalJSON(v)
	if err != nil {
		return err
	}
	return r.bus.Publish(ctx, subject, body)
}

func resolveChannels(policy alerttypes.ActionPolicy) []alerttypes.Channel {
	if len(policy.NotificationPolicy.Channels) == 0 {
		return []alerttypes.Channel{alerttypes.ChannelWebhook}
	}
	out := make([]alerttypes.Channel, 0, len(policy.NotificationPolicy.Channels))
	for _, c := range policy.NotificationPolicy.Channels {
		out = append(out, alerttypes.Channel(c))
	}
	return out
}
