package notifier

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/web3ekko/ekko-streams/pkg/kv"
)

// quietHoursPolicy is the optional per-user policy stored at
// alerts:quiet_hours:{user}. StartHour/EndHour are in UTC, wrapping past
// midnight when StartHour > EndHour (e.g. 22 -> 7). A zero-value policy (or
// a missing KV entry) is treated as "no quiet hours".
type quietHoursPolicy struct {
	StartHour       int  `json:"start_hour"`
	EndHour         int  `json:"end_hour"`
	OverridePriority bool `json:"override_priority"`
}

// quietHoursKey builds alerts:quiet_hours:{user}.
func quietHoursKey(userID string) string {
	return fmt.Sprintf("alerts:quiet_hours:%s", userID)
}

// inQuietHours reports whether now falls within userID's configured quiet
// window. It is consulted only on the websocket fan-out path; webhook and
// telegram deliveries are never suppressed by it.
func inQuietHours(ctx context.Context, store kv.Store, userID string, now time.Time, highPriority bool) (bool, error) {
	var policy quietHoursPolicy
	err := kv.GetJSON(ctx, store, quietHoursKey(userID), &policy)
	if errors.Is(err, kv.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if policy.StartHour == 0 && policy.EndHour == 0 {
		return false, nil
	}
	if highPriority && policy.OverridePriority {
		return false, nil
	}

	hour := now.UTC().Hour()
	if policy.StartHour <= policy.EndHour {
		return hour >= policy.StartHour && hour < policy.EndHour, nil
	}
	return hour >= policy.StartHour || hour < policy.EndHour, nil
}
