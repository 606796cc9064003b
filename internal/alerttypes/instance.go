package alerttypes

import "fmt"

// TargetMode describes how an AlertInstance's targets are expressed.
type TargetMode string

const (
	// TargetModeLiteral carries an explicit target key list.
	TargetModeLiteral TargetMode = "literal"
	// TargetModeGroup resolves targets through a KV-backed group reference.
	TargetModeGroup TargetMode = "group"
)

// TargetSelector selects the targets an AlertInstance evaluates over.
type TargetSelector struct {
	Mode  TargetMode  `json:"mode"`
	Keys  []TargetKey `json:"keys,omitempty"`
	Group string      `json:"group,omitempty"`
}

// TriggerType enumerates the three scheduler intake surfaces (§3.1).
type TriggerType string

const (
	TriggerPeriodic     TriggerType = "periodic"
	TriggerOneTime      TriggerType = "one_time"
	TriggerEventDriven  TriggerType = "event_driven"
)

// InstanceTriggerConfig configures an instance's scheduling behaviour.
type InstanceTriggerConfig struct {
	Type             TriggerType `json:"type"`
	CadenceSecs      int64       `json:"cadence_secs,omitempty"`
	NetworkAllowList []string    `json:"network_allow_list,omitempty"`
	DataLagSecs      int64       `json:"data_lag_secs,omitempty"`
}

// AlertInstance is a user's binding of a template to a set of targets plus
// concrete variable values (§3.1).
type AlertInstance struct {
	InstanceID      string                 `json:"instance_id"`
	UserID          string                 `json:"user_id"`
	Enabled         bool                   `json:"enabled"`
	TemplateID      string                 `json:"template_id"`
	TemplateVersion int64                  `json:"template_version"`
	Priority        string                 `json:"priority"` // "high", "normal", "low"
	Targets         TargetSelector         `json:"targets"`
	Trigger         InstanceTriggerConfig  `json:"trigger"`
	Variables       map[string]interface{} `json:"variables"`
}

// InstanceKey builds the alerts:instance:{instance} KV key.
func InstanceKey(instanceID string) string {
	return fmt.Sprintf("alerts:instance:%s", instanceID)
}

// InstanceSubscribersKey builds the alerts:instance:subscribers:{instance} KV key.
func InstanceSubscribersKey(instanceID string) string {
	return fmt.Sprintf("alerts:instance:subscribers:%s", instanceID)
}

// AllowsNetwork reports whether the instance's network allow-list permits
// the given "{network}:{subnet}" partition string. An empty allow-list
// permits everything.
func (c InstanceTriggerConfig) AllowsNetwork(partition string) bool {
	if len(c.NetworkAllowList) == 0 {
		return true
	}
	for _, n := range c.NetworkAllowList {
		if n == partition {
			return true
		}
	}
	return false
}
