package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"time"
)

// DefaultCooldownMinutes is the quiet period after a rule fires.
const DefaultCooldownMinutes = 5

// RuleOperators lists, per condition, the operators the notification engine
// evaluates. Conditions are in display order.
var RuleOperators = []struct {
	Condition string
	Operators []string
}{
	{"status_code", []string{"equals", "not_equals", "greater_than", "less_than", "in_list"}},
	{"method", []string{"equals", "not_equals", "contains", "in_list"}},
	{"ip_address", []string{"equals", "not_equals", "contains", "in_list"}},
	{"header_contains", []string{"contains", "key_exists"}},
	{"body_contains", []string{"contains", "regex"}},
	{"query_param", []string{"exists", "equals"}},
	{"response_time", []string{"equals", "greater_than", "less_than"}},
	{"rate_limit", []string{"greater_than"}},
}

// NotificationRule emails recipients when a captured request on SessionID
// matches Condition/Operator/Value.
type NotificationRule struct {
	ID              string    `json:"id,omitempty"`
	SessionID       string    `json:"session_id"`
	Name            string    `json:"name"`
	Condition       string    `json:"condition"`
	Operator        string    `json:"operator"`
	Value           string    `json:"value"`
	EmailRecipients []string  `json:"email_recipients"`
	CooldownMinutes int       `json:"cooldown_minutes"`
	IsActive        bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
}

var errNoRecipients = errors.New("at least one email recipient is required")

func operatorsFor(condition string) ([]string, bool) {
	for _, c := range RuleOperators {
		if c.Condition == condition {
			return c.Operators, true
		}
	}
	return nil, false
}

// Normalize trims fields and drops blank recipients.
func (r *NotificationRule) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Condition = strings.ToLower(strings.TrimSpace(r.Condition))
	r.Operator = strings.ToLower(strings.TrimSpace(r.Operator))
	recipients := r.EmailRecipients[:0:0]
	for _, e := range r.EmailRecipients {
		if e = strings.TrimSpace(e); e != "" {
			recipients = append(recipients, e)
		}
	}
	r.EmailRecipients = recipients
}

// Validate checks a rule before it is sent to the server.
func (r *NotificationRule) Validate() error {
	if r.SessionID == "" {
		return errors.New("session id is required")
	}
	if r.Name == "" {
		return errors.New("rule name is required")
	}
	ops, ok := operatorsFor(r.Condition)
	if !ok {
		return fmt.Errorf("unknown condition %q", r.Condition)
	}
	known := false
	for _, op := range ops {
		known = known || op == r.Operator
	}
	if !known {
		return fmt.Errorf("operator %q does not apply to %s (valid: %s)", r.Operator, r.Condition, strings.Join(ops, ", "))
	}
	if r.Value == "" {
		return errors.New("rule value is required")
	}
	if r.Operator == "regex" {
		if _, err := regexp.Compile(r.Value); err != nil {
			return fmt.Errorf("invalid regex %q: %w", r.Value, err)
		}
	}
	if r.CooldownMinutes < 0 {
		return errors.New("cooldown must not be negative")
	}
	if len(r.EmailRecipients) == 0 {
		return errNoRecipients
	}
	for _, e := range r.EmailRecipients {
		if _, err := mail.ParseAddress(e); err != nil {
			return fmt.Errorf("invalid email recipient %q", e)
		}
	}
	return nil
}

// UnmarshalJSON tolerates naive created_at timestamps and numeric values.
func (r *NotificationRule) UnmarshalJSON(data []byte) error {
	type ruleAlias NotificationRule
	var w struct {
		ruleAlias
		Value     json.RawMessage `json:"value"`
		CreatedAt string          `json:"created_at"`
	}
	w.IsActive = true
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	created, err := ParseTimestamp(w.CreatedAt)
	if err != nil {
		return fmt.Errorf("notification rule %q: %w", w.ID, err)
	}
	*r = NotificationRule(w.ruleAlias)
	r.CreatedAt = created

	var s string
	switch {
	case len(w.Value) == 0 || string(w.Value) == "null":
	case json.Unmarshal(w.Value, &s) == nil:
		r.Value = s
	default:
		r.Value = string(w.Value)
	}
	return nil
}
