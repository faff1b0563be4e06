package remote

import (
	"context"
	"net/http"

	"github.com/vedsharma/pingforge/internal/model"
)

type ruleBody struct {
	SessionID       string   `json:"session_id"`
	Name            string   `json:"name"`
	Condition       string   `json:"condition"`
	Operator        string   `json:"operator"`
	Value           string   `json:"value"`
	EmailRecipients []string `json:"email_recipients"`
	CooldownMinutes int      `json:"cooldown_minutes"`
}

// ListRules returns the notification rules attached to a session.
func (c *Client) ListRules(ctx context.Context, sessionID string) ([]model.NotificationRule, error) {
	out := []model.NotificationRule{}
	if err := c.do(ctx, http.MethodGet, "/notifications/rules/"+escape(sessionID), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateRule(ctx context.Context, rule model.NotificationRule) (*model.NotificationRule, error) {
	in := ruleBody{
		SessionID:       rule.SessionID,
		Name:            rule.Name,
		Condition:       rule.Condition,
		Operator:        rule.Operator,
		Value:           rule.Value,
		EmailRecipients: rule.EmailRecipients,
		CooldownMinutes: rule.CooldownMinutes,
	}
	var out model.NotificationRule
	if err := c.do(ctx, http.MethodPost, "/notifications/rules", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteRule(ctx context.Context, ruleID string) error {
	return c.do(ctx, http.MethodDelete, "/notifications/rules/"+escape(ruleID), nil, nil)
}
