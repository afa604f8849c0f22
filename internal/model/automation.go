package model

import (
	"strings"
	"time"
)

type TriggerType string

const (
	TriggerNewCustomer   TriggerType = "new_customer"
	TriggerInactive30d   TriggerType = "inactive_30d"
	TriggerCartAbandoned TriggerType = "cart_abandoned"
	TriggerOrderCreated  TriggerType = "order_created"
	TriggerPostPurchase  TriggerType = "post_purchase"
)

func (t TriggerType) String() string { return string(t) }

func (t TriggerType) Valid() bool {
	switch t {
	case TriggerNewCustomer, TriggerInactive30d, TriggerCartAbandoned, TriggerOrderCreated, TriggerPostPurchase:
		return true
	}
	return false
}

func ParseTriggerType(s string) (TriggerType, bool) {
	t := TriggerType(strings.ToLower(strings.TrimSpace(s)))
	return t, t.Valid()
}

// Automation executes at most once per scheduler tick; ExecutionsCount
// increments once per tick that actually dispatched, never per recipient.
type Automation struct {
	ID              string      `db:"id"`
	Name            string      `db:"name"`
	TriggerType     TriggerType `db:"trigger_type"`
	TemplateName    string      `db:"template_name"`
	IsActive        bool        `db:"is_active"`
	ExecutionsCount int         `db:"executions_count"`
	CreatedAt       time.Time   `db:"created_at"`
	UpdatedAt       time.Time   `db:"updated_at"`
}
