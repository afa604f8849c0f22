package model

import (
	"strings"
	"time"
)

type TemplateStatus string

const (
	TemplateDraft    TemplateStatus = "draft"
	TemplatePending  TemplateStatus = "pending"
	TemplateApproved TemplateStatus = "approved"
	TemplateRejected TemplateStatus = "rejected"
)

func (s TemplateStatus) String() string { return string(s) }

func (s TemplateStatus) Valid() bool {
	switch s {
	case TemplateDraft, TemplatePending, TemplateApproved, TemplateRejected:
		return true
	}
	return false
}

// ParseTemplateStatus normalizes input reported by the external channel.
// Returns (value, true) if valid; otherwise (draft, false).
func ParseTemplateStatus(s string) (TemplateStatus, bool) {
	st := TemplateStatus(strings.ToLower(strings.TrimSpace(s)))
	if st.Valid() {
		return st, true
	}
	return TemplateDraft, false
}

type TemplateCategory string

const (
	CategoryMarketing      TemplateCategory = "MARKETING"
	CategoryUtility        TemplateCategory = "UTILITY"
	CategoryAuthentication TemplateCategory = "AUTHENTICATION"
)

func (c TemplateCategory) String() string { return string(c) }

func (c TemplateCategory) Valid() bool {
	return c == CategoryMarketing || c == CategoryUtility || c == CategoryAuthentication
}

// Template is the DB entity persisted in the templates table. A template may
// only be used for sends once status is approved AND ContentSID is set.
type Template struct {
	ID          string         `db:"id" json:"id"`
	Name        string         `db:"name" json:"name"` // unique key
	DisplayName string         `db:"display_name" json:"display_name"`
	Category    string         `db:"category" json:"category"`
	Status      TemplateStatus `db:"status" json:"status"`
	Language    string         `db:"language" json:"language"`
	Body        string         `db:"body" json:"body"`
	Variables   JSONStrings    `db:"variables" json:"variables"` // variable slot descriptions
	ContentSID  string         `db:"content_sid" json:"content_sid,omitempty"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
}
