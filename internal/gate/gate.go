package gate

import (
	"context"
	"errors"
	"fmt"

	"github.com/bobotcho/wacommerce/internal/model"
	"github.com/bobotcho/wacommerce/internal/repository"
)

var (
	ErrTemplateNotFound  = errors.New("template not found")
	ErrMissingContentSID = errors.New("template has no content SID")
)

// NotApprovedError carries the template's current status so callers can
// return an actionable rejection.
type NotApprovedError struct {
	Name   string
	Status model.TemplateStatus
}

func (e *NotApprovedError) Error() string {
	return fmt.Sprintf("template %q is not approved (status: %s)", e.Name, e.Status)
}

// Authorization is the proof that a template may be dispatched.
type Authorization struct {
	ContentSID string
}

// Gate validates a template before any send is attempted. It must run
// synchronously on the request path, never lazily inside a dispatch, so
// invalid requests fail fast instead of after partial sends.
type Gate struct {
	templates repository.TemplatesRepository
}

func New(templates repository.TemplatesRepository) *Gate {
	return &Gate{templates: templates}
}

// Authorize returns the template's content SID, or a typed error describing
// exactly why the template cannot be used.
func (g *Gate) Authorize(ctx context.Context, name string) (Authorization, error) {
	t, err := g.templates.GetByName(ctx, name)
	if err != nil {
		return Authorization{}, fmt.Errorf("load template %q: %w", name, err)
	}
	if t == nil {
		return Authorization{}, ErrTemplateNotFound
	}
	if t.Status != model.TemplateApproved {
		return Authorization{}, &NotApprovedError{Name: name, Status: t.Status}
	}
	if t.ContentSID == "" {
		return Authorization{}, ErrMissingContentSID
	}

	return Authorization{ContentSID: t.ContentSID}, nil
}
