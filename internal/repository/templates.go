package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/bobotcho/wacommerce/internal/model"
	"github.com/jmoiron/sqlx"
)

// TemplatesRepository defines persistence for the templates table. Templates
// are upserted by unique name and never deleted.
type TemplatesRepository interface {
	GetByName(ctx context.Context, name string) (*model.Template, error)
	List(ctx context.Context) ([]model.Template, error)
	Upsert(ctx context.Context, t model.Template) error
	UpdateStatus(ctx context.Context, name string, status model.TemplateStatus) error
	ListPendingWithContentSID(ctx context.Context) ([]model.Template, error)
}

type TemplatesRepositoryImpl struct {
	db *sqlx.DB
}

func NewTemplatesRepository(db *sqlx.DB) *TemplatesRepositoryImpl {
	return &TemplatesRepositoryImpl{db: db}
}

var _ TemplatesRepository = (*TemplatesRepositoryImpl)(nil)

func (r *TemplatesRepositoryImpl) GetByName(ctx context.Context, name string) (*model.Template, error) {
	var t model.Template
	err := r.db.GetContext(ctx, &t, `
		SELECT id, name, display_name, category, status, language, body, variables, content_sid, created_at, updated_at
		  FROM templates
		 WHERE name = ? LIMIT 1
	`, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TemplatesRepositoryImpl) List(ctx context.Context) ([]model.Template, error) {
	var ts []model.Template
	err := r.db.SelectContext(ctx, &ts, `
		SELECT id, name, display_name, category, status, language, body, variables, content_sid, created_at, updated_at
		  FROM templates
		 ORDER BY created_at
	`)
	return ts, err
}

// Upsert inserts a template or updates the existing row keyed by name.
func (r *TemplatesRepositoryImpl) Upsert(ctx context.Context, t model.Template) error {
	const q = `
		INSERT INTO templates
		    (id, name, display_name, category, status, language, body, variables, content_sid, created_at, updated_at)
		VALUES
		    (?,  ?,    ?,            ?,        ?,      ?,        ?,    ?,         ?,           NOW(),      NOW())
		ON DUPLICATE KEY UPDATE
		    display_name = VALUES(display_name),
		    category     = VALUES(category),
		    status       = VALUES(status),
		    language     = VALUES(language),
		    body         = VALUES(body),
		    variables    = VALUES(variables),
		    content_sid  = VALUES(content_sid),
		    updated_at   = NOW()
	`
	_, err := r.db.ExecContext(ctx, q,
		t.ID, t.Name, t.DisplayName, t.Category, t.Status.String(),
		t.Language, t.Body, t.Variables, t.ContentSID,
	)
	return err
}

func (r *TemplatesRepositoryImpl) UpdateStatus(ctx context.Context, name string, status model.TemplateStatus) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE templates SET status = ?, updated_at = NOW() WHERE name = ?
	`, status.String(), name)
	return err
}

// ListPendingWithContentSID returns templates awaiting a channel approval
// verdict; rows without a content SID cannot be polled and are excluded.
func (r *TemplatesRepositoryImpl) ListPendingWithContentSID(ctx context.Context) ([]model.Template, error) {
	var ts []model.Template
	err := r.db.SelectContext(ctx, &ts, `
		SELECT id, name, display_name, category, status, language, body, variables, content_sid, created_at, updated_at
		  FROM templates
		 WHERE status = 'pending' AND content_sid <> ''
		 ORDER BY created_at
	`)
	return ts, err
}
