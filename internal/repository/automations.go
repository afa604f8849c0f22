package repository

import (
	"context"

	"github.com/bobotcho/wacommerce/internal/model"
	"github.com/jmoiron/sqlx"
)

type AutomationsRepository interface {
	ListActive(ctx context.Context) ([]model.Automation, error)
	IncrementExecutions(ctx context.Context, id string) error
}

type AutomationsRepositoryImpl struct {
	db *sqlx.DB
}

func NewAutomationsRepository(db *sqlx.DB) *AutomationsRepositoryImpl {
	return &AutomationsRepositoryImpl{db: db}
}

var _ AutomationsRepository = (*AutomationsRepositoryImpl)(nil)

func (r *AutomationsRepositoryImpl) ListActive(ctx context.Context) ([]model.Automation, error) {
	var as []model.Automation
	err := r.db.SelectContext(ctx, &as, `
		SELECT id, name, trigger_type, template_name, is_active, executions_count, created_at, updated_at
		  FROM automations
		 WHERE is_active = TRUE
		 ORDER BY created_at
	`)
	return as, err
}

// IncrementExecutions bumps the counter exactly once for a tick that
// resulted in a dispatch attempt.
func (r *AutomationsRepositoryImpl) IncrementExecutions(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE automations
		   SET executions_count = executions_count + 1, updated_at = NOW()
		 WHERE id = ?
	`, id)
	return err
}
