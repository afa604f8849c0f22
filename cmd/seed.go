package cmd

import (
	"fmt"
	"log"
	"time"

	"github.com/bobotcho/wacommerce/internal/config"
	"github.com/bobotcho/wacommerce/internal/db"
	"github.com/bobotcho/wacommerce/internal/model"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with demo shop data",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		sqlDB, err := db.NewMySQLConnection(cfg.MySQL.DSN, db.MySQLOpts{
			MaxOpenConns:    cfg.MySQL.MaxOpenConns,
			MaxIdleConns:    cfg.MySQL.MaxIdleConns,
			ConnMaxLifetime: cfg.MySQL.ConnMaxLifetime,
			ConnMaxIdleTime: cfg.MySQL.ConnMaxIdleTime,
			PingTimeout:     cfg.MySQL.PingTimeout,
		})
		if err != nil {
			return fmt.Errorf("mysql connect: %w", err)
		}
		defer sqlDB.Close()

		log.Println(">> Seeding demo shop data...")

		if err := seedConversations(sqlDB); err != nil {
			return err
		}
		if err := seedTemplates(sqlDB); err != nil {
			return err
		}
		if err := seedCampaigns(sqlDB); err != nil {
			return err
		}
		if err := seedAutomations(sqlDB); err != nil {
			return err
		}

		log.Println(">> Seed completed")
		return nil
	},
}

// seedConversations inserts deterministic demo threads spread across the
// audience segments: recent activity, fresh signups, and long-inactive.
func seedConversations(dbx *sqlx.DB) error {
	now := time.Now()
	type conv struct {
		ID        string
		Phone     string
		LastMsg   time.Time
		CreatedAt time.Time
	}
	convs := []conv{
		{"conv-demo-0001", "+2250701000001", now.Add(-2 * time.Hour), now.Add(-40 * 24 * time.Hour)},
		{"conv-demo-0002", "+2250701000002", now.Add(-26 * time.Hour), now.Add(-3 * 24 * time.Hour)},
		{"conv-demo-0003", "+2250701000003", now.Add(-5 * 24 * time.Hour), now.Add(-6 * 24 * time.Hour)},
		{"conv-demo-0004", "+2250701000004", now.Add(-45 * 24 * time.Hour), now.Add(-90 * 24 * time.Hour)},
		{"conv-demo-0005", "+2250701000005", now.Add(-60 * 24 * time.Hour), now.Add(-120 * 24 * time.Hour)},
	}

	const q = `
INSERT INTO conversations
    (id, shop_id, customer_phone, status, last_message_at, created_at, updated_at)
VALUES
    (?, 'shop-demo', ?, 'active', ?, ?, ?)
ON DUPLICATE KEY UPDATE
    last_message_at = VALUES(last_message_at),
    updated_at      = VALUES(updated_at)
`
	tx, err := dbx.Beginx()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, c := range convs {
		if _, err := tx.Exec(q, c.ID, c.Phone, c.LastMsg, c.CreatedAt, now); err != nil {
			return fmt.Errorf("insert conversation %q: %w", c.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit conversations: %w", err)
	}
	return nil
}

func seedTemplates(dbx *sqlx.DB) error {
	now := time.Now()
	templates := []model.Template{
		{
			ID:          "tmpl-demo-0001",
			Name:        "promo_weekend",
			DisplayName: "Promo du week-end",
			Category:    "MARKETING",
			Status:      model.TemplateApproved,
			Language:    "fr",
			Body:        "Bonjour {{1}} ! Profitez de -20% sur toute la boutique ce week-end.",
			Variables:   model.JSONStrings{"prenom"},
			ContentSID:  "HX0000000000000000000000000000demo",
		},
		{
			ID:          "tmpl-demo-0002",
			Name:        "relance_panier",
			DisplayName: "Relance panier",
			Category:    "UTILITY",
			Status:      model.TemplatePending,
			Language:    "fr",
			Body:        "Bonjour {{1}}, votre panier vous attend toujours !",
			Variables:   model.JSONStrings{"prenom"},
			ContentSID:  "HX0000000000000000000000000001demo",
		},
	}

	const q = `
INSERT INTO templates
    (id, name, display_name, category, status, language, body, variables, content_sid, created_at, updated_at)
VALUES
    (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
    status      = VALUES(status),
    content_sid = VALUES(content_sid),
    updated_at  = VALUES(updated_at)
`
	for _, t := range templates {
		if _, err := dbx.Exec(q, t.ID, t.Name, t.DisplayName, t.Category, t.Status, t.Language, t.Body, t.Variables, t.ContentSID, now, now); err != nil {
			return fmt.Errorf("insert template %q: %w", t.Name, err)
		}
	}
	return nil
}

func seedCampaigns(dbx *sqlx.DB) error {
	now := time.Now()
	const q = `
INSERT INTO campaigns
    (id, name, template_name, status, sent_count, delivered_count, created_at, updated_at)
VALUES
    (?, ?, ?, 'draft', 0, 0, ?, ?)
ON DUPLICATE KEY UPDATE
    updated_at = VALUES(updated_at)
`
	if _, err := dbx.Exec(q, "camp-demo-0001", "Promo rentrée", "promo_weekend", now, now); err != nil {
		return fmt.Errorf("insert campaign: %w", err)
	}
	return nil
}

func seedAutomations(dbx *sqlx.DB) error {
	now := time.Now()
	automations := []model.Automation{
		{
			ID:           "auto-demo-0001",
			Name:         "Bienvenue nouveaux clients",
			TriggerType:  model.TriggerNewCustomer,
			TemplateName: "promo_weekend",
			IsActive:     true,
		},
		{
			ID:           "auto-demo-0002",
			Name:         "Relance clients inactifs",
			TriggerType:  model.TriggerInactive30d,
			TemplateName: "relance_panier",
			IsActive:     false,
		},
	}

	const q = `
INSERT INTO automations
    (id, name, trigger_type, template_name, is_active, executions_count, created_at, updated_at)
VALUES
    (?, ?, ?, ?, ?, 0, ?, ?)
ON DUPLICATE KEY UPDATE
    is_active  = VALUES(is_active),
    updated_at = VALUES(updated_at)
`
	for _, a := range automations {
		if _, err := dbx.Exec(q, a.ID, a.Name, a.TriggerType, a.TemplateName, a.IsActive, now, now); err != nil {
			return fmt.Errorf("insert automation %q: %w", a.Name, err)
		}
	}
	return nil
}
