// Package repository mirrors campaigns and executions into SQLite.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/xiaot623/gogo/marketing/internal/domain"
)

// SQLiteArchive stores campaigns and execution records in SQLite.
type SQLiteArchive struct {
	db *sql.DB
}

// NewSQLiteArchive opens dsn and applies the schema.
func NewSQLiteArchive(dsn string) (*SQLiteArchive, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// For in-memory SQLite, multiple connections create separate databases.
	if dsn == ":memory:" || strings.Contains(dsn, "mode=memory") {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	a := &SQLiteArchive{db: db}
	if err := a.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return a, nil
}

func (a *SQLiteArchive) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS campaigns (
			campaign_id TEXT PRIMARY KEY,
			client_id TEXT NOT NULL,
			name TEXT NOT NULL,
			status TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			payload TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_campaigns_client ON campaigns(client_id, created_at)`,
		`CREATE TABLE IF NOT EXISTS executions (
			execution_id TEXT PRIMARY KEY,
			campaign_id TEXT NOT NULL,
			status TEXT NOT NULL,
			executed_at DATETIME NOT NULL,
			channels TEXT NOT NULL,
			execution_data TEXT,
			FOREIGN KEY (campaign_id) REFERENCES campaigns(campaign_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_executions_campaign ON executions(campaign_id, executed_at)`,
	}
	for _, m := range migrations {
		if _, err := a.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// Close closes the database.
func (a *SQLiteArchive) Close() error {
	return a.db.Close()
}

// SaveCampaign inserts or replaces a campaign.
func (a *SQLiteArchive) SaveCampaign(ctx context.Context, c *domain.Campaign) error {
	payload, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode campaign: %w", err)
	}
	_, err = a.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO campaigns (campaign_id, client_id, name, status, created_at, payload) VALUES (?, ?, ?, ?, ?, ?)`,
		c.CampaignID, c.ClientID, c.Name, c.Status, c.CreatedAt.UTC(), string(payload))
	return err
}

// UpdateCampaignStatus records a status change.
func (a *SQLiteArchive) UpdateCampaignStatus(ctx context.Context, campaignID string, status domain.CampaignStatus) error {
	res, err := a.db.ExecContext(ctx,
		`UPDATE campaigns SET status = ?, payload = json_set(payload, '$.status', ?) WHERE campaign_id = ?`,
		status, string(status), campaignID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.NewCampaignNotFound(campaignID)
	}
	return nil
}

// GetCampaign loads a campaign.
func (a *SQLiteArchive) GetCampaign(ctx context.Context, campaignID string) (*domain.Campaign, error) {
	var payload string
	err := a.db.QueryRowContext(ctx,
		`SELECT payload FROM campaigns WHERE campaign_id = ?`, campaignID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NewCampaignNotFound(campaignID)
	}
	if err != nil {
		return nil, err
	}
	var c domain.Campaign
	if err := json.Unmarshal([]byte(payload), &c); err != nil {
		return nil, fmt.Errorf("failed to decode campaign: %w", err)
	}
	return &c, nil
}

// ListCampaigns returns a client's campaigns, newest first.
func (a *SQLiteArchive) ListCampaigns(ctx context.Context, clientID string) ([]domain.Campaign, error) {
	rows, err := a.db.QueryContext(ctx,
		`SELECT payload FROM campaigns WHERE client_id = ? ORDER BY created_at DESC, rowid DESC`, clientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	campaigns := []domain.Campaign{}
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var c domain.Campaign
		if err := json.Unmarshal([]byte(payload), &c); err != nil {
			return nil, fmt.Errorf("failed to decode campaign: %w", err)
		}
		campaigns = append(campaigns, c)
	}
	return campaigns, rows.Err()
}

// SaveExecution inserts an execution record.
func (a *SQLiteArchive) SaveExecution(ctx context.Context, rec *domain.ExecutionRecord) error {
	channels, err := json.Marshal(rec.Channels)
	if err != nil {
		return fmt.Errorf("failed to encode channels: %w", err)
	}
	data, err := json.Marshal(rec.ExecutionData)
	if err != nil {
		return fmt.Errorf("failed to encode execution data: %w", err)
	}
	_, err = a.db.ExecContext(ctx,
		`INSERT INTO executions (execution_id, campaign_id, status, executed_at, channels, execution_data) VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ExecutionID, rec.CampaignID, rec.Status, rec.ExecutedAt.UTC(), string(channels), string(data))
	return err
}

// ListExecutions returns the executions of a campaign, oldest first.
func (a *SQLiteArchive) ListExecutions(ctx context.Context, campaignID string) ([]domain.ExecutionRecord, error) {
	rows, err := a.db.QueryContext(ctx,
		`SELECT execution_id, campaign_id, status, executed_at, channels, execution_data FROM executions WHERE campaign_id = ? ORDER BY executed_at ASC, rowid ASC`,
		campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []domain.ExecutionRecord{}
	for rows.Next() {
		var rec domain.ExecutionRecord
		var executedAt time.Time
		var channels string
		var data sql.NullString
		if err := rows.Scan(&rec.ExecutionID, &rec.CampaignID, &rec.Status, &executedAt, &channels, &data); err != nil {
			return nil, err
		}
		rec.ExecutedAt = executedAt
		if err := json.Unmarshal([]byte(channels), &rec.Channels); err != nil {
			return nil, fmt.Errorf("failed to decode channels: %w", err)
		}
		if data.Valid && data.String != "" {
			if err := json.Unmarshal([]byte(data.String), &rec.ExecutionData); err != nil {
				return nil, fmt.Errorf("failed to decode execution data: %w", err)
			}
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
