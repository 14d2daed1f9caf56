// Package postgres implements the dispatch storage interfaces on PostgreSQL
// using a pgx connection pool.
package postgres

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/paintops/go-notification-service/pkg/dispatch"
	"github.com/paintops/go-notification-service/pkg/notification"
)

//go:embed schema.sql
var schema string

var (
	_ dispatch.Directory         = (*Store)(nil)
	_ dispatch.NotificationStore = (*Store)(nil)
	_ dispatch.SubscriptionStore = (*Store)(nil)
	_ dispatch.DeliveryLogStore  = (*Store)(nil)
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// Connect opens a pool and verifies it with a ping.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}
	return pool, nil
}

// Migrate creates the tables the service writes to. It is idempotent.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

func (s *Store) Lookup(ctx context.Context, email string) (notification.Identity, error) {
	var identity notification.Identity
	err := s.db.QueryRow(ctx,
		`SELECT id, role FROM users WHERE lower(email) = $1 LIMIT 1`, email,
	).Scan(&identity.ID, &identity.Role)
	if errors.Is(err, pgx.ErrNoRows) {
		return notification.Identity{}, notification.ErrRecipientNotFound
	}
	if err != nil {
		return notification.Identity{}, fmt.Errorf("postgres user lookup failed: %w", err)
	}
	return identity, nil
}

func (s *Store) Create(ctx context.Context, record notification.Record) error {
	data := record.Data
	if data == nil {
		data = map[string]any{}
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode notification data: %w", err)
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO notifications (
			id, recipient_email, user_id, company_id, type, title, message,
			link, project_id, data, read, created_at, triggering_user_name
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`,
		record.ID, record.RecipientEmail, record.UserID, record.CompanyID, record.Type,
		record.Title, record.Message, record.Link, record.ProjectID, raw, record.Read,
		record.CreatedAt, record.TriggeredBy,
	)
	if err != nil {
		return fmt.Errorf("failed to insert notification %s: %w", record.ID, err)
	}
	return nil
}

func (s *Store) ActiveForUsers(ctx context.Context, userIDs []string) ([]notification.PushSubscription, error) {
	rows, err := s.db.Query(ctx, `
		SELECT user_id, device_id, active
		FROM push_subscriptions
		WHERE user_id = ANY($1) AND active
	`, userIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query push subscriptions: %w", err)
	}
	subs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (notification.PushSubscription, error) {
		var sub notification.PushSubscription
		err := row.Scan(&sub.UserID, &sub.DeviceID, &sub.Active)
		return sub, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan push subscriptions: %w", err)
	}
	return subs, nil
}

func (s *Store) AppendDeliveryLog(ctx context.Context, entry notification.PushDeliveryLogEntry) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO push_delivery_logs (user_id, project_id, type, title, message, provider_response, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, entry.UserID, entry.ProjectID, entry.Type, entry.Title, entry.Message, entry.ProviderResponse, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to append push delivery log: %w", err)
	}
	return nil
}
