package tokens

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"memorybook-backend/internal/models"
)

// PostgresStore keeps the token collection in a customer_tokens table.
// It implements the same read-all/replace-all contract as FileStore;
// Replace runs in one transaction so a failed rewrite leaves the
// previous collection intact.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(connectionString string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Load() ([]models.TokenRecord, error) {
	rows, err := s.db.Query(`
		SELECT token, customer_name, created_at, expires_at, used, used_at,
		       order_id, link, whatsapp_message, deleted, deleted_at
		FROM customer_tokens
		ORDER BY created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to load tokens: %w", err)
	}
	defer rows.Close()

	var records []models.TokenRecord
	for rows.Next() {
		var (
			rec     models.TokenRecord
			orderID sql.NullString
			link    sql.NullString
			message sql.NullString
		)
		err := rows.Scan(
			&rec.Token, &rec.CustomerName, &rec.CreatedAt, &rec.ExpiresAt,
			&rec.Used, &rec.UsedAt, &orderID, &link, &message,
			&rec.Deleted, &rec.DeletedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan token: %w", err)
		}
		if orderID.Valid {
			rec.OrderID = &orderID.String
		}
		rec.Link = link.String
		rec.WhatsappMessage = message.String
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to load tokens: %w", err)
	}
	if records == nil {
		records = []models.TokenRecord{}
	}
	return records, nil
}

func (s *PostgresStore) Replace(records []models.TokenRecord) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM customer_tokens`); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to clear tokens: %w", err)
	}

	for _, rec := range records {
		_, err := tx.Exec(`
			INSERT INTO customer_tokens
				(token, customer_name, created_at, expires_at, used, used_at,
				 order_id, link, whatsapp_message, deleted, deleted_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		`,
			rec.Token, rec.CustomerName, rec.CreatedAt, rec.ExpiresAt,
			rec.Used, rec.UsedAt, rec.OrderID, rec.Link, rec.WhatsappMessage,
			rec.Deleted, rec.DeletedAt,
		)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert token: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit tokens: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
