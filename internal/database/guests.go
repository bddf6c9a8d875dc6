package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"mietbot/internal/models"
)

func (db *DB) getGuestBy(ctx context.Context, column, value string) (*models.Guest, error) {
	query := fmt.Sprintf(
		`SELECT id, name, COALESCE(email, ''), COALESCE(address, ''), COALESCE(phone, ''), COALESCE(notes, ''), created_at, updated_at
         FROM guests WHERE %s = ? LIMIT 1`, column)

	var g models.Guest
	err := db.QueryRowContext(ctx, query, value).Scan(
		&g.ID, &g.Name, &g.Email, &g.Address, &g.Phone, &g.Notes, &g.CreatedAt, &g.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get guest by %s: %w", column, err)
	}
	return &g, nil
}

// FindOrCreateGuest resolves a guest by email first, then by name, and
// creates one when neither matches. A changed address updates the
// stored record.
func (db *DB) FindOrCreateGuest(ctx context.Context, name, email, address string) (*models.Guest, error) {
	var guest *models.Guest
	var err error

	if email != "" {
		guest, err = db.getGuestBy(ctx, "email", email)
		if err != nil {
			return nil, err
		}
	}
	if guest == nil && name != "" {
		guest, err = db.getGuestBy(ctx, "name", name)
		if err != nil {
			return nil, err
		}
	}

	if guest != nil {
		if address != "" && address != guest.Address {
			_, err = db.ExecContext(ctx,
				`UPDATE guests SET address = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
				address, guest.ID)
			if err != nil {
				return nil, fmt.Errorf("failed to update guest address: %w", err)
			}
			guest.Address = address
		}
		return guest, nil
	}

	result, err := db.ExecContext(ctx,
		`INSERT INTO guests (name, email, address) VALUES (?, ?, ?)`,
		name, nullable(email), nullable(address))
	if err != nil {
		return nil, fmt.Errorf("failed to create guest: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}

	return &models.Guest{ID: id, Name: name, Email: email, Address: address}, nil
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
