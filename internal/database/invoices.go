package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"mietbot/internal/models"
)

const invoiceColumns = `id, invoice_number, COALESCE(guest_id, 0), COALESCE(guest_name, ''),
    COALESCE(invoice_date, ''), COALESCE(arrival, ''), COALESCE(departure, ''),
    total_amount, is_paid, COALESCE(payment_method, ''), COALESCE(payment_date, ''),
    COALESCE(data, ''), created_at`

func scanInvoice(row interface{ Scan(...interface{}) error }) (*models.Invoice, error) {
	var inv models.Invoice
	err := row.Scan(&inv.ID, &inv.InvoiceNumber, &inv.GuestID, &inv.GuestName,
		&inv.InvoiceDate, &inv.Arrival, &inv.Departure, &inv.TotalAmount,
		&inv.IsPaid, &inv.PaymentMethod, &inv.PaymentDate, &inv.Data, &inv.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// GetNextInvoiceNumber assigns the next number in the external
// YYYY-NNN convention, restarting the counter each calendar year.
func (db *DB) GetNextInvoiceNumber(ctx context.Context) (string, error) {
	prefix := fmt.Sprintf("%d-", time.Now().Year())

	var last string
	err := db.QueryRowContext(ctx,
		`SELECT invoice_number FROM invoices WHERE invoice_number LIKE ? ORDER BY invoice_number DESC LIMIT 1`,
		prefix+"%").Scan(&last)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("failed to get last invoice number: %w", err)
	}

	next := 1
	if last != "" {
		parts := strings.SplitN(last, "-", 2)
		if len(parts) == 2 {
			if n, convErr := strconv.Atoi(parts[1]); convErr == nil {
				next = n + 1
			}
		}
	}

	return fmt.Sprintf("%s%03d", prefix, next), nil
}

// SaveInvoice upserts the invoice by number, resolving the guest first.
// The full InvoiceData snapshot is stored as JSON next to the extracted
// columns.
func (db *DB) SaveInvoice(ctx context.Context, data *models.InvoiceData) (*models.Invoice, error) {
	var guestID int64
	if data.GName != "" {
		guest, err := db.FindOrCreateGuest(ctx, data.GName, data.GEmail, data.GAdresse)
		if err != nil {
			return nil, err
		}
		guestID = guest.ID
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal invoice data: %w", err)
	}

	invoice := &models.Invoice{
		InvoiceNumber: data.RNummer,
		GuestID:       guestID,
		GuestName:     data.GName,
		InvoiceDate:   data.RDatum,
		Arrival:       data.AAnreise,
		Departure:     data.AAbreise,
		TotalAmount:   data.Total(),
		IsPaid:        data.ZBezahlt,
		PaymentMethod: data.ZMethode,
		PaymentDate:   data.ZDatum,
		Data:          string(raw),
	}

	var existingID int64
	err = db.QueryRowContext(ctx,
		`SELECT id FROM invoices WHERE invoice_number = ?`, data.RNummer).Scan(&existingID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to look up invoice: %w", err)
	}

	if err == nil {
		_, err = db.ExecContext(ctx,
			`UPDATE invoices SET guest_id = ?, guest_name = ?, invoice_date = ?, arrival = ?, departure = ?,
             total_amount = ?, is_paid = ?, payment_method = ?, payment_date = ?, data = ?
             WHERE id = ?`,
			guestID, invoice.GuestName, invoice.InvoiceDate, invoice.Arrival, invoice.Departure,
			invoice.TotalAmount, invoice.IsPaid, invoice.PaymentMethod, invoice.PaymentDate,
			invoice.Data, existingID)
		if err != nil {
			return nil, fmt.Errorf("failed to update invoice: %w", err)
		}
		invoice.ID = existingID
		return invoice, nil
	}

	result, err := db.ExecContext(ctx,
		`INSERT INTO invoices (invoice_number, guest_id, guest_name, invoice_date, arrival, departure,
         total_amount, is_paid, payment_method, payment_date, data)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		invoice.InvoiceNumber, guestID, invoice.GuestName, invoice.InvoiceDate, invoice.Arrival,
		invoice.Departure, invoice.TotalAmount, invoice.IsPaid, invoice.PaymentMethod,
		invoice.PaymentDate, invoice.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to insert invoice: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}
	invoice.ID = id
	return invoice, nil
}

func (db *DB) queryInvoices(ctx context.Context, query string, args ...interface{}) ([]*models.Invoice, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query invoices: %w", err)
	}
	defer rows.Close()

	var invoices []*models.Invoice
	for rows.Next() {
		invoice, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invoice: %w", err)
		}
		invoices = append(invoices, invoice)
	}
	return invoices, rows.Err()
}

// GetOpenInvoices lists unpaid invoices, newest stay first.
func (db *DB) GetOpenInvoices(ctx context.Context) ([]*models.Invoice, error) {
	return db.queryInvoices(ctx,
		`SELECT `+invoiceColumns+` FROM invoices WHERE is_paid = 0 ORDER BY invoice_date DESC`)
}

// GetAllInvoices lists every invoice, newest first.
func (db *DB) GetAllInvoices(ctx context.Context) ([]*models.Invoice, error) {
	return db.queryInvoices(ctx,
		`SELECT `+invoiceColumns+` FROM invoices ORDER BY created_at DESC`)
}
