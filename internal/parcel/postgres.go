package parcel

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"parceltrack/internal/apperr"
)

// postgresRepository persists parcels, history and line items in
// PostgreSQL. Writes that touch both the parcel row and its history run in
// a single transaction.
type postgresRepository struct {
	db     *sql.DB
	tracer trace.Tracer
}

func NewPostgresRepository(db *sql.DB) Repository {
	return &postgresRepository{
		db:     db,
		tracer: otel.Tracer("parceltrack/parcel"),
	}
}

const parcelColumns = `
	id, description, weight, status, priority, sender_id, recipient_id,
	courier_id, zone_id, destination_city, deadline, collected_at,
	delivered_at, created_at, updated_at
`

// parcelColumns with the alias used by the criteria join.
const parcelColumnsQualified = `
	p.id, p.description, p.weight, p.status, p.priority, p.sender_id,
	p.recipient_id, p.courier_id, p.zone_id, p.destination_city,
	p.deadline, p.collected_at, p.delivered_at, p.created_at, p.updated_at
`

func (r *postgresRepository) Create(ctx context.Context, p *Parcel, entry *HistoryEntry) error {
	ctx, span := r.tracer.Start(ctx, "parcel.create",
		trace.WithAttributes(attribute.String("parcel.id", p.ID.String())),
	)
	defer span.End()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO parcels (`+parcelColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`,
		p.ID, p.Description, p.Weight, p.Status, p.Priority, p.SenderID,
		p.RecipientID, p.CourierID, p.ZoneID, p.DestinationCity, p.Deadline,
		p.CollectedAt, p.DeliveredAt, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert parcel: %w", err)
	}

	if err := insertHistory(ctx, tx, entry); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *postgresRepository) Get(ctx context.Context, id uuid.UUID) (*Parcel, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+parcelColumns+`
		FROM parcels
		WHERE id = $1
	`, id)

	parcel, err := scanParcel(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("parcel with id %s not found", id)
		}
		return nil, fmt.Errorf("failed to get parcel: %w", err)
	}
	return parcel, nil
}

func (r *postgresRepository) List(ctx context.Context, criteria Criteria, page Page) ([]*Parcel, error) {
	where, args := buildWhere(criteria)
	args = append(args, page.Limit, page.Offset)

	query := `
		SELECT ` + parcelColumnsQualified + `
		FROM parcels p
		LEFT JOIN clients c ON c.id = p.sender_id
		LEFT JOIN recipients r ON r.id = p.recipient_id
		` + where + `
		ORDER BY p.created_at DESC
		LIMIT $` + fmt.Sprint(len(args)-1) + ` OFFSET $` + fmt.Sprint(len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list parcels: %w", err)
	}
	defer rows.Close()

	return collectParcels(rows)
}

func (r *postgresRepository) Update(ctx context.Context, p *Parcel, entry *HistoryEntry) error {
	ctx, span := r.tracer.Start(ctx, "parcel.update",
		trace.WithAttributes(
			attribute.String("parcel.id", p.ID.String()),
			attribute.String("parcel.status", string(p.Status)),
			attribute.Bool("parcel.history", entry != nil),
		),
	)
	defer span.End()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE parcels
		SET description = $2, weight = $3, status = $4, priority = $5,
		    courier_id = $6, zone_id = $7, destination_city = $8,
		    deadline = $9, collected_at = $10, delivered_at = $11,
		    updated_at = $12
		WHERE id = $1
	`,
		p.ID, p.Description, p.Weight, p.Status, p.Priority, p.CourierID,
		p.ZoneID, p.DestinationCity, p.Deadline, p.CollectedAt,
		p.DeliveredAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update parcel: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return apperr.NotFound("parcel with id %s not found", p.ID)
	}

	if entry != nil {
		if err := insertHistory(ctx, tx, entry); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *postgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM parcels WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete parcel: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return apperr.NotFound("parcel with id %s not found", id)
	}
	return nil
}

func (r *postgresRepository) History(ctx context.Context, parcelID uuid.UUID) ([]*HistoryEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, parcel_id, status, changed_at, comment, modified_by
		FROM delivery_history
		WHERE parcel_id = $1
		ORDER BY changed_at DESC
	`, parcelID)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var entries []*HistoryEntry
	for rows.Next() {
		entry := &HistoryEntry{}
		if err := rows.Scan(&entry.ID, &entry.ParcelID, &entry.Status, &entry.ChangedAt, &entry.Comment, &entry.ModifiedBy); err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (r *postgresRepository) AddLineItem(ctx context.Context, item *LineItem) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO parcel_items (id, parcel_id, product_id, quantity, unit_price, added_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, item.ID, item.ParcelID, item.ProductID, item.Quantity, item.UnitPrice, item.AddedAt)
	if err != nil {
		return fmt.Errorf("failed to insert line item: %w", err)
	}
	return nil
}

func (r *postgresRepository) LineItem(ctx context.Context, id uuid.UUID) (*LineItem, error) {
	item := &LineItem{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, parcel_id, product_id, quantity, unit_price, added_at
		FROM parcel_items
		WHERE id = $1
	`, id).Scan(&item.ID, &item.ParcelID, &item.ProductID, &item.Quantity, &item.UnitPrice, &item.AddedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("line item with id %s not found", id)
		}
		return nil, fmt.Errorf("failed to get line item: %w", err)
	}
	return item, nil
}

func (r *postgresRepository) LineItems(ctx context.Context, parcelID uuid.UUID) ([]*LineItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, parcel_id, product_id, quantity, unit_price, added_at
		FROM parcel_items
		WHERE parcel_id = $1
		ORDER BY added_at
	`, parcelID)
	if err != nil {
		return nil, fmt.Errorf("failed to query line items: %w", err)
	}
	defer rows.Close()

	var items []*LineItem
	for rows.Next() {
		item := &LineItem{}
		if err := rows.Scan(&item.ID, &item.ParcelID, &item.ProductID, &item.Quantity, &item.UnitPrice, &item.AddedAt); err != nil {
			return nil, fmt.Errorf("failed to scan line item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *postgresRepository) DeleteLineItem(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM parcel_items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete line item: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return apperr.NotFound("line item with id %s not found", id)
	}
	return nil
}

func (r *postgresRepository) Overdue(ctx context.Context, now time.Time) ([]*Parcel, error) {
	excluded := make([]string, 0, len(overdueExcluded))
	for _, status := range overdueExcluded {
		excluded = append(excluded, string(status))
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+parcelColumns+`
		FROM parcels
		WHERE deadline IS NOT NULL
		  AND deadline < $1
		  AND NOT (status = ANY($2))
		ORDER BY deadline
	`, now, pq.Array(excluded))
	if err != nil {
		return nil, fmt.Errorf("failed to query overdue parcels: %w", err)
	}
	defer rows.Close()

	return collectParcels(rows)
}

func (r *postgresRepository) CountByStatus(ctx context.Context, criteria Criteria) (*Statistics, error) {
	where, args := buildWhere(criteria)

	rows, err := r.db.QueryContext(ctx, `
		SELECT p.status, COUNT(*)
		FROM parcels p
		LEFT JOIN clients c ON c.id = p.sender_id
		LEFT JOIN recipients r ON r.id = p.recipient_id
		`+where+`
		GROUP BY p.status
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to count parcels: %w", err)
	}
	defer rows.Close()

	stats := &Statistics{}
	for rows.Next() {
		var status Status
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("failed to scan count: %w", err)
		}
		stats.count(status, n)
	}
	return stats, rows.Err()
}

// buildWhere assembles the WHERE clause for criteria against the aliased
// parcels/clients/recipients join.
func buildWhere(criteria Criteria) (string, []any) {
	var clauses []string
	var args []any

	add := func(clause string, value any) {
		args = append(args, value)
		clauses = append(clauses, fmt.Sprintf(clause, len(args)))
	}

	if criteria.Status != nil {
		add("p.status = $%d", *criteria.Status)
	}
	if criteria.Priority != nil {
		add("p.priority = $%d", *criteria.Priority)
	}
	if criteria.ZoneID != nil {
		add("p.zone_id = $%d", *criteria.ZoneID)
	}
	if criteria.City != "" {
		add("p.destination_city ILIKE $%d", "%"+criteria.City+"%")
	}
	if criteria.CourierID != nil {
		add("p.courier_id = $%d", *criteria.CourierID)
	}
	if criteria.SenderID != nil {
		add("p.sender_id = $%d", *criteria.SenderID)
	}
	if criteria.Keyword != "" {
		args = append(args, "%"+criteria.Keyword+"%")
		n := len(args)
		clauses = append(clauses, fmt.Sprintf(
			"(p.description ILIKE $%d OR p.destination_city ILIKE $%d OR c.name ILIKE $%d OR r.name ILIKE $%d)",
			n, n, n, n,
		))
	}

	if len(clauses) == 0 {
		return "", args
	}
	where := "WHERE " + clauses[0]
	for _, clause := range clauses[1:] {
		where += " AND " + clause
	}
	return where, args
}

func insertHistory(ctx context.Context, tx *sql.Tx, entry *HistoryEntry) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO delivery_history (id, parcel_id, status, changed_at, comment, modified_by)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, entry.ID, entry.ParcelID, entry.Status, entry.ChangedAt, entry.Comment, entry.ModifiedBy)
	if err != nil {
		return fmt.Errorf("failed to insert history entry: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanParcel(row rowScanner) (*Parcel, error) {
	parcel := &Parcel{}
	err := row.Scan(
		&parcel.ID,
		&parcel.Description,
		&parcel.Weight,
		&parcel.Status,
		&parcel.Priority,
		&parcel.SenderID,
		&parcel.RecipientID,
		&parcel.CourierID,
		&parcel.ZoneID,
		&parcel.DestinationCity,
		&parcel.Deadline,
		&parcel.CollectedAt,
		&parcel.DeliveredAt,
		&parcel.CreatedAt,
		&parcel.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return parcel, nil
}

func collectParcels(rows *sql.Rows) ([]*Parcel, error) {
	var parcels []*Parcel
	for rows.Next() {
		parcel, err := scanParcel(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan parcel: %w", err)
		}
		parcels = append(parcels, parcel)
	}
	return parcels, rows.Err()
}
