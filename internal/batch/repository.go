package batch

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"agrimarket-be/internal/logger"
	"agrimarket-be/internal/user"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

type Repository interface {
	CreateTx(ctx context.Context, b *Batch, evt *Event) error
	GetByID(ctx context.Context, id uuid.UUID) (*Batch, error)
	List(ctx context.Context, filter ListFilter) ([]*Batch, error)
	TransferTx(ctx context.Context, sourceID uuid.UUID, quantity int, toID uint, toRole user.Role, action Action) (*Batch, error)
	GetTrace(ctx context.Context, id uuid.UUID) (*Trace, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateTx(ctx context.Context, b *Batch, evt *Event) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	err = tx.QueryRowContext(ctx, `
		INSERT INTO batches (id, produce_type, quantity, holder_id, holder_role)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at
	`, b.ID, b.ProduceType, b.Quantity, b.HolderID, b.HolderRole).
		Scan(&b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return err
	}

	if err := insertEvent(ctx, tx, evt); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Batch, error) {
	var b Batch
	err := r.db.QueryRowContext(ctx, `
		SELECT id, produce_type, quantity, holder_id, holder_role, parent_id, created_at, updated_at
		FROM batches
		WHERE id = $1
	`, id).Scan(&b.ID, &b.ProduceType, &b.Quantity, &b.HolderID, &b.HolderRole, &b.ParentID, &b.CreatedAt, &b.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBatchNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]*Batch, error) {
	finalLimit := int32(20)
	finalPage := int32(1)

	if filter.Limit > 0 {
		finalLimit = filter.Limit
	}
	if filter.Page > 0 {
		finalPage = filter.Page
	}
	if finalLimit > 100 {
		finalLimit = 100
	}
	offset := (finalPage - 1) * finalLimit

	query := `
		SELECT id, produce_type, quantity, holder_id, holder_role, parent_id, created_at, updated_at
		FROM batches
		WHERE 1=1
	`
	args := []any{}
	argIndex := 1

	if filter.HolderID != nil {
		query += fmt.Sprintf(" AND holder_id = $%d", argIndex)
		args = append(args, *filter.HolderID)
		argIndex++
	}
	if filter.HolderRole != nil {
		query += fmt.Sprintf(" AND holder_role = $%d", argIndex)
		args = append(args, *filter.HolderRole)
		argIndex++
	}
	if filter.ProduceType != nil && *filter.ProduceType != "" {
		query += fmt.Sprintf(" AND produce_type = $%d", argIndex)
		args = append(args, *filter.ProduceType)
		argIndex++
	}

	query += " ORDER BY created_at DESC"
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argIndex, argIndex+1)
	args = append(args, finalLimit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var batches []*Batch
	for rows.Next() {
		var b Batch
		if err := rows.Scan(&b.ID, &b.ProduceType, &b.Quantity, &b.HolderID, &b.HolderRole, &b.ParentID, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		batches = append(batches, &b)
	}
	return batches, rows.Err()
}

// TransferTx moves quantity from the source batch to a new child batch held
// by the recipient. The guarded decrement makes a concurrent over-transfer
// affect zero rows, so the source can never go negative.
func (r *repository) TransferTx(ctx context.Context, sourceID uuid.UUID, quantity int, toID uint, toRole user.Role, action Action) (*Batch, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "TransferTx"),
		zap.String("source_id", sourceID.String()),
		zap.Int("quantity", quantity),
	)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}

	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var produceType string
	err = tx.QueryRowContext(ctx, `
		UPDATE batches
		SET quantity = quantity - $1, updated_at = NOW()
		WHERE id = $2 AND quantity >= $1
		RETURNING produce_type
	`, quantity, sourceID).Scan(&produceType)
	if errors.Is(err, sql.ErrNoRows) {
		log.Warn("quantity guard rejected transfer")
		return nil, ErrInsufficientQuantity
	}
	if err != nil {
		return nil, err
	}

	child := &Batch{
		ID:          uuid.New(),
		ProduceType: produceType,
		Quantity:    quantity,
		HolderID:    toID,
		HolderRole:  toRole,
		ParentID:    &sourceID,
	}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO batches (id, produce_type, quantity, holder_id, holder_role, parent_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`, child.ID, child.ProduceType, child.Quantity, child.HolderID, child.HolderRole, sourceID).
		Scan(&child.CreatedAt, &child.UpdatedAt)
	if err != nil {
		return nil, err
	}

	evt := &Event{
		ID:        uuid.New(),
		BatchID:   child.ID,
		Action:    action,
		ActorID:   toID,
		ActorRole: toRole,
		Quantity:  quantity,
	}
	if err := insertEvent(ctx, tx, evt); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true

	log.Info("batch transferred", zap.String("child_id", child.ID.String()))
	return child, nil
}

// GetTrace walks the parent chain from the given batch back to the root lot
// and returns every batch and event along it, oldest first.
func (r *repository) GetTrace(ctx context.Context, id uuid.UUID) (*Trace, error) {
	rows, err := r.db.QueryContext(ctx, `
		WITH RECURSIVE lineage AS (
			SELECT id, produce_type, quantity, holder_id, holder_role, parent_id, created_at, updated_at
			FROM batches WHERE id = $1
			UNION ALL
			SELECT b.id, b.produce_type, b.quantity, b.holder_id, b.holder_role, b.parent_id, b.created_at, b.updated_at
			FROM batches b
			JOIN lineage l ON l.parent_id = b.id
		)
		SELECT id, produce_type, quantity, holder_id, holder_role, parent_id, created_at, updated_at
		FROM lineage
		ORDER BY created_at
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trace Trace
	ids := []string{}
	for rows.Next() {
		var b Batch
		if err := rows.Scan(&b.ID, &b.ProduceType, &b.Quantity, &b.HolderID, &b.HolderRole, &b.ParentID, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		trace.Batches = append(trace.Batches, &b)
		ids = append(ids, b.ID.String())
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(trace.Batches) == 0 {
		return nil, ErrBatchNotFound
	}

	evtRows, err := r.db.QueryContext(ctx, `
		SELECT id, batch_id, action, actor_id, actor_role, quantity, created_at
		FROM batch_events
		WHERE batch_id = ANY($1::uuid[])
		ORDER BY created_at
	`, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer evtRows.Close()

	for evtRows.Next() {
		var e Event
		if err := evtRows.Scan(&e.ID, &e.BatchID, &e.Action, &e.ActorID, &e.ActorRole, &e.Quantity, &e.CreatedAt); err != nil {
			return nil, err
		}
		trace.Events = append(trace.Events, &e)
	}
	return &trace, evtRows.Err()
}

func insertEvent(ctx context.Context, tx *sql.Tx, evt *Event) error {
	return tx.QueryRowContext(ctx, `
		INSERT INTO batch_events (id, batch_id, action, actor_id, actor_role, quantity)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`, evt.ID, evt.BatchID, evt.Action, evt.ActorID, evt.ActorRole, evt.Quantity).
		Scan(&evt.CreatedAt)
}
