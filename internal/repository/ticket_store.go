package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/alert-ticket-service/internal/domain"
	apperrors "github.com/spec-kit/alert-ticket-service/pkg/util"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx so the same store code
// runs inside and outside a transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PgStore implements Store on Postgres via pgx.
type PgStore struct {
	pool *pgxpool.Pool
	q    querier
}

// NewPgStore builds the Postgres-backed store.
func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool, q: pool}
}

const ticketColumns = `id, ticket_number, title, description, severity, status,
        camera_id, organization_id, provider_id, vendor_alert_id, alert_data,
        thumbnail_url, video_clip_url, detection_count, assignee_id, assigned_at,
        sla_breach, sla_breach_reason, first_response_seconds, resolution_seconds,
        version, created_at, updated_at`

func (s *PgStore) CreateTicket(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (` + ticketColumns + `)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23)`
	ticket.Version = 1
	_, err := s.q.Exec(ctx, query,
		ticket.ID,
		ticket.TicketNumber,
		ticket.Title,
		ticket.Description,
		ticket.Severity,
		ticket.Status,
		ticket.CameraID,
		ticket.OrganizationID,
		ticket.ProviderID,
		ticket.VendorAlertID,
		rawJSON(ticket.AlertData),
		ticket.ThumbnailURL,
		ticket.VideoClipURL,
		ticket.DetectionCount,
		ticket.AssigneeID,
		ticket.AssignedAt,
		ticket.SLABreach,
		ticket.SLABreachReason,
		ticket.FirstResponseSeconds,
		ticket.ResolutionSeconds,
		ticket.Version,
		ticket.CreatedAt,
		ticket.UpdatedAt,
	)
	if err != nil {
		return apperrors.NewStoreUnavailable(err)
	}
	return nil
}

func (s *PgStore) GetTicket(ctx context.Context, id string) (*domain.Ticket, error) {
	const query = `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1`
	ticket, err := scanTicket(s.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": id})
		}
		return nil, apperrors.NewStoreUnavailable(err)
	}
	return ticket, nil
}

// UpdateTicket persists a mutated ticket, asserting its version. A version
// mismatch on an existing row means a concurrent writer got there first.
func (s *PgStore) UpdateTicket(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET status=$1, assignee_id=$2, assigned_at=$3, sla_breach=$4,
            sla_breach_reason=$5, first_response_seconds=$6, resolution_seconds=$7,
            version=version+1, updated_at=$8
        WHERE id=$9 AND version=$10`
	cmd, err := s.q.Exec(ctx, query,
		ticket.Status,
		ticket.AssigneeID,
		ticket.AssignedAt,
		ticket.SLABreach,
		ticket.SLABreachReason,
		ticket.FirstResponseSeconds,
		ticket.ResolutionSeconds,
		ticket.UpdatedAt,
		ticket.ID,
		ticket.Version,
	)
	if err != nil {
		return apperrors.NewStoreUnavailable(err)
	}
	if cmd.RowsAffected() == 0 {
		var exists bool
		if err := s.q.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM tickets WHERE id=$1)`, ticket.ID).Scan(&exists); err != nil {
			return apperrors.NewStoreUnavailable(err)
		}
		if exists {
			return apperrors.NewConflict("ticket modified concurrently",
				map[string]any{"ticket_id": ticket.ID})
		}
		return apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticket.ID})
	}
	ticket.Version++
	return nil
}

func (s *PgStore) AppendComment(ctx context.Context, comment *domain.TicketComment) error {
	const query = `
        INSERT INTO ticket_comments (id, ticket_id, comment, is_internal, created_at)
        VALUES ($1,$2,$3,$4,$5)`
	_, err := s.q.Exec(ctx, query,
		comment.ID,
		comment.TicketID,
		comment.Comment,
		comment.IsInternal,
		comment.CreatedAt,
	)
	if err != nil {
		return apperrors.NewStoreUnavailable(err)
	}
	return nil
}

func (s *PgStore) AppendHistory(ctx context.Context, entry *domain.TicketStateHistory) error {
	const query = `
        INSERT INTO ticket_state_history (id, ticket_id, old_status, new_status, changed_at)
        VALUES ($1,$2,$3,$4,$5)`
	_, err := s.q.Exec(ctx, query,
		entry.ID,
		entry.TicketID,
		entry.OldStatus,
		entry.NewStatus,
		entry.ChangedAt,
	)
	if err != nil {
		return apperrors.NewStoreUnavailable(err)
	}
	return nil
}

func (s *PgStore) ListComments(ctx context.Context, ticketID string) ([]domain.TicketComment, error) {
	const query = `
        SELECT id, ticket_id, comment, is_internal, created_at
        FROM ticket_comments WHERE ticket_id=$1 ORDER BY created_at ASC`
	rows, err := s.q.Query(ctx, query, ticketID)
	if err != nil {
		return nil, apperrors.NewStoreUnavailable(err)
	}
	defer rows.Close()

	var result []domain.TicketComment
	for rows.Next() {
		var comment domain.TicketComment
		if err := rows.Scan(
			&comment.ID,
			&comment.TicketID,
			&comment.Comment,
			&comment.IsInternal,
			&comment.CreatedAt,
		); err != nil {
			return nil, apperrors.NewStoreUnavailable(err)
		}
		result = append(result, comment)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStoreUnavailable(err)
	}
	return result, nil
}

func (s *PgStore) ListHistory(ctx context.Context, ticketID string) ([]domain.TicketStateHistory, error) {
	const query = `
        SELECT id, ticket_id, old_status, new_status, changed_at
        FROM ticket_state_history WHERE ticket_id=$1 ORDER BY changed_at ASC`
	rows, err := s.q.Query(ctx, query, ticketID)
	if err != nil {
		return nil, apperrors.NewStoreUnavailable(err)
	}
	defer rows.Close()

	var result []domain.TicketStateHistory
	for rows.Next() {
		var entry domain.TicketStateHistory
		if err := rows.Scan(
			&entry.ID,
			&entry.TicketID,
			&entry.OldStatus,
			&entry.NewStatus,
			&entry.ChangedAt,
		); err != nil {
			return nil, apperrors.NewStoreUnavailable(err)
		}
		result = append(result, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStoreUnavailable(err)
	}
	return result, nil
}

func (s *PgStore) ListTickets(ctx context.Context, filter TicketListFilter) ([]domain.Ticket, error) {
	base := `SELECT ` + ticketColumns + ` FROM tickets`
	clauses := []string{"1=1"}
	args := []any{}

	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("status=$%d", len(args)))
	}
	if filter.Severity != nil {
		args = append(args, *filter.Severity)
		clauses = append(clauses, fmt.Sprintf("severity=$%d", len(args)))
	}
	if filter.CameraID != nil {
		args = append(args, *filter.CameraID)
		clauses = append(clauses, fmt.Sprintf("camera_id=$%d", len(args)))
	}
	if filter.OrganizationID != nil {
		args = append(args, *filter.OrganizationID)
		clauses = append(clauses, fmt.Sprintf("organization_id=$%d", len(args)))
	}
	if filter.AssigneeID != nil {
		args = append(args, *filter.AssigneeID)
		clauses = append(clauses, fmt.Sprintf("assignee_id=$%d", len(args)))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := s.q.Query(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewStoreUnavailable(err)
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (s *PgStore) ListActiveTicketIDs(ctx context.Context) ([]string, error) {
	const query = `
        SELECT id FROM tickets
        WHERE status NOT IN ('resolved','closed','false_positive')
        ORDER BY created_at ASC`
	rows, err := s.q.Query(ctx, query)
	if err != nil {
		return nil, apperrors.NewStoreUnavailable(err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, apperrors.NewStoreUnavailable(err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStoreUnavailable(err)
	}
	return ids, nil
}

// Atomic runs fn inside one transaction. Errors returned by fn roll the unit
// back and pass through unchanged; begin/commit failures surface as
// store-unavailable.
func (s *PgStore) Atomic(ctx context.Context, fn func(Store) error) error {
	if s.pool == nil {
		// already inside a transaction
		return fn(s)
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return apperrors.NewStoreUnavailable(err)
	}
	txStore := &PgStore{q: tx}
	if err := fn(txStore); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return apperrors.NewStoreUnavailable(err)
	}
	return nil
}

func rawJSON(data json.RawMessage) any {
	if len(data) == 0 {
		return nil
	}
	return []byte(data)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTicket(row rowScanner) (*domain.Ticket, error) {
	var ticket domain.Ticket
	var alertData []byte
	if err := row.Scan(
		&ticket.ID,
		&ticket.TicketNumber,
		&ticket.Title,
		&ticket.Description,
		&ticket.Severity,
		&ticket.Status,
		&ticket.CameraID,
		&ticket.OrganizationID,
		&ticket.ProviderID,
		&ticket.VendorAlertID,
		&alertData,
		&ticket.ThumbnailURL,
		&ticket.VideoClipURL,
		&ticket.DetectionCount,
		&ticket.AssigneeID,
		&ticket.AssignedAt,
		&ticket.SLABreach,
		&ticket.SLABreachReason,
		&ticket.FirstResponseSeconds,
		&ticket.ResolutionSeconds,
		&ticket.Version,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	); err != nil {
		return nil, err
	}
	ticket.AlertData = alertData
	return &ticket, nil
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, apperrors.NewStoreUnavailable(err)
		}
		result = append(result, *ticket)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStoreUnavailable(err)
	}
	return result, nil
}
