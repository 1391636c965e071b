package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

const ticketColumns = `id, title, description, status, category_id, creator_id, assignee_id,
               escalation_level, resolution_due_at, metadata, created_at, updated_at`

// TicketFilter captures dashboard search parameters.
type TicketFilter struct {
	CreatorID     *string
	CategoryID    *string
	AssigneeID    *string
	Statuses      []domain.TicketStatus
	EscalatedOnly bool
	SearchTerm    *string
	CreatedFrom   *time.Time
	CreatedTo     *time.Time
	Limit         int
	Offset        int
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	ListByCreator(ctx context.Context, creatorID string, limit, offset int) ([]domain.Ticket, error)
	ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	ListEscalatable(ctx context.Context) ([]domain.Ticket, error)
	ApplyEscalation(ctx context.Context, ticketID string, fromLevel, toLevel int, assigneeID *string) (bool, error)
	ResetEscalation(ctx context.Context, ticketID string) error
	UpdateTAT(ctx context.Context, ticketID string, dueAt *time.Time, metadata map[string]any) error
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (title, description, status, category_id, creator_id, assignee_id,
                             escalation_level, resolution_due_at, metadata)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		ticket.Title,
		ticket.Description,
		ticket.Status,
		ticket.CategoryID,
		ticket.CreatorID,
		ticket.AssigneeID,
		ticket.EscalationLevel,
		ticket.ResolutionDueAt,
		ticket.Metadata,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET title=$1, description=$2, status=$3, category_id=$4, assignee_id=$5,
            escalation_level=$6, resolution_due_at=$7, metadata=$8, updated_at=NOW()
        WHERE id=$9`
	cmd, err := r.pool.Exec(ctx, query,
		ticket.Title,
		ticket.Description,
		ticket.Status,
		ticket.CategoryID,
		ticket.AssigneeID,
		ticket.EscalationLevel,
		ticket.ResolutionDueAt,
		ticket.Metadata,
		ticket.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE id=$1`, ticketColumns)

	var ticket domain.Ticket
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&ticket.ID,
		&ticket.Title,
		&ticket.Description,
		&ticket.Status,
		&ticket.CategoryID,
		&ticket.CreatorID,
		&ticket.AssigneeID,
		&ticket.EscalationLevel,
		&ticket.ResolutionDueAt,
		&ticket.Metadata,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) ListByCreator(ctx context.Context, creatorID string, limit, offset int) ([]domain.Ticket, error) {
	filter := TicketFilter{
		CreatorID: &creatorID,
		Limit:     limit,
		Offset:    offset,
	}
	return r.ListWithFilter(ctx, filter)
}

func (r *ticketRepository) ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	base := fmt.Sprintf(`SELECT %s FROM tickets`, ticketColumns)
	clauses := []string{"1=1"}
	args := []any{}

	if filter.CreatorID != nil {
		args = append(args, *filter.CreatorID)
		clauses = append(clauses, fmt.Sprintf("creator_id=$%d", len(args)))
	}
	if filter.CategoryID != nil {
		args = append(args, *filter.CategoryID)
		clauses = append(clauses, fmt.Sprintf("category_id=$%d", len(args)))
	}
	if filter.AssigneeID != nil {
		args = append(args, *filter.AssigneeID)
		clauses = append(clauses, fmt.Sprintf("assignee_id=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.EscalatedOnly {
		clauses = append(clauses, "escalation_level > 0")
	}
	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.CreatedTo != nil {
		args = append(args, *filter.CreatedTo)
		clauses = append(clauses, fmt.Sprintf("created_at <= $%d", len(args)))
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.SearchTerm)) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(LOWER(title) LIKE %s OR LOWER(description) LIKE %s)", placeholder, placeholder))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY updated_at DESC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

// ListEscalatable narrows to tickets the escalation runner can act on:
// non-terminal status with a resolution deadline set.
func (r *ticketRepository) ListEscalatable(ctx context.Context) ([]domain.Ticket, error) {
	query := fmt.Sprintf(`
        SELECT %s FROM tickets
        WHERE status NOT IN ($1,$2) AND resolution_due_at IS NOT NULL`, ticketColumns)

	rows, err := r.pool.Query(ctx, query, domain.TicketStatusResolved, domain.TicketStatusClosed)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

// ApplyEscalation performs the guarded single-row escalation write.
// The escalation_level predicate makes the write idempotent under
// overlapping runs: false with a nil error means the stored level
// already moved and nothing was changed.
func (r *ticketRepository) ApplyEscalation(ctx context.Context, ticketID string, fromLevel, toLevel int, assigneeID *string) (bool, error) {
	const query = `
        UPDATE tickets
        SET escalation_level=$1, assignee_id=$2,
            metadata = COALESCE(metadata, '{}'::jsonb) || jsonb_build_object('last_escalated_at', to_jsonb(NOW())),
            updated_at=NOW()
        WHERE id=$3 AND escalation_level=$4`
	cmd, err := r.pool.Exec(ctx, query, toLevel, assigneeID, ticketID, fromLevel)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

// ResetEscalation is the one sanctioned level decrease, an admin
// action outside the runner.
func (r *ticketRepository) ResetEscalation(ctx context.Context, ticketID string) error {
	const query = `UPDATE tickets SET escalation_level=0, updated_at=NOW() WHERE id=$1`
	cmd, err := r.pool.Exec(ctx, query, ticketID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// UpdateTAT writes the resolution deadline and merges TAT facts into
// the metadata mapping.
func (r *ticketRepository) UpdateTAT(ctx context.Context, ticketID string, dueAt *time.Time, metadata map[string]any) error {
	const query = `
        UPDATE tickets
        SET resolution_due_at=$1,
            metadata = COALESCE(metadata, '{}'::jsonb) || $2,
            updated_at=NOW()
        WHERE id=$3`
	cmd, err := r.pool.Exec(ctx, query, dueAt, metadata, ticketID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := rows.Scan(
			&ticket.ID,
			&ticket.Title,
			&ticket.Description,
			&ticket.Status,
			&ticket.CategoryID,
			&ticket.CreatorID,
			&ticket.AssigneeID,
			&ticket.EscalationLevel,
			&ticket.ResolutionDueAt,
			&ticket.Metadata,
			&ticket.CreatedAt,
			&ticket.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}
