package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	"github.com/spec-kit/helpdesk-service/internal/tat"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// TicketService coordinates ticket workflows: CRUD, status
// transitions, and the TAT lifecycle.
type TicketService struct {
	tickets    repository.TicketRepository
	categories repository.CategoryRepository
	ticketLog  repository.TicketEventRepository
	dispatcher events.Dispatcher
}

// TicketDependencies bundles repositories for ticket service.
type TicketDependencies struct {
	TicketRepo   repository.TicketRepository
	CategoryRepo repository.CategoryRepository
	EventRepo    repository.TicketEventRepository
	Dispatcher   events.Dispatcher
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	CategoryID  string
	Title       string
	Description string
}

// TicketListInput describes listing filters.
type TicketListInput struct {
	Statuses      []domain.TicketStatus
	EscalatedOnly bool
	SearchTerm    *string
	CreatedFrom   *time.Time
	CreatedTo     *time.Time
	Limit         int
	Offset        int
}

// SetTATInput describes a TAT assignment.
type SetTATInput struct {
	DueAt    time.Time
	Duration string
}

// ExtendTATInput describes a TAT extension.
type ExtendTATInput struct {
	NewDueAt time.Time
	Reason   string
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:    deps.TicketRepo,
		categories: deps.CategoryRepo,
		ticketLog:  deps.EventRepo,
		dispatcher: deps.Dispatcher,
	}
}

// CreateTicket files a new ticket for a student.
func (s *TicketService) CreateTicket(ctx context.Context, actor *domain.User, input TicketCreateInput) (*domain.Ticket, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("account required")
	}
	if strings.TrimSpace(input.Title) == "" || strings.TrimSpace(input.Description) == "" {
		return nil, apperrors.NewValidationError("title and description required", nil)
	}

	category, err := s.categories.GetByID(ctx, input.CategoryID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("category", map[string]any{"category_id": input.CategoryID})
		}
		return nil, apperrors.MapError(err)
	}
	if !category.IsActive {
		return nil, apperrors.NewConflict("category inactive", map[string]any{"category_id": category.ID})
	}

	ticket := &domain.Ticket{
		Title:       strings.TrimSpace(input.Title),
		Description: input.Description,
		Status:      domain.TicketStatusOpen,
		CategoryID:  category.ID,
		CreatorID:   actor.ID,
		AssigneeID:  category.OwnerCommitteeID,
		Metadata:    map[string]any{},
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publish(ctx, actor.ID, events.EventTicketCreated, ticket.ID, events.TicketCreatedPayload{
		CategoryID: ticket.CategoryID,
		Title:      ticket.Title,
	})
	return ticket, nil
}

// GetTicket loads a ticket the actor may see.
func (s *TicketService) GetTicket(ctx context.Context, actor *domain.User, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !canAccess(actor, ticket) {
		return nil, apperrors.NewForbidden("access denied")
	}
	return ticket, nil
}

// ListTickets returns the actor's role-scoped ticket view: students see
// their own tickets, committee members their assigned queue, admins
// everything.
func (s *TicketService) ListTickets(ctx context.Context, actor *domain.User, input TicketListInput) ([]domain.Ticket, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("account required")
	}
	filter := repository.TicketFilter{
		Statuses:      input.Statuses,
		EscalatedOnly: input.EscalatedOnly,
		SearchTerm:    input.SearchTerm,
		CreatedFrom:   input.CreatedFrom,
		CreatedTo:     input.CreatedTo,
		Limit:         input.Limit,
		Offset:        input.Offset,
	}
	switch actor.Role {
	case domain.RoleStudent:
		filter.CreatorID = &actor.ID
	case domain.RoleCommittee:
		filter.AssigneeID = &actor.ID
	}
	tickets, err := s.tickets.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}

// UpdateStatus transitions a ticket's status and records the change.
func (s *TicketService) UpdateStatus(ctx context.Context, actor *domain.User, ticketID string, newStatus domain.TicketStatus, comment string) (*domain.Ticket, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("account required")
	}
	if !validStatus(newStatus) {
		return nil, apperrors.NewValidationError("unknown status", map[string]any{"status": newStatus})
	}

	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !auth.IsStaff(actor.Role) {
		if ticket.CreatorID != actor.ID {
			return nil, apperrors.NewForbidden("access denied")
		}
		// Students may only close their own tickets.
		if newStatus != domain.TicketStatusClosed {
			return nil, apperrors.NewForbidden("students may only close their own tickets")
		}
	}
	if ticket.Status == newStatus {
		return ticket, nil
	}

	oldStatus := ticket.Status
	ticket.Status = newStatus
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	if err := s.record(ctx, actor.ID, ticket.ID, domain.ChangeTypeStatus,
		map[string]any{"status": oldStatus},
		map[string]any{"status": newStatus},
	); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publish(ctx, actor.ID, events.EventTicketStatusChanged, ticket.ID, events.TicketStatusChangedPayload{
		OldStatus: oldStatus,
		NewStatus: newStatus,
		Comment:   comment,
	})
	return ticket, nil
}

// SetTAT stamps the resolution deadline and the who/when/how-long
// facts onto the ticket. Committee and admin roles only.
func (s *TicketService) SetTAT(ctx context.Context, actor *domain.User, ticketID string, input SetTATInput) (*domain.Ticket, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.Status.IsTerminal() {
		return nil, apperrors.NewConflict("ticket already closed", map[string]any{"status": ticket.Status})
	}

	setAt := time.Now().UTC()
	meta := map[string]any{
		"tat_set_at":   setAt.Format(time.RFC3339),
		"tat_set_by":   actor.ID,
		"tat_duration": input.Duration,
	}
	if err := s.tickets.UpdateTAT(ctx, ticket.ID, &input.DueAt, meta); err != nil {
		return nil, apperrors.MapError(err)
	}

	oldDue := ticket.ResolutionDueAt
	ticket.ResolutionDueAt = &input.DueAt
	mergeMetadata(ticket, meta)

	if err := s.record(ctx, actor.ID, ticket.ID, domain.ChangeTypeTATSet,
		map[string]any{"resolution_due_at": oldDue},
		map[string]any{"resolution_due_at": input.DueAt, "tat_duration": input.Duration},
	); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publish(ctx, actor.ID, events.EventTicketTATSet, ticket.ID, events.TicketTATSetPayload{
		DueAt:    input.DueAt,
		Duration: input.Duration,
	})
	return ticket, nil
}

// ExtendTAT moves the deadline forward and appends an extension record
// to the ticket's TAT history.
func (s *TicketService) ExtendTAT(ctx context.Context, actor *domain.User, ticketID string, input ExtendTATInput) (*domain.Ticket, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.Status.IsTerminal() {
		return nil, apperrors.NewConflict("ticket already closed", map[string]any{"status": ticket.Status})
	}
	if ticket.ResolutionDueAt == nil {
		return nil, apperrors.NewConflict("no TAT set", map[string]any{"ticket_id": ticket.ID})
	}

	oldDue := ticket.ResolutionDueAt
	extendedAt := time.Now().UTC()
	record := map[string]any{
		"extended_at": extendedAt.Format(time.RFC3339),
		"extended_by": actor.ID,
		"old_due_at":  oldDue.Format(time.RFC3339),
		"new_due_at":  input.NewDueAt.Format(time.RFC3339),
		"reason":      input.Reason,
	}

	// Rebuild the full extension list from the canonical view so a
	// legacy camelCase row comes out normalized.
	history := tat.NormalizeMetadata(ticket.Metadata)
	extensions := make([]any, 0, len(history.Extensions)+1)
	for _, ext := range history.Extensions {
		extensions = append(extensions, extensionRecord(ext))
	}
	extensions = append(extensions, record)

	meta := map[string]any{"tat_extensions": extensions}
	if err := s.tickets.UpdateTAT(ctx, ticket.ID, &input.NewDueAt, meta); err != nil {
		return nil, apperrors.MapError(err)
	}
	ticket.ResolutionDueAt = &input.NewDueAt
	mergeMetadata(ticket, meta)

	if err := s.record(ctx, actor.ID, ticket.ID, domain.ChangeTypeTATExtend,
		map[string]any{"resolution_due_at": oldDue},
		map[string]any{"resolution_due_at": input.NewDueAt, "reason": input.Reason},
	); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publish(ctx, actor.ID, events.EventTicketTATExtended, ticket.ID, events.TicketTATExtendedPayload{
		OldDueAt: oldDue,
		NewDueAt: input.NewDueAt,
		Reason:   input.Reason,
	})
	return ticket, nil
}

// ResetEscalation zeroes a ticket's escalation level. This is the one
// sanctioned decrease and requires an admin.
func (s *TicketService) ResetEscalation(ctx context.Context, actor *domain.User, ticketID string) (*domain.Ticket, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("account required")
	}
	if actor.Role != domain.RoleAdmin && actor.Role != domain.RoleSuperAdmin {
		return nil, apperrors.NewForbidden("admin role required")
	}
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.EscalationLevel == 0 {
		return ticket, nil
	}

	oldLevel := ticket.EscalationLevel
	if err := s.tickets.ResetEscalation(ctx, ticket.ID); err != nil {
		return nil, apperrors.MapError(err)
	}
	ticket.EscalationLevel = 0

	if err := s.record(ctx, actor.ID, ticket.ID, domain.ChangeTypeEscalation,
		map[string]any{"escalation_level": oldLevel},
		map[string]any{"escalation_level": 0},
	); err != nil {
		return nil, apperrors.MapError(err)
	}
	return ticket, nil
}

// TATSnapshot computes the on-demand timing view for a ticket.
func (s *TicketService) TATSnapshot(ctx context.Context, actor *domain.User, ticketID string) (*tat.Snapshot, error) {
	ticket, err := s.GetTicket(ctx, actor, ticketID)
	if err != nil {
		return nil, err
	}
	snapshot := tat.ComputeSnapshot(ticket, time.Now())
	return &snapshot, nil
}

// History returns a ticket's audit trail.
func (s *TicketService) History(ctx context.Context, actor *domain.User, ticketID string) ([]domain.TicketEvent, error) {
	if _, err := s.GetTicket(ctx, actor, ticketID); err != nil {
		return nil, err
	}
	entries, err := s.ticketLog.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return entries, nil
}

func (s *TicketService) loadTicket(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}
	return ticket, nil
}

func (s *TicketService) record(ctx context.Context, actorID, ticketID string, changeType domain.TicketChangeType, oldValue, newValue map[string]any) error {
	return s.ticketLog.Create(ctx, &domain.TicketEvent{
		TicketID:      ticketID,
		ChangedByType: domain.ActorTypeUser,
		ChangedByID:   &actorID,
		ChangeType:    changeType,
		OldValue:      oldValue,
		NewValue:      newValue,
	})
}

func (s *TicketService) publish(ctx context.Context, actorID string, eventType events.EventType, ticketID string, payload any) {
	if s.dispatcher == nil {
		return
	}
	event := events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		TicketID:  ticketID,
		Actor:     events.Actor{Type: domain.ActorTypeUser, UserID: &actorID},
		Timestamp: time.Now(),
		Payload:   payload,
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func canAccess(actor *domain.User, ticket *domain.Ticket) bool {
	if actor == nil {
		return false
	}
	if auth.IsStaff(actor.Role) {
		return true
	}
	return ticket.CreatorID == actor.ID
}

func requireStaff(actor *domain.User) error {
	if actor == nil {
		return apperrors.NewUnauthorized("account required")
	}
	if !auth.IsStaff(actor.Role) {
		return apperrors.NewForbidden("staff role required")
	}
	return nil
}

func validStatus(status domain.TicketStatus) bool {
	switch status {
	case domain.TicketStatusOpen, domain.TicketStatusInProgress, domain.TicketStatusResolved,
		domain.TicketStatusClosed, domain.TicketStatusAwaitingStudent:
		return true
	}
	return false
}

func mergeMetadata(ticket *domain.Ticket, meta map[string]any) {
	if ticket.Metadata == nil {
		ticket.Metadata = map[string]any{}
	}
	for key, val := range meta {
		ticket.Metadata[key] = val
	}
}

func extensionRecord(ext tat.Extension) map[string]any {
	record := map[string]any{
		"extended_by": ext.ExtendedBy,
		"reason":      ext.Reason,
	}
	if ext.ExtendedAt != nil {
		record["extended_at"] = ext.ExtendedAt.Format(time.RFC3339)
	}
	if ext.OldDueAt != nil {
		record["old_due_at"] = ext.OldDueAt.Format(time.RFC3339)
	}
	if ext.NewDueAt != nil {
		record["new_due_at"] = ext.NewDueAt.Format(time.RFC3339)
	}
	return record
}
