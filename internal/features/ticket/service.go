package ticket

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"crm-support/internal/common/apperr"
	"crm-support/internal/common/models"
	"crm-support/internal/email"
	"crm-support/internal/features/complaint"
	"crm-support/internal/features/user"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Actor identifies the authenticated caller of a ticket operation.
type Actor struct {
	ID    primitive.ObjectID
	Name  string
	Email string
	Role  models.Role
}

// CreateTicketRequest carries the staff input for opening a ticket against a
// pending complaint.
type CreateTicketRequest struct {
	Title         string         `json:"title"`
	Description   string         `json:"description"`
	Priority      TicketPriority `json:"priority"`
	AssignedTo    string         `json:"assigned_to"`
	CustomerEmail string         `json:"customer_email"`
}

// TicketService owns the ticket state machine and its authorization rules.
type TicketService interface {
	CreateTicket(ctx context.Context, actor Actor, req CreateTicketRequest) (*Ticket, error)
	GetTicket(ctx context.Context, actor Actor, id string) (*Ticket, error)
	ListTickets(ctx context.Context, status TicketStatus, sortBy string) ([]Ticket, error)
	AssignedTickets(ctx context.Context, actor Actor) ([]Ticket, error)
	CustomerTickets(ctx context.Context, actor Actor) ([]Ticket, error)

	AdminUpdate(ctx context.Context, actor Actor, id string, status TicketStatus, assignedTo string) (*Ticket, error)
	StartProgress(ctx context.Context, actor Actor, id string) (*Ticket, error)
	Resolve(ctx context.Context, actor Actor, id string) (*Ticket, error)
	Close(ctx context.Context, actor Actor, id string, code string) (*Ticket, error)
	DeleteTicket(ctx context.Context, actor Actor, id string) error
}

type TicketServiceImpl struct {
	TicketRepo    TicketRepository
	ComplaintRepo complaint.ComplaintRepository
	UserRepo      user.UserRepository
	Mailer        email.Mailer
	Logger        *zap.Logger

	locks *keyedMutex

	// newCode mints the 4-digit close verification code; swapped out in tests.
	newCode func() string
}

func NewTicketService(
	ticketRepo TicketRepository,
	complaintRepo complaint.ComplaintRepository,
	userRepo user.UserRepository,
	mailer email.Mailer,
	logger *zap.Logger,
) TicketService {
	return &TicketServiceImpl{
		TicketRepo:    ticketRepo,
		ComplaintRepo: complaintRepo,
		UserRepo:      userRepo,
		Mailer:        mailer,
		Logger:        logger,
		locks:         newKeyedMutex(),
		newCode:       randomCloseCode,
	}
}

// randomCloseCode returns a uniformly distributed 4-digit code. This is a
// short-lived human-relayed confirmation, not a security credential, so
// math/rand is sufficient.
func randomCloseCode() string {
	return fmt.Sprintf("%d", 1000+rand.Intn(9000))
}

// CreateTicket opens a ticket against the customer's most recent Pending
// complaint, snapshots the complaint's contact details onto the ticket and
// marks the complaint as Ticket Created.
func (s *TicketServiceImpl) CreateTicket(ctx context.Context, actor Actor, req CreateTicketRequest) (*Ticket, error) {
	if req.Title == "" || req.CustomerEmail == "" || req.AssignedTo == "" {
		return nil, fmt.Errorf("title, customer_email and assigned_to are required")
	}
	if req.Priority == "" {
		req.Priority = TicketPriorityMedium
	}
	if !ValidPriority(req.Priority) {
		return nil, fmt.Errorf("unknown priority %q", req.Priority)
	}

	assignee, err := primitive.ObjectIDFromHex(req.AssignedTo)
	if err != nil {
		return nil, fmt.Errorf("technician %q: %w", req.AssignedTo, apperr.ErrNotFound)
	}

	pending, err := s.ComplaintRepo.FindPendingByEmail(ctx, req.CustomerEmail)
	if err != nil {
		return nil, err
	}

	t := &Ticket{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		Status:      TicketStatusOpen,
		AssignedTo:  assignee,
		CreatedBy:   actor.ID,
		Customer: CustomerRef{
			ComplaintID: pending.ID,
			Name:        pending.Name,
			Email:       pending.Email,
			Phone:       pending.Phone,
		},
		CustomerComplaint: pending.ID,
		History: []HistoryEntry{
			{
				Status:    TicketStatusOpen,
				UpdatedBy: actor.ID,
				UpdatedAt: time.Now(),
				Note:      "Ticket created",
			},
		},
	}

	if err := s.TicketRepo.Create(ctx, t); err != nil {
		return nil, err
	}

	if err := s.ComplaintRepo.SetStatus(ctx, pending.ID, complaint.StatusTicketCreated); err != nil {
		s.Logger.Error("failed to mark complaint as ticket created",
			zap.String("complaint_id", pending.ID.Hex()),
			zap.Error(err),
		)
	}

	if technician, err := s.UserRepo.FindByID(ctx, assignee.Hex()); err == nil {
		s.Mailer.Dispatch(
			technician.Email,
			fmt.Sprintf("New Ticket Assigned: %s", t.Title),
			fmt.Sprintf("Hi %s,\n\nYou have been assigned a new ticket:\n\nTitle: %s\nCustomer: %s (%s)\n\nThanks", technician.Name, t.Title, pending.Name, pending.Email),
		)
	}

	s.Mailer.Dispatch(
		pending.Email,
		fmt.Sprintf("Ticket Created: %s", t.Title),
		fmt.Sprintf("Hi %s,\n\nYour ticket has been created successfully.\n\nThanks", pending.Name),
	)

	return t, nil
}

// GetTicket returns a single ticket subject to ownership rules: staff and
// admin see any ticket, a technician only assigned ones, a customer only
// tickets carrying their own snapshot.
func (s *TicketServiceImpl) GetTicket(ctx context.Context, actor Actor, id string) (*Ticket, error) {
	t, err := s.findByHex(ctx, id)
	if err != nil {
		return nil, err
	}

	switch actor.Role {
	case models.RoleAdmin, models.RoleStaff:
	case models.RoleTechnician:
		if t.AssignedTo != actor.ID {
			return nil, fmt.Errorf("not authorized to view this ticket: %w", apperr.ErrForbidden)
		}
	case models.RoleCustomer:
		if t.Customer.Email != actor.Email {
			return nil, fmt.Errorf("not authorized to view this ticket: %w", apperr.ErrForbidden)
		}
	default:
		return nil, fmt.Errorf("unknown role %q: %w", actor.Role, apperr.ErrForbidden)
	}

	return t, nil
}

func (s *TicketServiceImpl) ListTickets(ctx context.Context, status TicketStatus, sortBy string) ([]Ticket, error) {
	if status != "" && !ValidStatus(status) {
		return nil, fmt.Errorf("unknown status %q", status)
	}
	return s.TicketRepo.FindAll(ctx, status, sortBy)
}

func (s *TicketServiceImpl) AssignedTickets(ctx context.Context, actor Actor) ([]Ticket, error) {
	return s.TicketRepo.FindByAssignee(ctx, actor.ID)
}

func (s *TicketServiceImpl) CustomerTickets(ctx context.Context, actor Actor) ([]Ticket, error) {
	return s.TicketRepo.FindByCustomerEmail(ctx, actor.Email)
}

// AdminUpdate changes the assignee and/or the status in one shot. Exactly one
// history entry is appended covering whichever fields changed; the newly
// assigned technician is notified only when the assignee actually changed.
func (s *TicketServiceImpl) AdminUpdate(ctx context.Context, actor Actor, id string, status TicketStatus, assignedTo string) (*Ticket, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	t, err := s.findByHex(ctx, id)
	if err != nil {
		return nil, err
	}

	changed := false
	assignedChanged := false
	resolvedNow := false

	if status != "" && status != t.Status {
		// Closing demands the customer's verification code, which only the
		// close operation checks.
		if status == TicketStatusClosed {
			return nil, fmt.Errorf("tickets are closed with a verification code, not a status update: %w", apperr.ErrInvalidState)
		}
		next, err := Transition(t.Status, status)
		if err != nil {
			return nil, err
		}
		t.Status = next
		changed = true
		if next == TicketStatusResolved {
			now := time.Now()
			t.ResolvedAt = &now
			t.CloseCode = s.newCode()
			resolvedNow = true
		}
	}

	if assignedTo != "" {
		assignee, err := primitive.ObjectIDFromHex(assignedTo)
		if err != nil {
			return nil, fmt.Errorf("technician %q: %w", assignedTo, apperr.ErrNotFound)
		}
		if assignee != t.AssignedTo {
			t.AssignedTo = assignee
			changed = true
			assignedChanged = true
		}
	}

	if !changed {
		return t, nil
	}

	t.History = append(t.History, HistoryEntry{
		Status:    t.Status,
		UpdatedBy: actor.ID,
		UpdatedAt: time.Now(),
	})

	if err := s.TicketRepo.Save(ctx, t); err != nil {
		return nil, err
	}

	if assignedChanged {
		if technician, err := s.UserRepo.FindByID(ctx, t.AssignedTo.Hex()); err == nil {
			s.Mailer.Dispatch(
				technician.Email,
				fmt.Sprintf("New Ticket Assigned: %s", t.Title),
				fmt.Sprintf("Hi %s,\n\nYou have been assigned a ticket titled %q.\n\nPlease check and proceed accordingly.\n\nThanks", technician.Name, t.Title),
			)
		}
	}

	if resolvedNow {
		s.sendResolvedMail(ctx, t, actor.Name)
	}

	return t, nil
}

// StartProgress moves an open ticket to in-progress. Only the assigned
// technician may do this.
func (s *TicketServiceImpl) StartProgress(ctx context.Context, actor Actor, id string) (*Ticket, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	t, err := s.findByHex(ctx, id)
	if err != nil {
		return nil, err
	}

	if t.AssignedTo != actor.ID {
		return nil, fmt.Errorf("not authorized to update this ticket: %w", apperr.ErrForbidden)
	}

	next, err := Transition(t.Status, TicketStatusInProgress)
	if err != nil {
		return nil, err
	}
	t.Status = next

	t.History = append(t.History, HistoryEntry{
		Status:    TicketStatusInProgress,
		UpdatedBy: actor.ID,
		UpdatedAt: time.Now(),
		Note:      "Marked as in-progress by technician",
	})

	if err := s.TicketRepo.Save(ctx, t); err != nil {
		return nil, err
	}

	return t, nil
}

// Resolve moves an in-progress ticket to resolved, mints the one-time close
// verification code, mails it to the customer and sends a code-free notice
// to the ticket creator.
func (s *TicketServiceImpl) Resolve(ctx context.Context, actor Actor, id string) (*Ticket, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	t, err := s.findByHex(ctx, id)
	if err != nil {
		return nil, err
	}

	if t.AssignedTo != actor.ID {
		return nil, fmt.Errorf("not authorized to resolve this ticket: %w", apperr.ErrForbidden)
	}

	next, err := Transition(t.Status, TicketStatusResolved)
	if err != nil {
		return nil, err
	}
	t.Status = next

	now := time.Now()
	t.ResolvedAt = &now
	t.CloseCode = s.newCode()

	t.History = append(t.History, HistoryEntry{
		Status:    TicketStatusResolved,
		UpdatedBy: actor.ID,
		UpdatedAt: now,
	})

	if err := s.TicketRepo.Save(ctx, t); err != nil {
		return nil, err
	}

	s.sendResolvedMail(ctx, t, actor.Name)

	return t, nil
}

// sendResolvedMail notifies both sides of a freshly resolved ticket. The
// code goes to the customer only; the creator gets a code-free notice and
// has to obtain the code out-of-band before closing.
func (s *TicketServiceImpl) sendResolvedMail(ctx context.Context, t *Ticket, resolvedBy string) {
	s.Mailer.Dispatch(
		t.Customer.Email,
		fmt.Sprintf("Your Complaint Resolved: %s", t.Title),
		fmt.Sprintf("Hi %s,\n\nYour complaint associated with the ticket titled %q has been marked as resolved.\n\nYour verification code is: %s\n\nShare it with our staff to confirm and close the ticket.\n\nThanks", t.Customer.Name, t.Title, t.CloseCode),
	)

	if creator, err := s.UserRepo.FindByID(ctx, t.CreatedBy.Hex()); err == nil {
		s.Mailer.Dispatch(
			creator.Email,
			fmt.Sprintf("Ticket Resolved: %s", t.Title),
			fmt.Sprintf("Hi %s,\n\nThe ticket you created has been marked as resolved by %s.\n\nTitle: %s\nDescription: %s\n\nThanks", creator.Name, resolvedBy, t.Title, t.Description),
		)
	}
}

// Close finalizes a resolved ticket. Only the creator may close, and only
// with the exact code the customer received. A successful close clears the
// code and propagates Closed to the linked complaint.
func (s *TicketServiceImpl) Close(ctx context.Context, actor Actor, id string, code string) (*Ticket, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	t, err := s.findByHex(ctx, id)
	if err != nil {
		return nil, err
	}

	if t.CreatedBy != actor.ID {
		return nil, fmt.Errorf("not authorized to close this ticket: %w", apperr.ErrForbidden)
	}

	next, err := Transition(t.Status, TicketStatusClosed)
	if err != nil {
		return nil, err
	}

	if code == "" || t.CloseCode == "" || code != t.CloseCode {
		return nil, fmt.Errorf("verification code missing or incorrect: %w", apperr.ErrInvalidCode)
	}

	t.Status = next
	t.CloseCode = ""
	now := time.Now()
	t.ClosedAt = &now

	t.History = append(t.History, HistoryEntry{
		Status:    TicketStatusClosed,
		UpdatedBy: actor.ID,
		UpdatedAt: now,
	})

	if err := s.TicketRepo.Save(ctx, t); err != nil {
		return nil, err
	}

	if err := s.ComplaintRepo.SetStatus(ctx, t.CustomerComplaint, complaint.StatusClosed); err != nil {
		s.Logger.Error("failed to close linked complaint",
			zap.String("complaint_id", t.CustomerComplaint.Hex()),
			zap.Error(err),
		)
	}

	closedBody := fmt.Sprintf("Hi,\n\nThe ticket titled %q is now closed.\n\nThanks", t.Title)

	if creator, err := s.UserRepo.FindByID(ctx, t.CreatedBy.Hex()); err == nil {
		s.Mailer.Dispatch(creator.Email, fmt.Sprintf("Ticket Closed: %s", t.Title), closedBody)
	}
	if assignee, err := s.UserRepo.FindByID(ctx, t.AssignedTo.Hex()); err == nil {
		s.Mailer.Dispatch(assignee.Email, fmt.Sprintf("Ticket Closed: %s", t.Title), closedBody)
	}
	s.Mailer.Dispatch(t.Customer.Email, fmt.Sprintf("Ticket Closed: %s", t.Title), closedBody)

	return t, nil
}

// DeleteTicket removes a ticket permanently. Route middleware restricts this
// to admins; no complaint update cascades from a delete.
func (s *TicketServiceImpl) DeleteTicket(ctx context.Context, actor Actor, id string) error {
	unlock := s.locks.Lock(id)
	defer unlock()

	t, err := s.findByHex(ctx, id)
	if err != nil {
		return err
	}

	return s.TicketRepo.Delete(ctx, t.ID)
}

func (s *TicketServiceImpl) findByHex(ctx context.Context, id string) (*Ticket, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("ticket %q: %w", id, apperr.ErrNotFound)
	}
	return s.TicketRepo.FindByID(ctx, objID)
}
