package complaint

import (
	"context"
	"fmt"

	"crm-support/internal/common/apperr"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ComplaintService interface {
	SubmitComplaint(ctx context.Context, complaint *Complaint) error
	ListComplaints(ctx context.Context) ([]Complaint, error)
	GetComplaint(ctx context.Context, id string) (*Complaint, error)
	CustomerEmails(ctx context.Context) ([]string, error)
	CustomerDetails(ctx context.Context, email string) (name, phone string, err error)
	UpdateStatus(ctx context.Context, id string, status ComplaintStatus) (*Complaint, error)
	DeleteComplaint(ctx context.Context, id string) error
}

type ComplaintServiceImpl struct {
	ComplaintRepo ComplaintRepository
}

func NewComplaintService(complaintRepo ComplaintRepository) ComplaintService {
	return &ComplaintServiceImpl{
		ComplaintRepo: complaintRepo,
	}
}

func (s *ComplaintServiceImpl) SubmitComplaint(ctx context.Context, complaint *Complaint) error {
	if complaint.Name == "" || complaint.Email == "" || complaint.Issue == "" {
		return fmt.Errorf("name, email and issue are required")
	}

	return s.ComplaintRepo.Create(ctx, complaint)
}

func (s *ComplaintServiceImpl) ListComplaints(ctx context.Context) ([]Complaint, error) {
	return s.ComplaintRepo.FindAll(ctx)
}

func (s *ComplaintServiceImpl) GetComplaint(ctx context.Context, id string) (*Complaint, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("complaint %q: %w", id, apperr.ErrNotFound)
	}

	return s.ComplaintRepo.FindByID(ctx, objID)
}

func (s *ComplaintServiceImpl) CustomerEmails(ctx context.Context) ([]string, error) {
	return s.ComplaintRepo.DistinctEmails(ctx)
}

func (s *ComplaintServiceImpl) CustomerDetails(ctx context.Context, email string) (string, string, error) {
	complaint, err := s.ComplaintRepo.FindLatestByEmail(ctx, email)
	if err != nil {
		return "", "", err
	}
	return complaint.Name, complaint.Phone, nil
}

// statusRank orders the complaint path Pending -> Ticket Created -> Closed.
// Updates may only move forward along it.
var statusRank = map[ComplaintStatus]int{
	StatusPending:       0,
	StatusTicketCreated: 1,
	StatusClosed:        2,
}

func (s *ComplaintServiceImpl) UpdateStatus(ctx context.Context, id string, status ComplaintStatus) (*Complaint, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("complaint %q: %w", id, apperr.ErrNotFound)
	}

	rank, known := statusRank[status]
	if !known {
		return nil, fmt.Errorf("unknown complaint status %q", status)
	}

	current, err := s.ComplaintRepo.FindByID(ctx, objID)
	if err != nil {
		return nil, err
	}
	if rank <= statusRank[current.Status] {
		return nil, fmt.Errorf("cannot move complaint from %q to %q: %w", current.Status, status, apperr.ErrInvalidState)
	}

	if err := s.ComplaintRepo.SetStatus(ctx, objID, status); err != nil {
		return nil, err
	}

	return s.ComplaintRepo.FindByID(ctx, objID)
}

func (s *ComplaintServiceImpl) DeleteComplaint(ctx context.Context, id string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("complaint %q: %w", id, apperr.ErrNotFound)
	}

	return s.ComplaintRepo.Delete(ctx, objID)
}
