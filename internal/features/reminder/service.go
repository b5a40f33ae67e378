package reminder

import (
	"context"
	"fmt"
	"time"

	"crm-support/internal/config"
	"crm-support/internal/email"
	"crm-support/internal/features/ticket"
	"crm-support/internal/features/user"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// ticketSource is the slice of the ticket repository the reminder job reads.
type ticketSource interface {
	FindResolvedBefore(ctx context.Context, cutoff time.Time) ([]ticket.Ticket, error)
}

// ReminderService nags ticket creators about resolved tickets nobody closed.
// The customer already holds the verification code at that point; the
// creator just has to collect it and finish the ticket.
type ReminderService struct {
	tickets    ticketSource
	users      user.UserRepository
	mailer     email.Mailer
	logger     *zap.Logger
	schedule   string
	staleAfter time.Duration

	scheduler *cron.Cron
}

func NewReminderService(
	ticketRepo ticket.TicketRepository,
	userRepo user.UserRepository,
	mailer email.Mailer,
	cfg *config.Config,
	logger *zap.Logger,
) *ReminderService {
	return &ReminderService{
		tickets:    ticketRepo,
		users:      userRepo,
		mailer:     mailer,
		logger:     logger,
		schedule:   cfg.ReminderSchedule,
		staleAfter: time.Duration(cfg.ReminderAfterHours) * time.Hour,
	}
}

// Start registers the reminder job and launches the scheduler.
func (s *ReminderService) Start() error {
	s.scheduler = cron.New()

	if _, err := s.scheduler.AddFunc(s.schedule, func() {
		if err := s.Run(context.Background()); err != nil {
			s.logger.Error("closure reminder run failed", zap.Error(err))
		}
	}); err != nil {
		return fmt.Errorf("invalid reminder schedule %q: %w", s.schedule, err)
	}

	s.scheduler.Start()
	s.logger.Info("closure reminder scheduled", zap.String("schedule", s.schedule))
	return nil
}

// Stop halts the scheduler and waits for a running job to finish.
func (s *ReminderService) Stop() {
	if s.scheduler != nil {
		<-s.scheduler.Stop().Done()
	}
}

// Run executes one reminder sweep. Exposed separately from the schedule so
// it can be triggered directly.
func (s *ReminderService) Run(ctx context.Context) error {
	cutoff := time.Now().Add(-s.staleAfter)

	stale, err := s.tickets.FindResolvedBefore(ctx, cutoff)
	if err != nil {
		return err
	}

	for _, t := range stale {
		creator, err := s.users.FindByID(ctx, t.CreatedBy.Hex())
		if err != nil {
			s.logger.Warn("reminder skipped, creator not found",
				zap.String("ticket_id", t.ID.Hex()),
				zap.Error(err),
			)
			continue
		}

		s.mailer.Dispatch(
			creator.Email,
			fmt.Sprintf("Ticket Awaiting Closure: %s", t.Title),
			fmt.Sprintf("Hi %s,\n\nThe ticket titled %q was resolved on %s but has not been closed yet.\n\nPlease collect the verification code from the customer and close the ticket.\n\nThanks", creator.Name, t.Title, t.ResolvedAt.Format("2006-01-02")),
		)
	}

	if len(stale) > 0 {
		s.logger.Info("closure reminders dispatched", zap.Int("count", len(stale)))
	}

	return nil
}
