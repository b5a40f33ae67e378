package ticket

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"sync"
	"testing"
	"time"

	"crm-support/internal/common/apperr"
	"crm-support/internal/common/models"
	"crm-support/internal/features/complaint"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type fakeTicketRepo struct {
	mu      sync.Mutex
	tickets map[primitive.ObjectID]Ticket
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{tickets: make(map[primitive.ObjectID]Ticket)}
}

func (r *fakeTicketRepo) Create(ctx context.Context, t *Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t.ID = primitive.NewObjectID()
	r.tickets[t.ID] = *t
	return nil
}

func (r *fakeTicketRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tickets[id]
	if !ok {
		return nil, fmt.Errorf("ticket %s: %w", id.Hex(), apperr.ErrNotFound)
	}
	cp := t
	cp.History = append([]HistoryEntry(nil), t.History...)
	return &cp, nil
}

func (r *fakeTicketRepo) FindAll(ctx context.Context, status TicketStatus, sortBy string) ([]Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Ticket
	for _, t := range r.tickets {
		if status == "" || t.Status == status {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *fakeTicketRepo) FindByAssignee(ctx context.Context, assignee primitive.ObjectID) ([]Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Ticket
	for _, t := range r.tickets {
		if t.AssignedTo == assignee {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *fakeTicketRepo) FindByCustomerEmail(ctx context.Context, email string) ([]Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Ticket
	for _, t := range r.tickets {
		if t.Customer.Email == email {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *fakeTicketRepo) FindResolvedBefore(ctx context.Context, cutoff time.Time) ([]Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Ticket
	for _, t := range r.tickets {
		if t.Status == TicketStatusResolved && t.ResolvedAt != nil && !t.ResolvedAt.After(cutoff) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *fakeTicketRepo) Save(ctx context.Context, t *Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tickets[t.ID]; !ok {
		return fmt.Errorf("ticket %s: %w", t.ID.Hex(), apperr.ErrNotFound)
	}
	r.tickets[t.ID] = *t
	return nil
}

func (r *fakeTicketRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tickets[id]; !ok {
		return fmt.Errorf("ticket %s: %w", id.Hex(), apperr.ErrNotFound)
	}
	delete(r.tickets, id)
	return nil
}

type fakeComplaintRepo struct {
	mu         sync.Mutex
	complaints map[primitive.ObjectID]complaint.Complaint
}

func newFakeComplaintRepo() *fakeComplaintRepo {
	return &fakeComplaintRepo{complaints: make(map[primitive.ObjectID]complaint.Complaint)}
}

func (r *fakeComplaintRepo) add(c complaint.Complaint) primitive.ObjectID {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	r.complaints[c.ID] = c
	return c.ID
}

func (r *fakeComplaintRepo) status(id primitive.ObjectID) complaint.ComplaintStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.complaints[id].Status
}

func (r *fakeComplaintRepo) Create(ctx context.Context, c *complaint.Complaint) error {
	c.Status = complaint.StatusPending
	r.add(*c)
	return nil
}

func (r *fakeComplaintRepo) FindAll(ctx context.Context) ([]complaint.Complaint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []complaint.Complaint
	for _, c := range r.complaints {
		out = append(out, c)
	}
	return out, nil
}

func (r *fakeComplaintRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*complaint.Complaint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.complaints[id]
	if !ok {
		return nil, fmt.Errorf("complaint %s: %w", id.Hex(), apperr.ErrNotFound)
	}
	return &c, nil
}

func (r *fakeComplaintRepo) FindPendingByEmail(ctx context.Context, email string) (*complaint.Complaint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.complaints {
		if c.Email == email && c.Status == complaint.StatusPending {
			cp := c
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("no pending complaint for %s: %w", email, apperr.ErrNotFound)
}

func (r *fakeComplaintRepo) FindLatestByEmail(ctx context.Context, email string) (*complaint.Complaint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.complaints {
		if c.Email == email {
			cp := c
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("no complaint for %s: %w", email, apperr.ErrNotFound)
}

func (r *fakeComplaintRepo) DistinctEmails(ctx context.Context) ([]string, error) {
	return nil, nil
}

func (r *fakeComplaintRepo) SetStatus(ctx context.Context, id primitive.ObjectID, status complaint.ComplaintStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.complaints[id]
	if !ok {
		return fmt.Errorf("complaint %s: %w", id.Hex(), apperr.ErrNotFound)
	}
	c.Status = status
	r.complaints[id] = c
	return nil
}

func (r *fakeComplaintRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.complaints, id)
	return nil
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]models.User
}

func newFakeUserRepo(users ...models.User) *fakeUserRepo {
	r := &fakeUserRepo{users: make(map[string]models.User)}
	for _, u := range users {
		r.users[u.ID.Hex()] = u
	}
	return r
}

func (r *fakeUserRepo) Create(ctx context.Context, u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[u.ID.Hex()] = *u
	return nil
}

func (r *fakeUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, apperr.ErrNotFound)
	}
	return &u, nil
}

func (r *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := u
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("user %s: %w", email, apperr.ErrNotFound)
}

func (r *fakeUserRepo) ListByRole(ctx context.Context, role models.Role) ([]models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.User
	for _, u := range r.users {
		if u.Role == role {
			out = append(out, u)
		}
	}
	return out, nil
}

type sentMail struct {
	To      string
	Subject string
	Body    string
}

// fakeMailer records sends synchronously so tests can assert on them.
type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
}

func (m *fakeMailer) Send(ctx context.Context, to, subject, body string) error {
	m.Dispatch(to, subject, body)
	return nil
}

func (m *fakeMailer) Dispatch(to, subject, body string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{To: to, Subject: subject, Body: body})
}

func (m *fakeMailer) sentTo(addr string) []sentMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []sentMail
	for _, s := range m.sent {
		if s.To == addr {
			out = append(out, s)
		}
	}
	return out
}

type fixture struct {
	svc        *TicketServiceImpl
	tickets    *fakeTicketRepo
	complaints *fakeComplaintRepo
	users      *fakeUserRepo
	mailer     *fakeMailer

	staff      Actor
	technician Actor
	customer   Actor

	complaintID primitive.ObjectID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	staffID := primitive.NewObjectID()
	techID := primitive.NewObjectID()
	custID := primitive.NewObjectID()

	users := newFakeUserRepo(
		models.User{ID: staffID, Name: "Sana Staff", Email: "staff@example.com", Role: models.RoleStaff},
		models.User{ID: techID, Name: "Tim Tech", Email: "tech@example.com", Role: models.RoleTechnician},
		models.User{ID: custID, Name: "Carol Customer", Email: "carol@example.com", Role: models.RoleCustomer},
	)

	complaints := newFakeComplaintRepo()
	complaintID := complaints.add(complaint.Complaint{
		Name:   "Carol Customer",
		Email:  "carol@example.com",
		Phone:  "555-0100",
		Issue:  "Router keeps rebooting",
		Status: complaint.StatusPending,
	})

	tickets := newFakeTicketRepo()
	mailer := &fakeMailer{}

	svc := NewTicketService(tickets, complaints, users, mailer, zap.NewNop()).(*TicketServiceImpl)

	return &fixture{
		svc:         svc,
		tickets:     tickets,
		complaints:  complaints,
		users:       users,
		mailer:      mailer,
		staff:       Actor{ID: staffID, Name: "Sana Staff", Email: "staff@example.com", Role: models.RoleStaff},
		technician:  Actor{ID: techID, Name: "Tim Tech", Email: "tech@example.com", Role: models.RoleTechnician},
		customer:    Actor{ID: custID, Name: "Carol Customer", Email: "carol@example.com", Role: models.RoleCustomer},
		complaintID: complaintID,
	}
}

func (f *fixture) create(t *testing.T) *Ticket {
	t.Helper()
	tk, err := f.svc.CreateTicket(context.Background(), f.staff, CreateTicketRequest{
		Title:         "Router reboot loop",
		Description:   "Device restarts every few minutes",
		Priority:      TicketPriorityHigh,
		AssignedTo:    f.technician.ID.Hex(),
		CustomerEmail: "carol@example.com",
	})
	require.NoError(t, err)
	return tk
}

func TestCreateTicket(t *testing.T) {
	f := newFixture(t)

	tk := f.create(t)

	assert.Equal(t, TicketStatusOpen, tk.Status)
	assert.Equal(t, f.technician.ID, tk.AssignedTo)
	assert.Equal(t, f.staff.ID, tk.CreatedBy)
	assert.Equal(t, "carol@example.com", tk.Customer.Email)
	assert.Equal(t, f.complaintID, tk.CustomerComplaint)
	require.Len(t, tk.History, 1)
	assert.Equal(t, TicketStatusOpen, tk.History[0].Status)

	assert.Equal(t, complaint.StatusTicketCreated, f.complaints.status(f.complaintID))

	assert.Len(t, f.mailer.sentTo("tech@example.com"), 1)
	assert.Len(t, f.mailer.sentTo("carol@example.com"), 1)
}

func TestCreateTicketWithoutPendingComplaint(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreateTicket(context.Background(), f.staff, CreateTicketRequest{
		Title:         "Phantom ticket",
		AssignedTo:    f.technician.ID.Hex(),
		CustomerEmail: "nobody@example.com",
	})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestGetTicketOwnership(t *testing.T) {
	f := newFixture(t)
	tk := f.create(t)
	ctx := context.Background()

	_, err := f.svc.GetTicket(ctx, f.staff, tk.ID.Hex())
	assert.NoError(t, err)

	_, err = f.svc.GetTicket(ctx, f.technician, tk.ID.Hex())
	assert.NoError(t, err)

	_, err = f.svc.GetTicket(ctx, f.customer, tk.ID.Hex())
	assert.NoError(t, err)

	otherTech := Actor{ID: primitive.NewObjectID(), Role: models.RoleTechnician}
	_, err = f.svc.GetTicket(ctx, otherTech, tk.ID.Hex())
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	otherCust := Actor{ID: primitive.NewObjectID(), Email: "mallory@example.com", Role: models.RoleCustomer}
	_, err = f.svc.GetTicket(ctx, otherCust, tk.ID.Hex())
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestStartProgressRequiresAssignee(t *testing.T) {
	f := newFixture(t)
	tk := f.create(t)
	ctx := context.Background()

	otherTech := Actor{ID: primitive.NewObjectID(), Role: models.RoleTechnician}
	_, err := f.svc.StartProgress(ctx, otherTech, tk.ID.Hex())
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	got, err := f.svc.StartProgress(ctx, f.technician, tk.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, TicketStatusInProgress, got.Status)
	assert.Len(t, got.History, 2)

	// A second in-progress transition is not in the table.
	_, err = f.svc.StartProgress(ctx, f.technician, tk.ID.Hex())
	assert.ErrorIs(t, err, apperr.ErrInvalidState)
}

func TestResolveMintsFourDigitCode(t *testing.T) {
	f := newFixture(t)
	tk := f.create(t)
	ctx := context.Background()

	_, err := f.svc.StartProgress(ctx, f.technician, tk.ID.Hex())
	require.NoError(t, err)

	got, err := f.svc.Resolve(ctx, f.technician, tk.ID.Hex())
	require.NoError(t, err)

	assert.Equal(t, TicketStatusResolved, got.Status)
	require.NotNil(t, got.ResolvedAt)
	require.Regexp(t, regexp.MustCompile(`^\d{4}$`), got.CloseCode)
	n, err := strconv.Atoi(got.CloseCode)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, 1000)
	assert.LessOrEqual(t, n, 9999)

	// The customer receives the code; the creator gets a code-free notice.
	custMail := f.mailer.sentTo("carol@example.com")
	require.NotEmpty(t, custMail)
	assert.Contains(t, custMail[len(custMail)-1].Body, got.CloseCode)

	staffMail := f.mailer.sentTo("staff@example.com")
	require.NotEmpty(t, staffMail)
	assert.NotContains(t, staffMail[len(staffMail)-1].Body, got.CloseCode)
}

func TestResolveRequiresInProgress(t *testing.T) {
	f := newFixture(t)
	tk := f.create(t)

	_, err := f.svc.Resolve(context.Background(), f.technician, tk.ID.Hex())
	assert.ErrorIs(t, err, apperr.ErrInvalidState)
}

func TestCloseLifecycle(t *testing.T) {
	f := newFixture(t)
	f.svc.newCode = func() string { return "4821" }

	tk := f.create(t)
	ctx := context.Background()

	_, err := f.svc.StartProgress(ctx, f.technician, tk.ID.Hex())
	require.NoError(t, err)
	_, err = f.svc.Resolve(ctx, f.technician, tk.ID.Hex())
	require.NoError(t, err)

	// Only the creator may close, even with the right code.
	_, err = f.svc.Close(ctx, f.technician, tk.ID.Hex(), "4821")
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	// Wrong code is rejected and leaves the ticket resolved.
	_, err = f.svc.Close(ctx, f.staff, tk.ID.Hex(), "0000")
	assert.ErrorIs(t, err, apperr.ErrInvalidCode)

	_, err = f.svc.Close(ctx, f.staff, tk.ID.Hex(), "")
	assert.ErrorIs(t, err, apperr.ErrInvalidCode)

	still, err := f.svc.GetTicket(ctx, f.staff, tk.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, TicketStatusResolved, still.Status)

	got, err := f.svc.Close(ctx, f.staff, tk.ID.Hex(), "4821")
	require.NoError(t, err)
	assert.Equal(t, TicketStatusClosed, got.Status)
	assert.Empty(t, got.CloseCode, "close code is one-time and must be cleared")
	require.NotNil(t, got.ClosedAt)

	assert.Equal(t, complaint.StatusClosed, f.complaints.status(f.complaintID))

	// Closed is terminal; replaying the same code cannot reopen or re-close.
	_, err = f.svc.Close(ctx, f.staff, tk.ID.Hex(), "4821")
	assert.ErrorIs(t, err, apperr.ErrInvalidState)
}

func TestCloseBeforeResolve(t *testing.T) {
	f := newFixture(t)
	tk := f.create(t)

	// Status check fires before the code check when no code exists yet.
	_, err := f.svc.Close(context.Background(), f.staff, tk.ID.Hex(), "1234")
	assert.ErrorIs(t, err, apperr.ErrInvalidState)
}

func TestAdminUpdate(t *testing.T) {
	f := newFixture(t)
	tk := f.create(t)
	ctx := context.Background()

	admin := Actor{ID: primitive.NewObjectID(), Name: "Ada Admin", Role: models.RoleAdmin}

	// Skipping a step through the admin path is still rejected.
	_, err := f.svc.AdminUpdate(ctx, admin, tk.ID.Hex(), TicketStatusResolved, "")
	assert.ErrorIs(t, err, apperr.ErrInvalidState)

	got, err := f.svc.AdminUpdate(ctx, admin, tk.ID.Hex(), TicketStatusInProgress, "")
	require.NoError(t, err)
	assert.Equal(t, TicketStatusInProgress, got.Status)
	assert.Len(t, got.History, 2, "a combined update appends exactly one history entry")

	// Reassignment notifies the new technician.
	tech2 := models.User{ID: primitive.NewObjectID(), Name: "Tara Tech", Email: "tara@example.com", Role: models.RoleTechnician}
	require.NoError(t, f.users.Create(ctx, &tech2))

	got, err = f.svc.AdminUpdate(ctx, admin, tk.ID.Hex(), "", tech2.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, tech2.ID, got.AssignedTo)
	assert.Len(t, got.History, 3)
	assert.Len(t, f.mailer.sentTo("tara@example.com"), 1)

	// A no-op update appends nothing.
	got, err = f.svc.AdminUpdate(ctx, admin, tk.ID.Hex(), "", tech2.ID.Hex())
	require.NoError(t, err)
	assert.Len(t, got.History, 3)
}

func TestAdminUpdateResolveMintsCode(t *testing.T) {
	f := newFixture(t)
	f.svc.newCode = func() string { return "3197" }

	tk := f.create(t)
	ctx := context.Background()

	admin := Actor{ID: primitive.NewObjectID(), Name: "Ada Admin", Role: models.RoleAdmin}

	_, err := f.svc.AdminUpdate(ctx, admin, tk.ID.Hex(), TicketStatusInProgress, "")
	require.NoError(t, err)

	// Resolving through the admin path mints the code exactly like the
	// technician path, so the ticket stays closable.
	got, err := f.svc.AdminUpdate(ctx, admin, tk.ID.Hex(), TicketStatusResolved, "")
	require.NoError(t, err)
	assert.Equal(t, TicketStatusResolved, got.Status)
	assert.Equal(t, "3197", got.CloseCode)
	require.NotNil(t, got.ResolvedAt)

	custMail := f.mailer.sentTo("carol@example.com")
	require.NotEmpty(t, custMail)
	assert.Contains(t, custMail[len(custMail)-1].Body, "3197")

	closed, err := f.svc.Close(ctx, f.staff, tk.ID.Hex(), "3197")
	require.NoError(t, err)
	assert.Equal(t, TicketStatusClosed, closed.Status)
}

func TestAdminUpdateCannotClose(t *testing.T) {
	f := newFixture(t)
	f.svc.newCode = func() string { return "5512" }

	tk := f.create(t)
	ctx := context.Background()

	_, err := f.svc.StartProgress(ctx, f.technician, tk.ID.Hex())
	require.NoError(t, err)
	_, err = f.svc.Resolve(ctx, f.technician, tk.ID.Hex())
	require.NoError(t, err)

	// A status update can never stand in for the code-checked close.
	admin := Actor{ID: primitive.NewObjectID(), Name: "Ada Admin", Role: models.RoleAdmin}
	_, err = f.svc.AdminUpdate(ctx, admin, tk.ID.Hex(), TicketStatusClosed, "")
	assert.ErrorIs(t, err, apperr.ErrInvalidState)

	still, err := f.svc.GetTicket(ctx, f.staff, tk.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, TicketStatusResolved, still.Status)
}

func TestHistoryGrowsOncePerMutation(t *testing.T) {
	f := newFixture(t)
	f.svc.newCode = func() string { return "7777" }

	tk := f.create(t)
	ctx := context.Background()

	_, err := f.svc.StartProgress(ctx, f.technician, tk.ID.Hex())
	require.NoError(t, err)
	_, err = f.svc.Resolve(ctx, f.technician, tk.ID.Hex())
	require.NoError(t, err)
	got, err := f.svc.Close(ctx, f.staff, tk.ID.Hex(), "7777")
	require.NoError(t, err)

	require.Len(t, got.History, 4)
	want := []TicketStatus{TicketStatusOpen, TicketStatusInProgress, TicketStatusResolved, TicketStatusClosed}
	for i, entry := range got.History {
		assert.Equal(t, want[i], entry.Status)
	}
}

func TestDeleteTicket(t *testing.T) {
	f := newFixture(t)
	tk := f.create(t)
	ctx := context.Background()

	admin := Actor{ID: primitive.NewObjectID(), Role: models.RoleAdmin}
	require.NoError(t, f.svc.DeleteTicket(ctx, admin, tk.ID.Hex()))

	_, err := f.svc.GetTicket(ctx, f.staff, tk.ID.Hex())
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	err = f.svc.DeleteTicket(ctx, admin, tk.ID.Hex())
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestConcurrentMutationsStaySerialized(t *testing.T) {
	f := newFixture(t)
	tk := f.create(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = f.svc.StartProgress(ctx, f.technician, tk.ID.Hex())
		}()
	}
	wg.Wait()

	got, err := f.svc.GetTicket(ctx, f.staff, tk.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, TicketStatusInProgress, got.Status)
	assert.Len(t, got.History, 2, "only one racer may win the transition")
}
