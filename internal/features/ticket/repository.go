package ticket

import (
	"context"
	"errors"
	"fmt"
	"time"

	"crm-support/internal/common/apperr"
	"crm-support/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// TicketRepository defines the interface for ticket persistence
type TicketRepository interface {
	Create(ctx context.Context, ticket *Ticket) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*Ticket, error)
	FindAll(ctx context.Context, status TicketStatus, sortBy string) ([]Ticket, error)
	FindByAssignee(ctx context.Context, assignee primitive.ObjectID) ([]Ticket, error)
	FindByCustomerEmail(ctx context.Context, email string) ([]Ticket, error)
	FindResolvedBefore(ctx context.Context, cutoff time.Time) ([]Ticket, error)
	Save(ctx context.Context, ticket *Ticket) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type TicketRepositoryImpl struct {
	collection *mongo.Collection
}

func NewTicketRepository(db *database.MongodbDB) TicketRepository {
	return &TicketRepositoryImpl{
		collection: db.DB.Collection("tickets"),
	}
}

func (r *TicketRepositoryImpl) Create(ctx context.Context, ticket *Ticket) error {
	ticket.ID = primitive.NewObjectID()
	ticket.CreatedAt = time.Now()

	_, err := r.collection.InsertOne(ctx, ticket)
	return err
}

func (r *TicketRepositoryImpl) FindByID(ctx context.Context, id primitive.ObjectID) (*Ticket, error) {
	var ticket Ticket
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&ticket)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("ticket %s: %w", id.Hex(), apperr.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *TicketRepositoryImpl) FindAll(ctx context.Context, status TicketStatus, sortBy string) ([]Ticket, error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}

	sortField := "created_at"
	order := -1
	if sortBy != "" {
		sortField = sortBy
		order = 1
	}
	opts := options.Find().SetSort(bson.D{{Key: sortField, Value: order}})

	return r.find(ctx, filter, opts)
}

func (r *TicketRepositoryImpl) FindByAssignee(ctx context.Context, assignee primitive.ObjectID) ([]Ticket, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	return r.find(ctx, bson.M{"assigned_to": assignee}, opts)
}

func (r *TicketRepositoryImpl) FindByCustomerEmail(ctx context.Context, email string) ([]Ticket, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	return r.find(ctx, bson.M{"customer.email": email}, opts)
}

// FindResolvedBefore returns tickets resolved at or before cutoff that were
// never closed, oldest first. Feeds the closure reminder job.
func (r *TicketRepositoryImpl) FindResolvedBefore(ctx context.Context, cutoff time.Time) ([]Ticket, error) {
	filter := bson.M{
		"status":      TicketStatusResolved,
		"resolved_at": bson.M{"$lte": cutoff},
	}
	opts := options.Find().SetSort(bson.D{{Key: "resolved_at", Value: 1}})
	return r.find(ctx, filter, opts)
}

func (r *TicketRepositoryImpl) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]Ticket, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var tickets []Ticket
	if err = cursor.All(ctx, &tickets); err != nil {
		return nil, err
	}

	return tickets, nil
}

// Save replaces the whole document. Callers serialize per-ticket mutations
// through the service's keyed lock, so a plain replace is race-free here.
func (r *TicketRepositoryImpl) Save(ctx context.Context, ticket *Ticket) error {
	result, err := r.collection.ReplaceOne(ctx, bson.M{"_id": ticket.ID}, ticket)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("ticket %s: %w", ticket.ID.Hex(), apperr.ErrNotFound)
	}
	return nil
}

func (r *TicketRepositoryImpl) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("ticket %s: %w", id.Hex(), apperr.ErrNotFound)
	}
	return nil
}
