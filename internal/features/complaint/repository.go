package complaint

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

// ComplaintRepository is the complaint store. FindPendingByEmail and
// SetStatus are the two operations the ticket lifecycle engine depends on.
type ComplaintRepository interface {
	Create(ctx context.Context, complaint *Complaint) error
	FindAll(ctx context.Context) ([]Complaint, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*Complaint, error)
	FindPendingByEmail(ctx context.Context, email string) (*Complaint, error)
	FindLatestByEmail(ctx context.Context, email string) (*Complaint, error)
	DistinctEmails(ctx context.Context) ([]string, error)
	SetStatus(ctx context.Context, id primitive.ObjectID, status ComplaintStatus) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type ComplaintRepositoryImpl struct {
	collection *mongo.Collection
}

func NewComplaintRepository(db *database.MongodbDB) ComplaintRepository {
	return &ComplaintRepositoryImpl{
		collection: db.DB.Collection("customer_complaints"),
	}
}

func (r *ComplaintRepositoryImpl) Create(ctx context.Context, complaint *Complaint) error {
	complaint.ID = primitive.NewObjectID()
	complaint.Status = StatusPending
	complaint.CreatedAt = time.Now()

	_, err := r.collection.InsertOne(ctx, complaint)
	return err
}

func (r *ComplaintRepositoryImpl) FindAll(ctx context.Context) ([]Complaint, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var complaints []Complaint
	if err = cursor.All(ctx, &complaints); err != nil {
		return nil, err
	}

	return complaints, nil
}

func (r *ComplaintRepositoryImpl) FindByID(ctx context.Context, id primitive.ObjectID) (*Complaint, error) {
	var complaint Complaint
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&complaint)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("complaint %s: %w", id.Hex(), apperr.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &complaint, nil
}

// FindPendingByEmail returns the most recent Pending complaint for the given
// customer email, or ErrNotFound when none qualifies.
func (r *ComplaintRepositoryImpl) FindPendingByEmail(ctx context.Context, email string) (*Complaint, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}})

	var complaint Complaint
	err := r.collection.FindOne(ctx, bson.M{"email": email, "status": StatusPending}, opts).Decode(&complaint)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("no pending complaint for %q: %w", email, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &complaint, nil
}

func (r *ComplaintRepositoryImpl) FindLatestByEmail(ctx context.Context, email string) (*Complaint, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}})

	var complaint Complaint
	err := r.collection.FindOne(ctx, bson.M{"email": email}, opts).Decode(&complaint)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("customer %q: %w", email, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &complaint, nil
}

func (r *ComplaintRepositoryImpl) DistinctEmails(ctx context.Context) ([]string, error) {
	values, err := r.collection.Distinct(ctx, "email", bson.M{})
	if err != nil {
		return nil, err
	}

	emails := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok {
			emails = append(emails, s)
		}
	}
	return emails, nil
}

func (r *ComplaintRepositoryImpl) SetStatus(ctx context.Context, id primitive.ObjectID, status ComplaintStatus) error {
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"status": status}})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("complaint %s: %w", id.Hex(), apperr.ErrNotFound)
	}
	return nil
}

func (r *ComplaintRepositoryImpl) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("complaint %s: %w", id.Hex(), apperr.ErrNotFound)
	}
	return nil
}
