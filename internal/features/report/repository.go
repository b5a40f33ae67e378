package report

import (
	"context"

	"crm-support/internal/database"
	"crm-support/internal/features/ticket"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ReportRepository reads the tickets collection with the report filters
// applied server-side.
type ReportRepository interface {
	FindTickets(ctx context.Context, filter bson.M, page, limit int64) ([]ticket.Ticket, int64, error)
}

type ReportRepositoryImpl struct {
	collection *mongo.Collection
}

func NewReportRepository(db *database.MongodbDB) ReportRepository {
	return &ReportRepositoryImpl{
		collection: db.DB.Collection("tickets"),
	}
}

func (r *ReportRepositoryImpl) FindTickets(ctx context.Context, filter bson.M, page, limit int64) ([]ticket.Ticket, int64, error) {
	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip((page - 1) * limit).
		SetLimit(limit)

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	var tickets []ticket.Ticket
	if err = cursor.All(ctx, &tickets); err != nil {
		return nil, 0, err
	}

	return tickets, total, nil
}

// ObjectIDOrNil parses a hex id from a query filter, returning NilObjectID
// when the value is not a valid id so the filter is simply skipped.
func ObjectIDOrNil(hex string) primitive.ObjectID {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID
	}
	return id
}
