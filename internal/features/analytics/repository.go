package analytics

import (
	"context"

	"crm-support/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// StatusCount is one bucket of a grouped ticket count.
type StatusCount struct {
	Key   string `json:"key" bson:"_id"`
	Count int64  `json:"count" bson:"count"`
}

// TechnicianPerformance aggregates per-assignee outcomes for the
// performance chart.
type TechnicianPerformance struct {
	TechnicianID primitive.ObjectID `json:"technician_id" bson:"_id"`
	Total        int64              `json:"total" bson:"total"`
	Resolved     int64              `json:"resolved" bson:"resolved"`
	Closed       int64              `json:"closed" bson:"closed"`
}

type AnalyticsRepository interface {
	CountByField(ctx context.Context, field string) ([]StatusCount, error)
	TechnicianPerformance(ctx context.Context) ([]TechnicianPerformance, error)
}

type AnalyticsRepositoryImpl struct {
	collection *mongo.Collection
}

func NewAnalyticsRepository(db *database.MongodbDB) AnalyticsRepository {
	return &AnalyticsRepositoryImpl{
		collection: db.DB.Collection("tickets"),
	}
}

func (r *AnalyticsRepositoryImpl) CountByField(ctx context.Context, field string) ([]StatusCount, error) {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$group", Value: bson.M{
			"_id":   "$" + field,
			"count": bson.M{"$sum": 1},
		}}},
		bson.D{{Key: "$sort", Value: bson.M{"count": -1}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var counts []StatusCount
	if err = cursor.All(ctx, &counts); err != nil {
		return nil, err
	}

	return counts, nil
}

func (r *AnalyticsRepositoryImpl) TechnicianPerformance(ctx context.Context) ([]TechnicianPerformance, error) {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$group", Value: bson.M{
			"_id":   "$assigned_to",
			"total": bson.M{"$sum": 1},
			"resolved": bson.M{"$sum": bson.M{
				"$cond": bson.A{bson.M{"$eq": bson.A{"$status", "resolved"}}, 1, 0},
			}},
			"closed": bson.M{"$sum": bson.M{
				"$cond": bson.A{bson.M{"$eq": bson.A{"$status", "closed"}}, 1, 0},
			}},
		}}},
		bson.D{{Key: "$sort", Value: bson.M{"total": -1}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var perf []TechnicianPerformance
	if err = cursor.All(ctx, &perf); err != nil {
		return nil, err
	}

	return perf, nil
}
