// Package mongodb reads the training collections from MongoDB and writes the
// dashboard summary document.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/jonathan/training-dashboard/internal/types"
)

// Collections names the collections the store uses.
type Collections struct {
	Courses      string
	Participants string
	Dashboard    string
}

// DefaultCollections returns the standard collection names.
func DefaultCollections() Collections {
	return Collections{
		Courses:      types.CollectionCourses,
		Participants: types.CollectionParticipants,
		Dashboard:    types.CollectionDashboard,
	}
}

// Store wraps a MongoDB client bound to one database.
type Store struct {
	client       *mongo.Client
	courses      *mongo.Collection
	participants *mongo.Collection
	dashboard    *mongo.Collection
}

// Connect opens a client, verifies it with a ping, and binds the collections.
func Connect(ctx context.Context, uri, database string, cols Collections) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	db := client.Database(database)
	return &Store{
		client:       client,
		courses:      db.Collection(cols.Courses),
		participants: db.Collection(cols.Participants),
		dashboard:    db.Collection(cols.Dashboard),
	}, nil
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(ctx)
}

// ListCourses returns every course document.
func (s *Store) ListCourses(ctx context.Context) ([]types.Course, error) {
	var courses []types.Course
	err := eachDocument(ctx, s.courses, func(id string, doc map[string]any) {
		courses = append(courses, types.CourseFromDocument(id, doc))
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}
	return courses, nil
}

// ListParticipants returns every participant document.
func (s *Store) ListParticipants(ctx context.Context) ([]types.Participant, error) {
	var participants []types.Participant
	err := eachDocument(ctx, s.participants, func(id string, doc map[string]any) {
		participants = append(participants, types.ParticipantFromDocument(id, doc))
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	return participants, nil
}

func eachDocument(ctx context.Context, coll *mongo.Collection, fn func(id string, doc map[string]any)) error {
	cursor, err := coll.Find(ctx, bson.D{})
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var raw bson.M
		if err := cursor.Decode(&raw); err != nil {
			return fmt.Errorf("failed to decode %s document: %w", coll.Name(), err)
		}
		fn(documentID(raw["_id"]), normalizeDocument(raw))
	}
	return cursor.Err()
}

// ReplaceSummary overwrites the summary document in one upsert. The pipeline
// replaces the whole document, so fields from earlier runs are dropped, and
// stamps lastUpdated with the server clock.
func (s *Store) ReplaceSummary(ctx context.Context, summary *types.DashboardSummary) (time.Time, error) {
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After).
		SetProjection(bson.D{{Key: "lastUpdated", Value: 1}})

	var stored struct {
		LastUpdated time.Time `bson:"lastUpdated"`
	}
	err := s.dashboard.FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: types.SummaryDocumentID}},
		summaryReplacement(summary),
		opts,
	).Decode(&stored)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to replace summary: %w", err)
	}
	return stored.LastUpdated, nil
}

// GetSummary retrieves the stored summary, or nil if none has been written yet.
func (s *Store) GetSummary(ctx context.Context) (*types.DashboardSummary, error) {
	var summary types.DashboardSummary
	err := s.dashboard.FindOne(ctx, bson.D{{Key: "_id", Value: types.SummaryDocumentID}}).Decode(&summary)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get summary: %w", err)
	}
	return &summary, nil
}

// summaryReplacement builds the update pipeline for ReplaceSummary. The body
// is wrapped in $literal so labels beginning with "$" are not read as paths.
func summaryReplacement(summary *types.DashboardSummary) mongo.Pipeline {
	body := bson.D{
		{Key: "_id", Value: types.SummaryDocumentID},
		{Key: "participants", Value: summary.Participants},
		{Key: "courses", Value: summary.Courses},
	}
	return mongo.Pipeline{
		{{Key: "$replaceWith", Value: bson.D{
			{Key: "$mergeObjects", Value: bson.A{
				bson.D{{Key: "$literal", Value: body}},
				bson.D{{Key: "lastUpdated", Value: "$$NOW"}},
			}},
		}}},
	}
}

// documentID renders a document _id as a string.
func documentID(v any) string {
	switch id := v.(type) {
	case primitive.ObjectID:
		return id.Hex()
	case string:
		return id
	case nil:
		return ""
	default:
		return fmt.Sprint(id)
	}
}

// normalizeDocument converts BSON-only scalar types into values the
// aggregation coercion understands.
func normalizeDocument(raw bson.M) map[string]any {
	doc := make(map[string]any, len(raw))
	for k, v := range raw {
		switch val := v.(type) {
		case primitive.Decimal128:
			doc[k] = val.String()
		case primitive.ObjectID:
			doc[k] = val.Hex()
		default:
			doc[k] = v
		}
	}
	return doc
}
