package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"sigquiz/internal/model"
)

// AttemptRepo is the append-only attempt ledger: an attempts log keyed
// by student id plus a parallel per-question results log for audit.
// Existing rows are never updated or deleted.
type AttemptRepo interface {
	Append(ctx context.Context, record *model.AttemptRecord, details []model.GradedDetail) error
	LatestByStudent(ctx context.Context, studentID string) (*model.AttemptRecord, error)
	ListByStudent(ctx context.Context, studentID string) ([]*model.AttemptRecord, error)
}

type attemptRepo struct {
	attempts *mongo.Collection
	results  *mongo.Collection
}

func NewAttemptRepo(db *mongo.Database) AttemptRepo {
	return &attemptRepo{
		attempts: db.Collection("attempts"),
		results:  db.Collection("results"),
	}
}

// resultRow mirrors the detailed result-log layout: one row per graded
// question, tagged with the attempt metadata.
type resultRow struct {
	Timestamp   time.Time     `bson:"timestamp"`
	StudentName string        `bson:"studentName"`
	StudentID   string        `bson:"studentId"`
	Score       string        `bson:"score"`
	Number      int           `bson:"number"`
	Question    string        `bson:"question"`
	Chosen      string        `bson:"chosen"`
	Correct     string        `bson:"correct"`
	Verdict     model.Verdict `bson:"verdict"`
}

func (r *attemptRepo) Append(ctx context.Context, record *model.AttemptRecord, details []model.GradedDetail) error {
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now()
	}
	if _, err := r.attempts.InsertOne(ctx, record); err != nil {
		return err
	}

	if len(details) == 0 {
		return nil
	}
	rows := make([]interface{}, len(details))
	for i, d := range details {
		rows[i] = resultRow{
			Timestamp:   record.Timestamp,
			StudentName: record.StudentName,
			StudentID:   record.StudentID,
			Score:       record.Score,
			Number:      i + 1,
			Question:    d.Question,
			Chosen:      d.Chosen,
			Correct:     d.Correct,
			Verdict:     d.Verdict,
		}
	}
	_, err := r.results.InsertMany(ctx, rows)
	return err
}

func (r *attemptRepo) LatestByStudent(ctx context.Context, studentID string) (*model.AttemptRecord, error) {
	opts := options.FindOne().SetSort(bson.M{"timestamp": -1})

	var record model.AttemptRecord
	err := r.attempts.FindOne(ctx, bson.M{"studentId": studentID}, opts).Decode(&record)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

func (r *attemptRepo) ListByStudent(ctx context.Context, studentID string) ([]*model.AttemptRecord, error) {
	opts := options.Find().SetSort(bson.M{"timestamp": -1})

	cursor, err := r.attempts.Find(ctx, bson.M{"studentId": studentID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var records []*model.AttemptRecord
	if err = cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}
