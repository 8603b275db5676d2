// Package mongo keeps leave records in MongoDB collections.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Rrens/kb-assistant/internal/domain"
)

const (
	requestsCollection = "leave_requests"
	balancesCollection = "leave_balances"
)

// LeaveRepository implements domain.LeaveRepository on MongoDB
type LeaveRepository struct {
	client   *mongo.Client
	requests *mongo.Collection
	balances *mongo.Collection
}

// Connect opens a client for uri and binds the leave collections of database
func Connect(ctx context.Context, uri, database string) (*LeaveRepository, error) {
	if database == "" {
		return nil, fmt.Errorf("mongo database name is required")
	}

	clientOpts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(10 * time.Second)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping: %w", err)
	}

	db := client.Database(database)
	return &LeaveRepository{
		client:   client,
		requests: db.Collection(requestsCollection),
		balances: db.Collection(balancesCollection),
	}, nil
}

// EnsureIndexes creates the unique and lookup indexes the queries rely on
func (r *LeaveRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.requests.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "leave_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "requester", Value: 1}, {Key: "created_at", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create leave request indexes: %w", err)
	}

	_, err = r.balances.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "requester", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create leave balance index: %w", err)
	}
	return nil
}

func (r *LeaveRepository) Insert(ctx context.Context, rec *domain.LeaveRecord) error {
	if _, err := r.requests.InsertOne(ctx, rec); err != nil {
		return fmt.Errorf("failed to insert leave request: %w", err)
	}
	return nil
}

func (r *LeaveRepository) Get(ctx context.Context, leaveID string) (*domain.LeaveRecord, error) {
	var rec domain.LeaveRecord
	err := r.requests.FindOne(ctx, bson.M{"leave_id": leaveID}).Decode(&rec)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrLeaveNotFound
		}
		return nil, fmt.Errorf("failed to get leave request: %w", err)
	}
	return &rec, nil
}

func (r *LeaveRepository) ListRecent(ctx context.Context, requester string, limit int) ([]domain.LeaveRecord, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "leave_id", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := r.requests.Find(ctx, bson.M{"requester": requester}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list leave requests: %w", err)
	}

	var records []domain.LeaveRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("failed to decode leave requests: %w", err)
	}
	return records, nil
}

func (r *LeaveRepository) Cancel(ctx context.Context, leaveID string) (bool, error) {
	return r.SetStatus(ctx, leaveID, domain.LeaveStatusCancelled)
}

func (r *LeaveRepository) SetStatus(ctx context.Context, leaveID string, status domain.LeaveStatus) (bool, error) {
	return r.updatePending(ctx, leaveID, bson.M{
		"status":     status,
		"updated_at": time.Now().UTC(),
	})
}

func (r *LeaveRepository) Update(ctx context.Context, leaveID string, u domain.LeaveUpdate) (bool, error) {
	if u.IsEmpty() {
		return false, nil
	}
	return r.updatePending(ctx, leaveID, updateFields(u, time.Now().UTC()))
}

func (r *LeaveRepository) updatePending(ctx context.Context, leaveID string, set bson.M) (bool, error) {
	filter := bson.M{"leave_id": leaveID, "status": domain.LeaveStatusPending}
	res, err := r.requests.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return false, fmt.Errorf("failed to update leave request: %w", err)
	}
	return res.MatchedCount > 0, nil
}

func (r *LeaveRepository) GetBalance(ctx context.Context, requester string) (*domain.LeaveBalance, error) {
	var b domain.LeaveBalance
	err := r.balances.FindOne(ctx, bson.M{"requester": requester}).Decode(&b)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get leave balance: %w", err)
	}
	return &b, nil
}

// Close disconnects the client
func (r *LeaveRepository) Close() error {
	return r.client.Disconnect(context.Background())
}

// updateFields builds the $set document of a partial update
func updateFields(u domain.LeaveUpdate, now time.Time) bson.M {
	set := bson.M{"updated_at": now}
	if u.LeaveType != nil {
		set["leave_type"] = *u.LeaveType
	}
	if u.StartTime != nil {
		set["start_time"] = *u.StartTime
	}
	if u.EndTime != nil {
		set["end_time"] = *u.EndTime
	}
	if u.DurationDays != nil {
		set["duration_days"] = *u.DurationDays
	}
	if u.Reason != nil {
		set["reason"] = *u.Reason
	}
	return set
}
