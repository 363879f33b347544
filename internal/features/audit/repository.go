package audit

import (
	"context"
	"sort"
	"sync"

	"go-dashboard/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type AuditRepository interface {
	Create(ctx context.Context, log AuditLog) error
	// List returns the logs of dashboard, newest first.
	List(ctx context.Context, dashboard string, limit, offset int64) ([]AuditLog, error)
}

// NewAuditRepository stores logs in Mongo, or in memory when the service
// runs without a database.
func NewAuditRepository(mongodb *database.MongodbDB) AuditRepository {
	if !mongodb.Enabled() {
		return NewMemoryRepository()
	}
	return &AuditRepositoryImpl{
		Collection: mongodb.DB.Collection("audit_logs"),
	}
}

type AuditRepositoryImpl struct {
	Collection *mongo.Collection
}

func (r *AuditRepositoryImpl) Create(ctx context.Context, log AuditLog) error {
	if log.ID.IsZero() {
		log.ID = primitive.NewObjectID()
	}
	_, err := r.Collection.InsertOne(ctx, log)
	return err
}

func (r *AuditRepositoryImpl) List(ctx context.Context, dashboard string, limit, offset int64) ([]AuditLog, error) {
	opts := options.Find().SetLimit(limit).SetSkip(offset).SetSort(bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}})

	cursor, err := r.Collection.Find(ctx, bson.M{"dashboard": dashboard}, opts)
	if err != nil {
		return nil, err
	}
	logs := []AuditLog{}
	if err = cursor.All(ctx, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}

type MemoryRepository struct {
	mu   sync.RWMutex
	logs []AuditLog
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (r *MemoryRepository) Create(ctx context.Context, log AuditLog) error {
	if log.ID.IsZero() {
		log.ID = primitive.NewObjectID()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logs = append(r.logs, log)
	return nil
}

func (r *MemoryRepository) List(ctx context.Context, dashboard string, limit, offset int64) ([]AuditLog, error) {
	r.mu.RLock()
	matching := []AuditLog{}
	for i := len(r.logs) - 1; i >= 0; i-- {
		if r.logs[i].Dashboard == dashboard {
			matching = append(matching, r.logs[i])
		}
	}
	r.mu.RUnlock()

	sort.SliceStable(matching, func(i, j int) bool {
		return matching[i].Timestamp.After(matching[j].Timestamp)
	})
	if offset >= int64(len(matching)) {
		return []AuditLog{}, nil
	}
	matching = matching[offset:]
	if limit > 0 && limit < int64(len(matching)) {
		matching = matching[:limit]
	}
	return matching, nil
}
