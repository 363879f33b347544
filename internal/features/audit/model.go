package audit

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AuditLog records one command that changed a dashboard session.
type AuditLog struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	EventType     string             `bson:"event_type" json:"eventType"`
	CorrelationID string             `bson:"correlation_id" json:"correlationId"`
	Workspace     string             `bson:"workspace" json:"workspace"`
	Dashboard     string             `bson:"dashboard" json:"dashboard"`
	SessionID     string             `bson:"session_id" json:"sessionId"`
	Timestamp     time.Time          `bson:"timestamp" json:"timestamp"`
}
