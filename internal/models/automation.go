package models

import (
	"time"

	"go-dashboard/pkg/objref"
)

type AutomationType string

const (
	AutomationAlert           AutomationType = "alert"
	AutomationScheduledExport AutomationType = "scheduledExport"
)

type AlertOperator string

const (
	AlertGreaterThan        AlertOperator = "GREATER_THAN"
	AlertGreaterThanOrEqual AlertOperator = "GREATER_THAN_OR_EQUAL_TO"
	AlertLessThan           AlertOperator = "LESS_THAN"
	AlertLessThanOrEqual    AlertOperator = "LESS_THAN_OR_EQUAL_TO"
	AlertEqual              AlertOperator = "EQUAL_TO"
	AlertNotEqual           AlertOperator = "NOT_EQUAL_TO"
)

func (o AlertOperator) Valid() bool {
	switch o {
	case AlertGreaterThan, AlertGreaterThanOrEqual, AlertLessThan, AlertLessThanOrEqual, AlertEqual, AlertNotEqual:
		return true
	}
	return false
}

// AlertCondition fires when the measure compared to Threshold holds.
type AlertCondition struct {
	MeasureLocalIdentifier string        `bson:"measure_local_identifier" json:"measure"`
	Operator               AlertOperator `bson:"operator" json:"operator"`
	Threshold              float64       `bson:"threshold" json:"threshold"`
}

type Schedule struct {
	Cron     string    `bson:"cron" json:"cron"`
	Timezone string    `bson:"timezone,omitempty" json:"timezone,omitempty"`
	FirstRun time.Time `bson:"first_run,omitempty" json:"firstRun,omitempty"`
}

// Automation is an alert or a scheduled export. It is persisted separately
// from the dashboard and only references it.
type Automation struct {
	objref.Identity     `bson:",inline"`
	Type                AutomationType  `bson:"type" json:"type"`
	Title               string          `bson:"title" json:"title"`
	Dashboard           objref.ObjRef   `bson:"dashboard" json:"dashboard"`
	Widget              *objref.ObjRef  `bson:"widget,omitempty" json:"widget,omitempty"`
	Alert               *AlertCondition `bson:"alert,omitempty" json:"alert,omitempty"`
	Schedule            *Schedule       `bson:"schedule,omitempty" json:"schedule,omitempty"`
	Recipients          []string        `bson:"recipients" json:"recipients"`
	NotificationChannel string          `bson:"notification_channel" json:"notificationChannel"`
	ExportFormats       []string        `bson:"export_formats,omitempty" json:"exportFormats,omitempty"`
	CreatedAt           time.Time       `bson:"created_at" json:"createdAt"`
	UpdatedAt           time.Time       `bson:"updated_at" json:"updatedAt"`
	NextRun             *time.Time      `bson:"next_run,omitempty" json:"nextRun,omitempty"`
	LastRun             *time.Time      `bson:"last_run,omitempty" json:"lastRun,omitempty"`
}
