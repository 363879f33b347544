package models

import (
	"time"

	"go-dashboard/pkg/objref"
)

// Dashboard is the persisted dashboard document as loaded from and saved to the backend.
type Dashboard struct {
	objref.Identity  `bson:",inline"`
	Title            string                    `bson:"title" json:"title"`
	Description      string                    `bson:"description" json:"description"`
	Tags             []string                  `bson:"tags,omitempty" json:"tags,omitempty"`
	Layout           Layout                    `bson:"layout" json:"layout"`
	FilterContext    FilterContext             `bson:"filter_context" json:"filterContext"`
	DateFilterConfig *DateFilterConfigOverride `bson:"date_filter_config,omitempty" json:"dateFilterConfig,omitempty"`
	Plugins          []PluginLink              `bson:"plugins,omitempty" json:"plugins,omitempty"`
	Permissions      Permissions               `bson:"permissions" json:"permissions"`
	CreatedAt        time.Time                 `bson:"created_at" json:"createdAt"`
	UpdatedAt        time.Time                 `bson:"updated_at" json:"updatedAt"`
}

type PluginLink struct {
	objref.Identity `bson:",inline"`
	Name            string `bson:"name" json:"name"`
	Parameters      string `bson:"parameters,omitempty" json:"parameters,omitempty"`
}

type Permissions struct {
	CanView  bool `bson:"can_view" json:"canView"`
	CanEdit  bool `bson:"can_edit" json:"canEdit"`
	CanShare bool `bson:"can_share" json:"canShare"`
}

// DashboardDescriptor is the listing shape of a dashboard.
type DashboardDescriptor struct {
	objref.Identity `bson:",inline"`
	Title           string    `bson:"title" json:"title"`
	UpdatedAt       time.Time `bson:"updated_at" json:"updatedAt"`
}
