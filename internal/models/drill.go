package models

import (
	"go-dashboard/pkg/objref"
)

type DrillType string

const (
	DrillToInsight         DrillType = "drillToInsight"
	DrillToDashboard       DrillType = "drillToDashboard"
	DrillToCustomURL       DrillType = "drillToCustomUrl"
	DrillToAttributeURL    DrillType = "drillToAttributeUrl"
	DrillToLegacyDashboard DrillType = "drillToLegacyDashboard"
)

type DrillOriginType string

const (
	DrillFromMeasure   DrillOriginType = "drillFromMeasure"
	DrillFromAttribute DrillOriginType = "drillFromAttribute"
)

type DrillTransition string

const (
	TransitionPopUp     DrillTransition = "pop-up"
	TransitionInPlace   DrillTransition = "in-place"
	TransitionNewWindow DrillTransition = "new-window"
)

// DrillOrigin points at a measure or attribute of the widget's insight by local identifier.
type DrillOrigin struct {
	Type            DrillOriginType `bson:"type" json:"type"`
	LocalIdentifier string          `bson:"local_identifier" json:"localIdentifier"`
}

// Drill is a closed union discriminated by Type.
//
//	drillToInsight         Target = insight
//	drillToDashboard       Target = dashboard, nil means the current dashboard
//	drillToCustomUrl       CustomURL
//	drillToAttributeUrl    InsightAttributeDisplayForm + HyperlinkDisplayForm
//	drillToLegacyDashboard Target = dashboard, LegacyTab
type Drill struct {
	Type            DrillType       `bson:"type" json:"type"`
	LocalIdentifier string          `bson:"local_identifier,omitempty" json:"localIdentifier,omitempty"`
	Transition      DrillTransition `bson:"transition" json:"transition"`
	Origin          DrillOrigin     `bson:"origin" json:"origin"`

	Target                      *objref.ObjRef `bson:"target,omitempty" json:"target,omitempty"`
	CustomURL                   string         `bson:"custom_url,omitempty" json:"customUrl,omitempty"`
	InsightAttributeDisplayForm *objref.ObjRef `bson:"insight_attribute_display_form,omitempty" json:"insightAttributeDisplayForm,omitempty"`
	HyperlinkDisplayForm        *objref.ObjRef `bson:"hyperlink_display_form,omitempty" json:"hyperlinkDisplayForm,omitempty"`
	LegacyTab                   string         `bson:"legacy_tab,omitempty" json:"legacyTab,omitempty"`
}

func (t DrillType) Valid() bool {
	switch t {
	case DrillToInsight, DrillToDashboard, DrillToCustomURL, DrillToAttributeURL, DrillToLegacyDashboard:
		return true
	}
	return false
}

// Clone copies the drill including the refs it points at.
func (d Drill) Clone() Drill {
	out := d
	out.Target = cloneRef(d.Target)
	out.InsightAttributeDisplayForm = cloneRef(d.InsightAttributeDisplayForm)
	out.HyperlinkDisplayForm = cloneRef(d.HyperlinkDisplayForm)
	return out
}

func cloneRef(r *objref.ObjRef) *objref.ObjRef {
	if r == nil {
		return nil
	}
	c := *r
	return &c
}
