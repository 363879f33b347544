package models

import (
	"go-dashboard/pkg/objref"
)

type InsightMeasure struct {
	LocalIdentifier string        `bson:"local_identifier" json:"localIdentifier"`
	Measure         objref.ObjRef `bson:"measure" json:"measure"`
	Title           string        `bson:"title,omitempty" json:"title,omitempty"`
}

type InsightAttribute struct {
	LocalIdentifier string        `bson:"local_identifier" json:"localIdentifier"`
	DisplayForm     objref.ObjRef `bson:"display_form" json:"displayForm"`
	Title           string        `bson:"title,omitempty" json:"title,omitempty"`
}

// Insight is the visualization definition an insight widget renders.
type Insight struct {
	objref.Identity  `bson:",inline"`
	Title            string             `bson:"title" json:"title"`
	VisualizationURL string             `bson:"visualization_url" json:"visualizationUrl"`
	Measures         []InsightMeasure   `bson:"measures" json:"measures"`
	Attributes       []InsightAttribute `bson:"attributes" json:"attributes"`
	Properties       map[string]any     `bson:"properties,omitempty" json:"properties,omitempty"`
}

func (i *Insight) HasMeasure(localID string) bool {
	for _, m := range i.Measures {
		if m.LocalIdentifier == localID {
			return true
		}
	}
	return false
}

func (i *Insight) AttributeByLocalID(localID string) (InsightAttribute, bool) {
	for _, a := range i.Attributes {
		if a.LocalIdentifier == localID {
			return a, true
		}
	}
	return InsightAttribute{}, false
}

// ProbeDefinition is a throwaway execution used only to learn which date
// datasets can filter the given items.
type ProbeDefinition struct {
	Measures   []objref.ObjRef `json:"measures"`
	Attributes []objref.ObjRef `json:"attributes"`
}

type ProbeResult struct {
	DateDatasets []CatalogDateDataset `json:"dateDatasets"`
}
