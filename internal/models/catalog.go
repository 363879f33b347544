package models

import (
	"go-dashboard/pkg/objref"
)

type DisplayForm struct {
	objref.Identity `bson:",inline"`
	Title           string `bson:"title" json:"title"`
	Attribute       string `bson:"attribute" json:"attribute"`
	Type            string `bson:"type,omitempty" json:"type,omitempty"`
}

const DisplayFormTypeHyperlink = "GDC.link"

type CatalogAttribute struct {
	objref.Identity `bson:",inline"`
	Title           string        `bson:"title" json:"title"`
	DisplayForms    []DisplayForm `bson:"display_forms" json:"displayForms"`
}

type CatalogMeasure struct {
	objref.Identity `bson:",inline"`
	Title           string `bson:"title" json:"title"`
	Expression      string `bson:"expression,omitempty" json:"expression,omitempty"`
}

type CatalogFact struct {
	objref.Identity `bson:",inline"`
	Title           string `bson:"title" json:"title"`
}

// CatalogDateDataset is a date dimension. Relevance is the backend's usage score.
type CatalogDateDataset struct {
	objref.Identity `bson:",inline"`
	Title           string            `bson:"title" json:"title"`
	Relevance       int               `bson:"relevance" json:"relevance"`
	Granularities   []DateGranularity `bson:"granularities,omitempty" json:"granularities,omitempty"`
}

type Catalog struct {
	Attributes   []CatalogAttribute   `bson:"attributes" json:"attributes"`
	Measures     []CatalogMeasure     `bson:"measures" json:"measures"`
	Facts        []CatalogFact        `bson:"facts" json:"facts"`
	DateDatasets []CatalogDateDataset `bson:"date_datasets" json:"dateDatasets"`
}

// Resolver knows the id/uri pair of every catalog item.
func (c *Catalog) Resolver() *objref.MapResolver {
	res := objref.NewMapResolver()
	for _, a := range c.Attributes {
		res.Add(a.Identity)
		for _, df := range a.DisplayForms {
			res.Add(df.Identity)
		}
	}
	for _, m := range c.Measures {
		res.Add(m.Identity)
	}
	for _, f := range c.Facts {
		res.Add(f.Identity)
	}
	for _, d := range c.DateDatasets {
		res.Add(d.Identity)
	}
	return res
}
