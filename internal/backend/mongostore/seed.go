package mongostore

import (
	"context"
	"fmt"

	"go-dashboard/internal/backend"
	"go-dashboard/internal/models"
	"go-dashboard/pkg/objref"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the lookup indexes every workspace query relies on.
func (b *Backend) EnsureIndexes(ctx context.Context) error {
	collections := []string{
		dashboardsCollection,
		insightsCollection,
		attributesCollection,
		measuresCollection,
		factsCollection,
		dateDatasetsCollection,
		automationsCollection,
	}
	for _, name := range collections {
		_, err := b.DB.Collection(name).Indexes().CreateMany(ctx, []mongo.IndexModel{
			{Keys: bson.D{{Key: "workspace_id", Value: 1}, {Key: "identifier", Value: 1}}},
			{Keys: bson.D{{Key: "workspace_id", Value: 1}, {Key: "uri", Value: 1}}},
		})
		if err != nil {
			return fmt.Errorf("failed to index %s: %w", name, err)
		}
	}
	_, err := b.DB.Collection(dateConfigCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "workspace_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

// SeedResult counts the documents written per collection.
type SeedResult map[string]int

// Seed upserts fixtures into the workspace, keyed by identifier. Running it
// twice leaves one copy of every object.
func (b *Backend) Seed(ctx context.Context, workspaceID string, f backend.Fixtures) (SeedResult, error) {
	w := &workspace{db: b.DB, id: workspaceID}
	result := SeedResult{}

	upsert := func(collection string, id objref.Identity, doc any) error {
		opts := options.Replace().SetUpsert(true)
		if _, err := b.DB.Collection(collection).ReplaceOne(ctx, w.refFilter(id.Ref()), doc, opts); err != nil {
			return fmt.Errorf("failed to seed %s %s: %w", collection, id.Ref(), err)
		}
		result[collection]++
		return nil
	}

	for _, d := range f.Dashboards {
		if err := upsert(dashboardsCollection, d.Identity, dashboardDocument{WorkspaceID: workspaceID, Dashboard: d}); err != nil {
			return result, err
		}
	}
	for _, i := range f.Insights {
		if err := upsert(insightsCollection, i.Identity, insightDocument{WorkspaceID: workspaceID, Insight: i}); err != nil {
			return result, err
		}
	}
	for _, a := range f.Catalog.Attributes {
		doc := attributeDocument{WorkspaceID: workspaceID, CatalogAttribute: a}
		for _, df := range a.DisplayForms {
			doc.DateDatasets = append(doc.DateDatasets, f.DateDatasetsByItem[df.Identifier]...)
		}
		if err := upsert(attributesCollection, a.Identity, doc); err != nil {
			return result, err
		}
	}
	for _, m := range f.Catalog.Measures {
		doc := measureDocument{WorkspaceID: workspaceID, DateDatasets: f.DateDatasetsByItem[m.Identifier], CatalogMeasure: m}
		if err := upsert(measuresCollection, m.Identity, doc); err != nil {
			return result, err
		}
	}
	for _, fact := range f.Catalog.Facts {
		doc := factDocument{WorkspaceID: workspaceID, CatalogFact: fact}
		if err := upsert(factsCollection, fact.Identity, doc); err != nil {
			return result, err
		}
	}
	for _, ds := range f.Catalog.DateDatasets {
		doc := dateDatasetDocument{WorkspaceID: workspaceID, CatalogDateDataset: ds}
		if err := upsert(dateDatasetsCollection, ds.Identity, doc); err != nil {
			return result, err
		}
	}
	for _, a := range f.Automations {
		if err := upsert(automationsCollection, a.Identity, automationDocument{WorkspaceID: workspaceID, Automation: a}); err != nil {
			return result, err
		}
	}

	cfg := dateFilterConfigDocument{WorkspaceID: workspaceID, DateFilterConfig: f.DateFilterConfig}
	opts := options.Replace().SetUpsert(true)
	if _, err := b.DB.Collection(dateConfigCollection).ReplaceOne(ctx, w.scope(), cfg, opts); err != nil {
		return result, fmt.Errorf("failed to seed date filter config: %w", err)
	}
	result[dateConfigCollection]++
	return result, nil
}

type factDocument struct {
	WorkspaceID        string `bson:"workspace_id"`
	models.CatalogFact `bson:",inline"`
}

type dateDatasetDocument struct {
	WorkspaceID               string `bson:"workspace_id"`
	models.CatalogDateDataset `bson:",inline"`
}
