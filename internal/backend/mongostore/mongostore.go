package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go-dashboard/internal/backend"
	"go-dashboard/internal/database"
	"go-dashboard/internal/models"
	"go-dashboard/pkg/objref"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const URIPrefix = "/gdc/md/"

const (
	dashboardsCollection   = "dashboards"
	insightsCollection     = "insights"
	attributesCollection   = "catalog_attributes"
	measuresCollection     = "catalog_measures"
	factsCollection        = "catalog_facts"
	dateDatasetsCollection = "catalog_date_datasets"
	dateConfigCollection   = "date_filter_configs"
	automationsCollection  = "automations"
)

// Backend serves every workspace from one database; documents carry a workspace_id.
type Backend struct {
	DB *mongo.Database
}

func NewBackend(mongodb *database.MongodbDB) *Backend {
	return &Backend{DB: mongodb.DB}
}

func (b *Backend) Workspace(id string) backend.Workspace {
	return &workspace{db: b.DB, id: id}
}

type workspace struct {
	db *mongo.Database
	id string
}

func (w *workspace) ID() string                                  { return w.id }
func (w *workspace) Dashboards() backend.Dashboards              { return &dashboardRepository{w} }
func (w *workspace) Insights() backend.Insights                  { return &insightRepository{w} }
func (w *workspace) Attributes() backend.Attributes              { return &attributeRepository{w} }
func (w *workspace) Catalog() backend.Catalog                    { return &catalogRepository{w} }
func (w *workspace) Execution() backend.Execution                { return &probeExecutor{w} }
func (w *workspace) Automations() backend.Automations            { return &automationRepository{w} }
func (w *workspace) DateFilterConfig() backend.DateFilterConfigs { return &dateFilterConfigRepository{w} }

// refFilter matches a document by either form of the ref, scoped to the workspace.
func (w *workspace) refFilter(ref objref.ObjRef) bson.M {
	res := objref.PrefixResolver(URIPrefix)
	or := bson.A{}
	if ref.Identifier != "" {
		or = append(or, bson.M{"identifier": ref.Identifier})
		if uri, ok := res.URIOf(ref.Identifier); ok {
			or = append(or, bson.M{"uri": uri})
		}
	}
	if ref.URI != "" {
		or = append(or, bson.M{"uri": ref.URI})
		if id, ok := res.IdentifierOf(ref.URI); ok {
			or = append(or, bson.M{"identifier": id})
		}
	}
	if len(or) == 0 {
		// a zero ref matches nothing
		or = append(or, bson.M{"_id": bson.M{"$exists": false}})
	}
	return bson.M{"workspace_id": w.id, "$or": or}
}

func (w *workspace) scope() bson.M {
	return bson.M{"workspace_id": w.id}
}

func newIdentity() objref.Identity {
	id := uuid.NewString()
	return objref.Identity{Identifier: id, URI: URIPrefix + id}
}

func notFound(kind string, ref objref.ObjRef, err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("%s %s: %w", kind, ref, backend.ErrNotFound)
	}
	return fmt.Errorf("failed to load %s %s: %w", kind, ref, err)
}

type dashboardDocument struct {
	WorkspaceID      string `bson:"workspace_id"`
	models.Dashboard `bson:",inline"`
}

type dashboardRepository struct{ w *workspace }

func (r *dashboardRepository) collection() *mongo.Collection {
	return r.w.db.Collection(dashboardsCollection)
}

func (r *dashboardRepository) Get(ctx context.Context, ref objref.ObjRef) (models.Dashboard, error) {
	var doc dashboardDocument
	if err := r.collection().FindOne(ctx, r.w.refFilter(ref)).Decode(&doc); err != nil {
		return models.Dashboard{}, notFound("dashboard", ref, err)
	}
	return doc.Dashboard, nil
}

func (r *dashboardRepository) Save(ctx context.Context, dashboard models.Dashboard) (models.Dashboard, error) {
	now := time.Now().UTC()
	dashboard.UpdatedAt = now

	if dashboard.Identifier == "" && dashboard.URI == "" {
		dashboard.Identity = newIdentity()
		dashboard.CreatedAt = now
		if _, err := r.collection().InsertOne(ctx, dashboardDocument{WorkspaceID: r.w.id, Dashboard: dashboard}); err != nil {
			return models.Dashboard{}, err
		}
		return dashboard, nil
	}

	filter := r.w.refFilter(dashboard.Identity.Ref())
	update := bson.M{"$set": bson.M{
		"title":              dashboard.Title,
		"description":        dashboard.Description,
		"tags":               dashboard.Tags,
		"layout":             dashboard.Layout,
		"filter_context":     dashboard.FilterContext,
		"date_filter_config": dashboard.DateFilterConfig,
		"plugins":            dashboard.Plugins,
		"updated_at":         now,
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var saved dashboardDocument
	if err := r.collection().FindOneAndUpdate(ctx, filter, update, opts).Decode(&saved); err != nil {
		return models.Dashboard{}, notFound("dashboard", dashboard.Identity.Ref(), err)
	}
	return saved.Dashboard, nil
}

func (r *dashboardRepository) List(ctx context.Context) ([]models.DashboardDescriptor, error) {
	opts := options.Find().
		SetSort(bson.M{"updated_at": -1}).
		SetProjection(bson.M{"identifier": 1, "uri": 1, "title": 1, "updated_at": 1})

	cursor, err := r.collection().Find(ctx, r.w.scope(), opts)
	if err != nil {
		return nil, err
	}
	var out []models.DashboardDescriptor
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

type insightDocument struct {
	WorkspaceID    string `bson:"workspace_id"`
	models.Insight `bson:",inline"`
}

type insightRepository struct{ w *workspace }

func (r *insightRepository) Get(ctx context.Context, ref objref.ObjRef) (models.Insight, error) {
	var doc insightDocument
	if err := r.w.db.Collection(insightsCollection).FindOne(ctx, r.w.refFilter(ref)).Decode(&doc); err != nil {
		return models.Insight{}, notFound("insight", ref, err)
	}
	return doc.Insight, nil
}

// attributeDocument and measureDocument carry the date datasets their values
// can be sliced by, which is what probe executions report.
type attributeDocument struct {
	WorkspaceID             string   `bson:"workspace_id"`
	DateDatasets            []string `bson:"date_datasets,omitempty"`
	models.CatalogAttribute `bson:",inline"`
}

type measureDocument struct {
	WorkspaceID           string   `bson:"workspace_id"`
	DateDatasets          []string `bson:"date_datasets,omitempty"`
	models.CatalogMeasure `bson:",inline"`
}

type attributeRepository struct{ w *workspace }

func (r *attributeRepository) DisplayForm(ctx context.Context, ref objref.ObjRef) (models.DisplayForm, error) {
	var doc attributeDocument
	filter := displayFormFilter(r.w, ref)
	if err := r.w.db.Collection(attributesCollection).FindOne(ctx, filter).Decode(&doc); err != nil {
		return models.DisplayForm{}, notFound("display form", ref, err)
	}
	res := objref.PrefixResolver(URIPrefix)
	for _, df := range doc.DisplayForms {
		if df.Identity.Matches(ref, res) {
			return df, nil
		}
	}
	return models.DisplayForm{}, fmt.Errorf("display form %s: %w", ref, backend.ErrNotFound)
}

func displayFormFilter(w *workspace, ref objref.ObjRef) bson.M {
	inner := w.refFilter(ref)
	return bson.M{
		"workspace_id":  w.id,
		"display_forms": bson.M{"$elemMatch": bson.M{"$or": inner["$or"]}},
	}
}

type catalogRepository struct{ w *workspace }

func (r *catalogRepository) Load(ctx context.Context) (models.Catalog, error) {
	var catalog models.Catalog

	var attrs []attributeDocument
	if err := findAll(ctx, r.w, attributesCollection, &attrs); err != nil {
		return catalog, err
	}
	for _, a := range attrs {
		catalog.Attributes = append(catalog.Attributes, a.CatalogAttribute)
	}

	var measures []measureDocument
	if err := findAll(ctx, r.w, measuresCollection, &measures); err != nil {
		return catalog, err
	}
	for _, m := range measures {
		catalog.Measures = append(catalog.Measures, m.CatalogMeasure)
	}

	if err := findAll(ctx, r.w, factsCollection, &catalog.Facts); err != nil {
		return catalog, err
	}
	if err := findAll(ctx, r.w, dateDatasetsCollection, &catalog.DateDatasets); err != nil {
		return catalog, err
	}
	return catalog, nil
}

func findAll(ctx context.Context, w *workspace, collection string, out any) error {
	cursor, err := w.db.Collection(collection).Find(ctx, w.scope(), options.Find().SetSort(bson.M{"title": 1}))
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", collection, err)
	}
	if err := cursor.All(ctx, out); err != nil {
		return fmt.Errorf("failed to decode %s: %w", collection, err)
	}
	return nil
}

type probeExecutor struct{ w *workspace }

// Probe collects the date datasets linked to the probed measures and display forms.
func (p *probeExecutor) Probe(ctx context.Context, def models.ProbeDefinition) (models.ProbeResult, error) {
	linked := map[string]bool{}

	for _, ref := range def.Measures {
		var doc measureDocument
		err := p.w.db.Collection(measuresCollection).FindOne(ctx, p.w.refFilter(ref)).Decode(&doc)
		if err != nil {
			return models.ProbeResult{}, notFound("measure", ref, err)
		}
		for _, id := range doc.DateDatasets {
			linked[id] = true
		}
	}
	for _, ref := range def.Attributes {
		var doc attributeDocument
		err := p.w.db.Collection(attributesCollection).FindOne(ctx, displayFormFilter(p.w, ref)).Decode(&doc)
		if err != nil {
			return models.ProbeResult{}, notFound("display form", ref, err)
		}
		for _, id := range doc.DateDatasets {
			linked[id] = true
		}
	}

	ids := make([]string, 0, len(linked))
	for id := range linked {
		ids = append(ids, id)
	}
	out := models.ProbeResult{DateDatasets: []models.CatalogDateDataset{}}
	if len(ids) == 0 {
		return out, nil
	}

	filter := bson.M{"workspace_id": p.w.id, "identifier": bson.M{"$in": ids}}
	cursor, err := p.w.db.Collection(dateDatasetsCollection).Find(ctx, filter, options.Find().SetSort(bson.M{"title": 1}))
	if err != nil {
		return models.ProbeResult{}, err
	}
	if err := cursor.All(ctx, &out.DateDatasets); err != nil {
		return models.ProbeResult{}, err
	}
	return out, nil
}

type automationDocument struct {
	WorkspaceID       string `bson:"workspace_id"`
	models.Automation `bson:",inline"`
}

type automationRepository struct{ w *workspace }

func (r *automationRepository) collection() *mongo.Collection {
	return r.w.db.Collection(automationsCollection)
}

func (r *automationRepository) find(ctx context.Context, filter bson.M) ([]models.Automation, error) {
	cursor, err := r.collection().Find(ctx, filter, options.Find().SetSort(bson.M{"created_at": 1}))
	if err != nil {
		return nil, err
	}
	var docs []automationDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]models.Automation, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.Automation)
	}
	return out, nil
}

func (r *automationRepository) List(ctx context.Context, dashboard objref.ObjRef) ([]models.Automation, error) {
	if dashboard.IsZero() {
		return []models.Automation{}, nil
	}
	inner := r.w.refFilter(dashboard)
	or := bson.A{}
	for _, clause := range inner["$or"].(bson.A) {
		for k, v := range clause.(bson.M) {
			or = append(or, bson.M{"dashboard." + k: v})
		}
	}
	return r.find(ctx, bson.M{"workspace_id": r.w.id, "$or": or})
}

func (r *automationRepository) ListScheduled(ctx context.Context) ([]models.Automation, error) {
	return r.find(ctx, bson.M{
		"workspace_id": r.w.id,
		"type":         models.AutomationScheduledExport,
		"schedule":     bson.M{"$exists": true},
	})
}

func (r *automationRepository) Create(ctx context.Context, a models.Automation) (models.Automation, error) {
	if a.Identifier == "" && a.URI == "" {
		a.Identity = newIdentity()
	}
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now
	if _, err := r.collection().InsertOne(ctx, automationDocument{WorkspaceID: r.w.id, Automation: a}); err != nil {
		return models.Automation{}, err
	}
	return a, nil
}

func (r *automationRepository) Update(ctx context.Context, a models.Automation) (models.Automation, error) {
	a.UpdatedAt = time.Now().UTC()
	update := bson.M{"$set": bson.M{
		"title":                a.Title,
		"widget":               a.Widget,
		"alert":                a.Alert,
		"schedule":             a.Schedule,
		"recipients":           a.Recipients,
		"notification_channel": a.NotificationChannel,
		"export_formats":       a.ExportFormats,
		"updated_at":           a.UpdatedAt,
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var saved automationDocument
	if err := r.collection().FindOneAndUpdate(ctx, r.w.refFilter(a.Identity.Ref()), update, opts).Decode(&saved); err != nil {
		return models.Automation{}, notFound("automation", a.Identity.Ref(), err)
	}
	return saved.Automation, nil
}

func (r *automationRepository) Delete(ctx context.Context, ref objref.ObjRef) error {
	result, err := r.collection().DeleteOne(ctx, r.w.refFilter(ref))
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("automation %s: %w", ref, backend.ErrNotFound)
	}
	return nil
}

func (r *automationRepository) RecordRun(ctx context.Context, ref objref.ObjRef, last, next time.Time) error {
	result, err := r.collection().UpdateOne(ctx, r.w.refFilter(ref), bson.M{"$set": bson.M{
		"last_run": last,
		"next_run": next,
	}})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("automation %s: %w", ref, backend.ErrNotFound)
	}
	return nil
}

type dateFilterConfigDocument struct {
	WorkspaceID             string `bson:"workspace_id"`
	models.DateFilterConfig `bson:",inline"`
}

type dateFilterConfigRepository struct{ w *workspace }

func (r *dateFilterConfigRepository) Get(ctx context.Context) (models.DateFilterConfig, error) {
	var cfg dateFilterConfigDocument
	err := r.w.db.Collection(dateConfigCollection).FindOne(ctx, r.w.scope()).Decode(&cfg)
	if err != nil {
		return models.DateFilterConfig{}, notFound("date filter config", objref.IDRef(r.w.id), err)
	}
	return cfg.DateFilterConfig, nil
}
