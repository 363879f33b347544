package queries

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go-dashboard/internal/backend"
	"go-dashboard/internal/models"
	"go-dashboard/pkg/objref"
)

const (
	QueryMeasureDateDatasets = "GDC.DASH/QUERY.MEASURE.DATE.DATASETS"
	QueryInsightDateDatasets = "GDC.DASH/QUERY.INSIGHT.DATE.DATASETS"
	QueryItemsDateDatasets   = "GDC.DASH/QUERY.ITEMS.DATE.DATASETS"
	QueryInsightByRef        = "GDC.DASH/QUERY.INSIGHT.BY.REF"
)

type DateDatasetsForMeasure struct {
	Measure objref.ObjRef
}

type DateDatasetsForInsight struct {
	Insight objref.ObjRef
}

// DateDatasetsForItems probes measures and display forms together. Its cache
// key ignores the order of the refs.
type DateDatasetsForItems struct {
	Measures   []objref.ObjRef
	Attributes []objref.ObjRef
}

// DateDatasetOption is a date dataset with a title unique within its result.
type DateDatasetOption struct {
	models.CatalogDateDataset
	DisplayTitle string `json:"displayTitle"`
}

type DateDatasets struct {
	DateDatasets []models.CatalogDateDataset `json:"dateDatasets"`
	Deduplicated []DateDatasetOption         `json:"deduplicated"`
}

func (d DateDatasets) Find(ref objref.ObjRef, res objref.Resolver) (models.CatalogDateDataset, bool) {
	for _, ds := range d.DateDatasets {
		if ds.Identity.Matches(ref, res) {
			return ds, true
		}
	}
	return models.CatalogDateDataset{}, false
}

// Lookup gives queries read access to session state they do not own.
type Lookup interface {
	MeasureTitle(ref objref.ObjRef) (string, bool)
}

// Queries holds the query services of one dashboard session.
type Queries struct {
	Cache *Cache

	MeasureDateDatasets *Service[DateDatasetsForMeasure, DateDatasets]
	InsightDateDatasets *Service[DateDatasetsForInsight, DateDatasets]
	ItemsDateDatasets   *Service[DateDatasetsForItems, DateDatasets]
	InsightByRef        *Service[objref.ObjRef, models.Insight]
}

func New(ws backend.Workspace, res objref.Resolver, lookup Lookup) *Queries {
	q := &Queries{Cache: NewCache()}

	q.InsightByRef = NewService(QueryInsightByRef,
		func(ctx context.Context, ref objref.ObjRef) (models.Insight, error) {
			return ws.Insights().Get(ctx, ref)
		},
		func(ref objref.ObjRef) string { return objref.Key(ref, res) },
	)

	q.MeasureDateDatasets = NewService(QueryMeasureDateDatasets,
		func(ctx context.Context, query DateDatasetsForMeasure) (DateDatasets, error) {
			result, err := ws.Execution().Probe(ctx, models.ProbeDefinition{Measures: []objref.ObjRef{query.Measure}})
			if err != nil {
				return DateDatasets{}, fmt.Errorf("failed to probe date datasets of %s: %w", query.Measure, err)
			}
			title := ""
			if lookup != nil {
				title, _ = lookup.MeasureTitle(query.Measure)
			}
			return newDateDatasets(result.DateDatasets, title), nil
		},
		func(query DateDatasetsForMeasure) string { return objref.Key(query.Measure, res) },
	)

	q.ItemsDateDatasets = NewService(QueryItemsDateDatasets,
		func(ctx context.Context, query DateDatasetsForItems) (DateDatasets, error) {
			result, err := ws.Execution().Probe(ctx, models.ProbeDefinition{Measures: query.Measures, Attributes: query.Attributes})
			if err != nil {
				return DateDatasets{}, fmt.Errorf("failed to probe date datasets: %w", err)
			}
			return newDateDatasets(result.DateDatasets, ""), nil
		},
		func(query DateDatasetsForItems) string {
			return "m:" + objref.SortedKey(res, query.Measures...) + "|a:" + objref.SortedKey(res, query.Attributes...)
		},
	)

	q.InsightDateDatasets = NewService(QueryInsightDateDatasets,
		func(ctx context.Context, query DateDatasetsForInsight) (DateDatasets, error) {
			insight, err := q.InsightByRef.Query(ctx, query.Insight)
			if err != nil {
				return DateDatasets{}, err
			}
			return q.insightDateDatasets(ctx, insight, res)
		},
		func(query DateDatasetsForInsight) string { return objref.Key(query.Insight, res) },
	)

	q.Cache.Register(q.InsightByRef)
	q.Cache.Register(q.MeasureDateDatasets)
	q.Cache.Register(q.ItemsDateDatasets)
	q.Cache.Register(q.InsightDateDatasets)
	return q
}

// insightDateDatasets unions the per-measure results so each measure probe is
// shared with KPI widgets on the same measure.
func (q *Queries) insightDateDatasets(ctx context.Context, insight models.Insight, res objref.Resolver) (DateDatasets, error) {
	if len(insight.Measures) == 0 {
		attrs := make([]objref.ObjRef, 0, len(insight.Attributes))
		for _, a := range insight.Attributes {
			attrs = append(attrs, a.DisplayForm)
		}
		return q.ItemsDateDatasets.Query(ctx, DateDatasetsForItems{Attributes: attrs})
	}

	seen := map[string]bool{}
	var union []models.CatalogDateDataset
	preferred := ""
	for i, m := range insight.Measures {
		result, err := q.MeasureDateDatasets.Query(ctx, DateDatasetsForMeasure{Measure: m.Measure})
		if err != nil {
			return DateDatasets{}, err
		}
		if i == 0 {
			preferred = m.Title
		}
		for _, ds := range result.DateDatasets {
			key := objref.Key(ds.Identity.Ref(), res)
			if !seen[key] {
				seen[key] = true
				union = append(union, ds)
			}
		}
	}
	return newDateDatasets(union, preferred), nil
}

func newDateDatasets(datasets []models.CatalogDateDataset, preferredTitle string) DateDatasets {
	sorted := SortDateDatasets(datasets, preferredTitle)
	return DateDatasets{DateDatasets: sorted, Deduplicated: DeduplicateTitles(sorted)}
}

// SortDateDatasets orders by exact title match with preferredTitle, then by
// relevance, then alphabetically. The input is not modified.
func SortDateDatasets(datasets []models.CatalogDateDataset, preferredTitle string) []models.CatalogDateDataset {
	out := append([]models.CatalogDateDataset{}, datasets...)
	preferred := strings.ToLower(strings.TrimSpace(preferredTitle))
	sort.SliceStable(out, func(i, j int) bool {
		mi := preferred != "" && strings.ToLower(out[i].Title) == preferred
		mj := preferred != "" && strings.ToLower(out[j].Title) == preferred
		if mi != mj {
			return mi
		}
		if out[i].Relevance != out[j].Relevance {
			return out[i].Relevance > out[j].Relevance
		}
		return strings.ToLower(out[i].Title) < strings.ToLower(out[j].Title)
	})
	return out
}

// DeduplicateTitles suffixes titles shared by several datasets with the dataset identifier.
func DeduplicateTitles(datasets []models.CatalogDateDataset) []DateDatasetOption {
	counts := map[string]int{}
	for _, ds := range datasets {
		counts[ds.Title]++
	}
	out := make([]DateDatasetOption, 0, len(datasets))
	for _, ds := range datasets {
		title := ds.Title
		if counts[title] > 1 {
			id := ds.Identifier
			if id == "" {
				id = ds.URI
			}
			title = fmt.Sprintf("%s (%s)", title, id)
		}
		out = append(out, DateDatasetOption{CatalogDateDataset: ds, DisplayTitle: title})
	}
	return out
}
