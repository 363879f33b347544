package validation

import (
	"reflect"

	"go-dashboard/internal/features/events"
	"go-dashboard/internal/models"
	"go-dashboard/pkg/objref"
)

// DrillLookups answers whether the objects a drill points at exist. A nil
// lookup accepts everything.
type DrillLookups struct {
	Resolver    objref.Resolver
	Insight     func(ref objref.ObjRef) bool
	Dashboard   func(ref objref.ObjRef) bool
	DisplayForm func(ref objref.ObjRef) (models.DisplayForm, bool)
}

// NormalizeDrill rewrites every ref of the drill into its canonical form.
func NormalizeDrill(d models.Drill, res objref.Resolver) models.Drill {
	out := d.Clone()
	canonical := func(r *objref.ObjRef) {
		if r != nil {
			*r = objref.Canonical(*r, res)
		}
	}
	canonical(out.Target)
	canonical(out.InsightAttributeDisplayForm)
	canonical(out.HyperlinkDisplayForm)
	return out
}

// DrillsEqual compares drills structurally after normalizing their refs. The
// drill local identifier is not part of the comparison.
func DrillsEqual(a, b models.Drill, res objref.Resolver) bool {
	na, nb := NormalizeDrill(a, res), NormalizeDrill(b, res)
	na.LocalIdentifier, nb.LocalIdentifier = "", ""
	return reflect.DeepEqual(na, nb)
}

// SameOrigin reports whether both drills start from the same measure or attribute.
func SameOrigin(a, b models.Drill) bool {
	return a.Origin == b.Origin
}

// MergeDrills applies proposed drills onto existing ones. A proposed drill
// replaces the existing drill with the same origin in place; drills with a new
// origin are appended in the order given. A proposed drill equal to the one it
// replaces is reported neither as added nor as updated.
func MergeDrills(existing, proposed []models.Drill, res objref.Resolver) (merged, added, updated []models.Drill) {
	merged = make([]models.Drill, 0, len(existing)+len(proposed))
	for _, d := range existing {
		merged = append(merged, d.Clone())
	}
	added, updated = []models.Drill{}, []models.Drill{}

	for _, p := range proposed {
		normalized := NormalizeDrill(p, res)
		replaced := false
		for i := range merged {
			if SameOrigin(merged[i], normalized) {
				if normalized.LocalIdentifier == "" {
					normalized.LocalIdentifier = merged[i].LocalIdentifier
				}
				if !DrillsEqual(merged[i], normalized, res) {
					updated = append(updated, normalized)
				}
				merged[i] = normalized
				replaced = true
				break
			}
		}
		if !replaced {
			merged = append(merged, normalized)
			added = append(added, normalized)
		}
	}
	return merged, added, updated
}

// RemoveDrillsByOrigin drops the drills starting from any of the origins.
func RemoveDrillsByOrigin(drills []models.Drill, origins []string) (kept, removed []models.Drill) {
	drop := make(map[string]bool, len(origins))
	for _, o := range origins {
		drop[o] = true
	}
	kept, removed = []models.Drill{}, []models.Drill{}
	for _, d := range drills {
		if drop[d.Origin.LocalIdentifier] {
			removed = append(removed, d)
			continue
		}
		kept = append(kept, d)
	}
	return kept, removed
}

// ValidateNewDrill checks a drill a command is about to add.
func ValidateNewDrill(d models.Drill, insight *models.Insight, l DrillLookups) error {
	if d.Type == models.DrillToLegacyDashboard {
		return events.NotSupported("drills to legacy dashboards cannot be added")
	}
	return ValidateDrill(d, insight, l)
}

// ValidateDrill checks a drill against the insight of its widget and the
// objects it targets.
func ValidateDrill(d models.Drill, insight *models.Insight, l DrillLookups) error {
	if !d.Type.Valid() {
		return events.InvalidArgs("unknown drill type %q", d.Type)
	}
	if err := validateOrigin(d, insight); err != nil {
		return err
	}

	switch d.Type {
	case models.DrillToInsight:
		if d.Target == nil || d.Target.IsZero() {
			return events.InvalidArgs("drill from %s has no target insight", d.Origin.LocalIdentifier)
		}
		if l.Insight != nil && !l.Insight(*d.Target) {
			return events.InvalidArgs("drill target insight %s does not exist", d.Target)
		}
	case models.DrillToDashboard:
		if d.Target != nil && l.Dashboard != nil && !l.Dashboard(*d.Target) {
			return events.InvalidArgs("drill target dashboard %s does not exist", d.Target)
		}
	case models.DrillToLegacyDashboard:
		if d.Target == nil || d.Target.IsZero() {
			return events.InvalidArgs("legacy drill from %s has no target dashboard", d.Origin.LocalIdentifier)
		}
	case models.DrillToCustomURL:
		if d.CustomURL == "" {
			return events.InvalidArgs("drill from %s has an empty custom url", d.Origin.LocalIdentifier)
		}
	case models.DrillToAttributeURL:
		return validateAttributeURLDrill(d, insight, l)
	}
	return nil
}

func validateOrigin(d models.Drill, insight *models.Insight) error {
	switch d.Origin.Type {
	case models.DrillFromMeasure:
		if insight != nil && !insight.HasMeasure(d.Origin.LocalIdentifier) {
			return events.InvalidArgs("drill origin measure %q is not in insight %s", d.Origin.LocalIdentifier, insight.Identity.Ref())
		}
	case models.DrillFromAttribute:
		if insight != nil {
			if _, ok := insight.AttributeByLocalID(d.Origin.LocalIdentifier); !ok {
				return events.InvalidArgs("drill origin attribute %q is not in insight %s", d.Origin.LocalIdentifier, insight.Identity.Ref())
			}
		}
	default:
		return events.InvalidArgs("unknown drill origin type %q", d.Origin.Type)
	}
	return nil
}

func validateAttributeURLDrill(d models.Drill, insight *models.Insight, l DrillLookups) error {
	if d.InsightAttributeDisplayForm == nil || d.HyperlinkDisplayForm == nil {
		return events.InvalidArgs("attribute url drill from %s needs both display forms", d.Origin.LocalIdentifier)
	}
	if insight != nil {
		found := false
		for _, a := range insight.Attributes {
			if objref.Equal(a.DisplayForm, *d.InsightAttributeDisplayForm, l.Resolver) {
				found = true
				break
			}
		}
		if !found {
			return events.InvalidArgs("display form %s is not used by insight %s", d.InsightAttributeDisplayForm, insight.Identity.Ref())
		}
	}
	if l.DisplayForm == nil {
		return nil
	}

	source, ok := l.DisplayForm(*d.InsightAttributeDisplayForm)
	if !ok {
		return events.InvalidArgs("display form %s does not exist", d.InsightAttributeDisplayForm)
	}
	link, ok := l.DisplayForm(*d.HyperlinkDisplayForm)
	if !ok {
		return events.InvalidArgs("display form %s does not exist", d.HyperlinkDisplayForm)
	}
	if link.Type != models.DisplayFormTypeHyperlink {
		return events.InvalidArgs("display form %s is not a hyperlink", d.HyperlinkDisplayForm)
	}
	if link.Attribute != source.Attribute {
		return events.InvalidArgs("display forms %s and %s belong to different attributes", d.InsightAttributeDisplayForm, d.HyperlinkDisplayForm)
	}
	return nil
}

// InvalidDrills re-checks every drill of a widget and returns the failing ones.
func InvalidDrills(drills []models.Drill, insight *models.Insight, l DrillLookups) []models.Drill {
	var out []models.Drill
	for _, d := range drills {
		if err := ValidateDrill(d, insight, l); err != nil {
			out = append(out, d)
		}
	}
	return out
}
