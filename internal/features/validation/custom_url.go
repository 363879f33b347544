package validation

import (
	"regexp"

	"go-dashboard/internal/features/store"
	"go-dashboard/internal/models"
	"go-dashboard/pkg/objref"
)

const attributeTitleParam = "attribute_title"

var customURLParam = regexp.MustCompile(`\{([a-z_]+)(?:\(([^)]*)\))?\}`)

var staticURLParams = map[string]bool{
	"insight_id":      true,
	"dashboard_id":    true,
	"widget_id":       true,
	"project_id":      true,
	"workspace_id":    true,
	"client_id":       true,
	"data_product_id": true,
}

// CustomURLParameter is one {placeholder} of a custom url drill.
type CustomURLParameter struct {
	Raw      string
	Name     string
	Argument string
}

func ParseCustomURL(url string) []CustomURLParameter {
	matches := customURLParam.FindAllStringSubmatch(url, -1)
	out := make([]CustomURLParameter, 0, len(matches))
	for _, m := range matches {
		out = append(out, CustomURLParameter{Raw: m[0], Name: m[1], Argument: m[2]})
	}
	return out
}

// InvalidCustomURLParameters lists the placeholders of url that cannot be
// filled. attribute_title placeholders must name one of the available display forms.
func InvalidCustomURLParameters(url string, available []objref.ObjRef, res objref.Resolver) []string {
	var invalid []string
	for _, p := range ParseCustomURL(url) {
		switch {
		case staticURLParams[p.Name] && p.Argument == "":
		case p.Name == attributeTitleParam && p.Argument != "" && objref.Contains(available, objref.IDRef(p.Argument), res):
		default:
			invalid = append(invalid, p.Raw)
		}
	}
	return invalid
}

// CustomURLMarkers checks the custom url drills of a widget against the display
// forms of its insight.
func CustomURLMarkers(drills []models.Drill, insight *models.Insight, res objref.Resolver) []store.InvalidCustomURLParameter {
	var available []objref.ObjRef
	if insight != nil {
		for _, a := range insight.Attributes {
			available = append(available, a.DisplayForm)
		}
	}

	var out []store.InvalidCustomURLParameter
	for _, d := range drills {
		if d.Type != models.DrillToCustomURL {
			continue
		}
		invalid := InvalidCustomURLParameters(d.CustomURL, available, res)
		if len(invalid) == 0 {
			continue
		}
		id := d.LocalIdentifier
		if id == "" {
			id = d.Origin.LocalIdentifier
		}
		out = append(out, store.InvalidCustomURLParameter{DrillLocalIdentifier: id, InvalidParameters: invalid})
	}
	return out
}
