package models

import (
	"go-dashboard/pkg/objref"
)

type DateFilterOption struct {
	LocalIdentifier string `bson:"local_identifier" json:"localIdentifier"`
	Name            string `bson:"name,omitempty" json:"name,omitempty"`
	Visible         bool   `bson:"visible" json:"visible"`
}

type RelativeForm struct {
	DateFilterOption `bson:",inline"`
	Granularities    []DateGranularity `bson:"granularities" json:"availableGranularities"`
}

type RelativePreset struct {
	DateFilterOption `bson:",inline"`
	Granularity      DateGranularity `bson:"granularity" json:"granularity"`
	From             int             `bson:"from" json:"from"`
	To               int             `bson:"to" json:"to"`
}

// DateFilterConfig describes which date filter options a user may pick.
type DateFilterConfig struct {
	objref.Identity `bson:",inline"`
	AllTime         DateFilterOption `bson:"all_time" json:"allTime"`
	AbsoluteForm    DateFilterOption `bson:"absolute_form" json:"absoluteForm"`
	RelativeForm    RelativeForm     `bson:"relative_form" json:"relativeForm"`
	RelativePresets []RelativePreset `bson:"relative_presets" json:"relativePresets"`
}

type DateFilterConfigMode string

const (
	DateFilterModeActive   DateFilterConfigMode = "active"
	DateFilterModeReadonly DateFilterConfigMode = "readonly"
	DateFilterModeHidden   DateFilterConfigMode = "hidden"
)

// DateFilterConfigOverride is the dashboard level adjustment of the workspace config.
type DateFilterConfigOverride struct {
	Mode              DateFilterConfigMode `bson:"mode,omitempty" json:"mode,omitempty"`
	FilterName        string               `bson:"filter_name,omitempty" json:"filterName,omitempty"`
	HideOptions       []string             `bson:"hide_options,omitempty" json:"hideOptions,omitempty"`
	HideGranularities []DateGranularity    `bson:"hide_granularities,omitempty" json:"hideGranularities,omitempty"`
	AddPresets        []RelativePreset     `bson:"add_presets,omitempty" json:"addPresets,omitempty"`
}

// MergeDateFilterConfig applies the dashboard override onto the workspace config.
// When the override would leave no visible option the workspace config is used
// and valid is false.
func MergeDateFilterConfig(workspace DateFilterConfig, override *DateFilterConfigOverride) (effective DateFilterConfig, valid bool) {
	if override == nil {
		return workspace, true
	}

	hidden := make(map[string]bool, len(override.HideOptions))
	for _, id := range override.HideOptions {
		hidden[id] = true
	}
	hiddenGranularity := make(map[DateGranularity]bool, len(override.HideGranularities))
	for _, g := range override.HideGranularities {
		hiddenGranularity[g] = true
	}

	effective = workspace
	effective.AllTime.Visible = workspace.AllTime.Visible && !hidden[workspace.AllTime.LocalIdentifier]
	effective.AbsoluteForm.Visible = workspace.AbsoluteForm.Visible && !hidden[workspace.AbsoluteForm.LocalIdentifier]
	effective.RelativeForm.Visible = workspace.RelativeForm.Visible && !hidden[workspace.RelativeForm.LocalIdentifier]

	effective.RelativeForm.Granularities = nil
	for _, g := range workspace.RelativeForm.Granularities {
		if !hiddenGranularity[g] {
			effective.RelativeForm.Granularities = append(effective.RelativeForm.Granularities, g)
		}
	}

	effective.RelativePresets = nil
	for _, p := range workspace.RelativePresets {
		if hidden[p.LocalIdentifier] || hiddenGranularity[p.Granularity] {
			continue
		}
		effective.RelativePresets = append(effective.RelativePresets, p)
	}
	effective.RelativePresets = append(effective.RelativePresets, override.AddPresets...)

	if !effective.hasVisibleOption() {
		return workspace, false
	}
	return effective, true
}

func (c DateFilterConfig) hasVisibleOption() bool {
	if c.AllTime.Visible || c.AbsoluteForm.Visible {
		return true
	}
	if c.RelativeForm.Visible && len(c.RelativeForm.Granularities) > 0 {
		return true
	}
	for _, p := range c.RelativePresets {
		if p.Visible {
			return true
		}
	}
	return false
}

// AllowsGranularity reports whether a relative selection with g can be made.
func (c DateFilterConfig) AllowsGranularity(g DateGranularity) bool {
	if c.RelativeForm.Visible {
		for _, candidate := range c.RelativeForm.Granularities {
			if candidate == g {
				return true
			}
		}
	}
	for _, p := range c.RelativePresets {
		if p.Visible && p.Granularity == g {
			return true
		}
	}
	return false
}
