package store

import (
	"fmt"

	"go-dashboard/internal/models"
)

func init() {
	reducers[FilterContextSet] = setFilterContext
	reducers[FilterContextChangeDateSelection] = upsertDateFilter
	reducers[FilterContextAddAttribute] = addAttributeFilter
	reducers[FilterContextRemoveAttributes] = removeAttributeFilters
	reducers[FilterContextMoveAttribute] = moveAttributeFilter
	reducers[FilterContextChangeSelection] = changeAttributeSelection
	reducers[FilterContextSetParents] = setAttributeFilterParents
}

// The date filter, when present, is always the first item. Attribute filter
// indexes used by actions therefore skip it.

func dateFilterOffset(filters []models.FilterContextItem) int {
	if len(filters) > 0 && filters[0].IsDate() {
		return 1
	}
	return 0
}

func setFilterContext(s *State, a Action) error {
	p, err := payloadOf[SetFilterContext](a)
	if err != nil {
		return err
	}

	filters := make([]models.FilterContextItem, 0, len(p.Filters))
	var date *models.FilterContextItem
	for i := range p.Filters {
		if p.Filters[i].IsDate() {
			if date == nil {
				date = &p.Filters[i]
			}
			continue
		}
		filters = append(filters, p.Filters[i])
	}
	if date != nil {
		filters = append([]models.FilterContextItem{*date}, filters...)
	}

	s.FilterContext = FilterContextState{Identity: p.Identity, Filters: filters}
	return nil
}

func upsertDateFilter(s *State, a Action) error {
	p, err := payloadOf[UpsertDateFilter](a)
	if err != nil {
		return err
	}
	filter := p.Filter
	if dateFilterOffset(s.FilterContext.Filters) == 1 {
		s.FilterContext.Filters[0] = models.FilterContextItem{DateFilter: &filter}
		return nil
	}
	s.FilterContext.Filters = append([]models.FilterContextItem{{DateFilter: &filter}}, s.FilterContext.Filters...)
	return nil
}

func addAttributeFilter(s *State, a Action) error {
	p, err := payloadOf[AddAttributeFilter](a)
	if err != nil {
		return err
	}
	filter := p.Filter
	if filter.FilterElementsBy == nil {
		filter.FilterElementsBy = []models.AttributeFilterParent{}
	}

	offset := dateFilterOffset(s.FilterContext.Filters)
	index := p.Index
	if index != -1 {
		index += offset
	}
	filters, err := insertAt(s.FilterContext.Filters, index, models.FilterContextItem{AttributeFilter: &filter})
	if err != nil {
		return err
	}
	s.FilterContext.Filters = filters
	return nil
}

// removeAttributeFilters also drops parent edges pointing at the removed filters.
func removeAttributeFilters(s *State, a Action) error {
	p, err := payloadOf[RemoveAttributeFilters](a)
	if err != nil {
		return err
	}
	removed := make(map[string]bool, len(p.LocalIDs))
	for _, id := range p.LocalIDs {
		removed[id] = true
	}

	filters := make([]models.FilterContextItem, 0, len(s.FilterContext.Filters))
	for _, item := range s.FilterContext.Filters {
		if item.IsAttribute() && removed[item.AttributeFilter.LocalIdentifier] {
			continue
		}
		if item.IsAttribute() {
			parents := make([]models.AttributeFilterParent, 0, len(item.AttributeFilter.FilterElementsBy))
			for _, parent := range item.AttributeFilter.FilterElementsBy {
				if !removed[parent.FilterLocalIdentifier] {
					parents = append(parents, parent)
				}
			}
			item.AttributeFilter.FilterElementsBy = parents
		}
		filters = append(filters, item)
	}
	s.FilterContext.Filters = filters
	return nil
}

func moveAttributeFilter(s *State, a Action) error {
	p, err := payloadOf[MoveAttributeFilter](a)
	if err != nil {
		return err
	}
	current := findAttributeFilter(s.FilterContext.Filters, p.LocalID)
	if current < 0 {
		return fmt.Errorf("attribute filter %s not found", p.LocalID)
	}
	item := s.FilterContext.Filters[current]
	rest := removeAt(s.FilterContext.Filters, current)

	index := p.Index
	if index != -1 {
		index += dateFilterOffset(rest)
	}
	filters, err := insertAt(rest, index, item)
	if err != nil {
		return err
	}
	s.FilterContext.Filters = filters
	return nil
}

func changeAttributeSelection(s *State, a Action) error {
	p, err := payloadOf[ChangeAttributeSelection](a)
	if err != nil {
		return err
	}
	i := findAttributeFilter(s.FilterContext.Filters, p.LocalID)
	if i < 0 {
		return fmt.Errorf("attribute filter %s not found", p.LocalID)
	}
	filter := s.FilterContext.Filters[i].AttributeFilter
	filter.Elements = p.Elements
	filter.NegativeSelection = p.Negative
	return nil
}

func setAttributeFilterParents(s *State, a Action) error {
	p, err := payloadOf[SetAttributeFilterParents](a)
	if err != nil {
		return err
	}
	i := findAttributeFilter(s.FilterContext.Filters, p.LocalID)
	if i < 0 {
		return fmt.Errorf("attribute filter %s not found", p.LocalID)
	}
	parents := p.Parents
	if parents == nil {
		parents = []models.AttributeFilterParent{}
	}
	s.FilterContext.Filters[i].AttributeFilter.FilterElementsBy = parents
	return nil
}

func findAttributeFilter(filters []models.FilterContextItem, localID string) int {
	for i, item := range filters {
		if item.IsAttribute() && item.AttributeFilter.LocalIdentifier == localID {
			return i
		}
	}
	return -1
}
