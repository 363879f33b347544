package validation

import (
	"go-dashboard/internal/models"
)

// DetectParentCycle reports whether giving child the parents would close a
// cycle in the filter dependency graph. The child's current edges are ignored
// because they are being replaced.
func DetectParentCycle(filters []models.AttributeFilter, child string, parents []models.AttributeFilterParent) bool {
	edges := make(map[string][]string, len(filters))
	for _, f := range filters {
		if f.LocalIdentifier == child {
			continue
		}
		for _, p := range f.FilterElementsBy {
			edges[f.LocalIdentifier] = append(edges[f.LocalIdentifier], p.FilterLocalIdentifier)
		}
	}

	visited := map[string]bool{}
	stack := make([]string, 0, len(parents))
	for _, p := range parents {
		stack = append(stack, p.FilterLocalIdentifier)
	}
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if current == child {
			return true
		}
		if visited[current] {
			continue
		}
		visited[current] = true
		stack = append(stack, edges[current]...)
	}
	return false
}
