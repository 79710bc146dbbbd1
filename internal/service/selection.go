package service

import "github.com/noah-isme/member-console/internal/models"

// Selection is the set of member ids picked in one directory view. Insertion
// order is kept so bulk requests and responses are stable.
type Selection struct {
	ids   map[string]struct{}
	order []string
}

// NewSelection returns an empty selection.
func NewSelection() *Selection {
	return &Selection{ids: map[string]struct{}{}}
}

// Toggle flips membership of id and reports whether it is now selected.
func (s *Selection) Toggle(id string) bool {
	if _, ok := s.ids[id]; ok {
		delete(s.ids, id)
		s.order = removeString(s.order, id)
		return false
	}
	s.ids[id] = struct{}{}
	s.order = append(s.order, id)
	return true
}

// SelectAll adds every id to the selection.
func (s *Selection) SelectAll(ids []string) {
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := s.ids[id]; ok {
			continue
		}
		s.ids[id] = struct{}{}
		s.order = append(s.order, id)
	}
}

// Remove drops id if present.
func (s *Selection) Remove(id string) {
	if _, ok := s.ids[id]; !ok {
		return
	}
	delete(s.ids, id)
	s.order = removeString(s.order, id)
}

// Clear empties the selection.
func (s *Selection) Clear() {
	s.ids = map[string]struct{}{}
	s.order = nil
}

// Contains reports whether id is selected.
func (s *Selection) Contains(id string) bool {
	_, ok := s.ids[id]
	return ok
}

// Len returns the number of selected ids.
func (s *Selection) Len() int {
	return len(s.order)
}

// IDs returns a copy of the selected ids in insertion order.
func (s *Selection) IDs() []string {
	return append([]string{}, s.order...)
}

func removeString(list []string, target string) []string {
	out := list[:0]
	for _, v := range list {
		if v != target {
			out = append(out, v)
		}
	}
	return out
}

// ComputeAssignmentStatus aggregates whether the selected members hold the role.
// Ids missing from members are ignored; an empty or fully unknown selection
// yields all flags false.
func ComputeAssignmentStatus(selected []string, members map[string]models.Member, kind models.RoleKind) models.AssignmentStatus {
	var assigned, unassigned int
	for _, id := range selected {
		member, ok := members[id]
		if !ok {
			continue
		}
		if member.HealthcareTeam.Assignment(kind) != nil {
			assigned++
		} else {
			unassigned++
		}
	}
	known := assigned + unassigned
	if known == 0 {
		return models.AssignmentStatus{}
	}
	return models.AssignmentStatus{
		AllAssigned:   assigned == known,
		AllUnassigned: unassigned == known,
		Mixed:         assigned > 0 && unassigned > 0,
	}
}
