package state

import "slices"

// MaxSelection caps how many entities can be selected together.
const MaxSelection = 4

// Selection is an ordered set of entity ids, never larger than
// MaxSelection.
type Selection struct {
	ids []string
}

// Toggle applies a click on id. A plain click selects id alone, or clears
// the selection when id was already the only member. A multi-select click
// removes id if present and otherwise adds it while below the cap.
func (s *Selection) Toggle(id string, multi bool) {
	if !multi {
		if len(s.ids) == 1 && s.ids[0] == id {
			s.ids = nil
			return
		}
		s.ids = []string{id}
		return
	}
	if i := slices.Index(s.ids, id); i >= 0 {
		s.ids = slices.Delete(s.ids, i, i+1)
		return
	}
	if len(s.ids) >= MaxSelection {
		return
	}
	s.ids = append(s.ids, id)
}

// Remove drops id from the set.
func (s *Selection) Remove(id string) {
	if i := slices.Index(s.ids, id); i >= 0 {
		s.ids = slices.Delete(s.ids, i, i+1)
	}
}

func (s *Selection) Clear() { s.ids = nil }

func (s *Selection) Has(id string) bool { return slices.Contains(s.ids, id) }

func (s *Selection) Len() int { return len(s.ids) }

// IDs returns a copy of the members in selection order.
func (s *Selection) IDs() []string { return slices.Clone(s.ids) }
