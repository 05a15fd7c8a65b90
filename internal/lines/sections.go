package lines

// Member is one segment of a section group with its position in the input.
type Member struct {
	Line    int
	Segment Segment
	Index   int
}

// SectionKey identifies a shared section. A numeric id and the string with
// the same digits are different sections.
type SectionKey struct {
	ID      string
	Numeric bool
}

// Key returns the section key of a segment.
func (s Segment) Key() SectionKey {
	return SectionKey{ID: s.SectionID, Numeric: s.NumericSection}
}

// SectionGroups indexes segments by shared section identifier.
// Groups are derived on every pass and never stored.
type SectionGroups struct {
	order  []SectionKey
	groups map[SectionKey][]Member
}

// GroupSections collects line-shaped segments carrying a section id. Matching
// is an exact comparison on the identifier and its JSON type.
func GroupSections(segments []Segment) SectionGroups {
	g := SectionGroups{groups: make(map[SectionKey][]Member)}

	for i, s := range segments {
		if !s.IsLine() || s.SectionID == "" {
			continue
		}
		key := s.Key()
		if _, ok := g.groups[key]; !ok {
			g.order = append(g.order, key)
		}
		g.groups[key] = append(g.groups[key], Member{
			Line:    s.Line,
			Segment: s,
			Index:   i,
		})
	}

	return g
}

// IDs returns section keys in first-seen order.
func (g SectionGroups) IDs() []SectionKey {
	return append([]SectionKey(nil), g.order...)
}

// Members returns the members of one section, in input order.
func (g SectionGroups) Members(key SectionKey) []Member {
	return g.groups[key]
}

// Len returns the number of distinct sections.
func (g SectionGroups) Len() int {
	return len(g.order)
}

// Lines returns the line numbers of a section's members, duplicates included.
func (g SectionGroups) Lines(key SectionKey) []int {
	members := g.groups[key]
	lines := make([]int, len(members))
	for i, m := range members {
		lines[i] = m.Line
	}
	return lines
}
