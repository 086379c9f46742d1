package ir

// Clone returns a deep copy of r. Mutating the clone never affects r.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	c := *r
	c.Notes = cloneSlice(r.Notes)
	c.ExampleNotes = cloneSlice(r.ExampleNotes)
	c.ExclusionNotes = cloneSlice(r.ExclusionNotes)
	c.LegislationRefs = cloneSlice(r.LegislationRefs)
	c.Relations = cloneSlice(r.Relations)
	c.Owners = cloneSlice(r.Owners)
	c.Participants = cloneSlice(r.Participants)
	c.Children = cloneSlice(r.Children)

	if r.Retention != nil {
		p := *r.Retention
		p.Values = cloneSlice(r.Retention.Values)
		p.Justification = cloneCriteria(r.Retention.Justification)
		c.Retention = &p
	}
	if r.Disposition != nil {
		d := *r.Disposition
		d.Justification = cloneCriteria(r.Disposition.Justification)
		c.Disposition = &d
	}
	if r.CriterionSeq != nil {
		c.CriterionSeq = make(map[ScheduleKind]int, len(r.CriterionSeq))
		for k, v := range r.CriterionSeq {
			c.CriterionSeq[k] = v
		}
	}
	return &c
}

// Clone returns a deep copy of the record set.
func (s RecordSet) Clone() RecordSet {
	out := RecordSet{
		Sheets:     make([]Sheet, len(s.Sheets)),
		IndexTerms: cloneSlice(s.IndexTerms),
		Catalogs: Catalogs{
			Entities:    cloneSlice(s.Catalogs.Entities),
			EntityTypes: cloneSlice(s.Catalogs.EntityTypes),
			Legislation: cloneSlice(s.Catalogs.Legislation),
		},
	}
	for i, sh := range s.Sheets {
		recs := make([]*Record, len(sh.Records))
		for j, r := range sh.Records {
			recs[j] = r.Clone()
		}
		out.Sheets[i] = Sheet{Name: sh.Name, Records: recs}
	}
	return out
}

func cloneCriteria(in []Criterion) []Criterion {
	if in == nil {
		return nil
	}
	out := make([]Criterion, len(in))
	for i, c := range in {
		c.LegislationRefs = cloneSlice(c.LegislationRefs)
		c.ProcessRefs = cloneSlice(c.ProcessRefs)
		out[i] = c
	}
	return out
}

// cloneSlice copies a slice of value types, preserving nil.
func cloneSlice[T any](in []T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	copy(out, in)
	return out
}
