package slot

// Merge folds the fields carried by update into prior using field-level
// precedence: an explicit value in update overwrites any prior value for that
// field (the latest user statement wins); an inferred value only overwrites a
// prior defaulted or absent value, never an explicit one; a defaulted value
// only fills an absent field.
func Merge(prior, update Model) Model {
	out := prior.Clone()

	for field, prov := range update.Provenance {
		if !wins(prov, prior.Provenance[field], prior.Has(field)) {
			continue
		}
		switch field {
		case FieldIntent:
			out.Intent = update.Intent
		case FieldDate:
			if update.DateRange != nil {
				dr := *update.DateRange
				out.DateRange = &dr
			}
		case FieldTime:
			if update.TimeRange != nil {
				tr := *update.TimeRange
				out.TimeRange = &tr
			}
		case FieldDuration:
			out.Duration = update.Duration
		case FieldAttendees:
			out.Attendees = append([]string(nil), update.Attendees...)
		}
		out.Provenance[field] = prov
	}

	if update.Title != "" && (out.Title == "" || update.Provenance[FieldIntent] == Explicit) {
		out.Title = update.Title
	}

	return out
}

func wins(incoming, existing Provenance, present bool) bool {
	switch incoming {
	case Explicit:
		return true
	case Inferred:
		return !present || existing == Defaulted
	case Defaulted:
		return !present
	}
	return false
}
