package store

// Outcome classifies how loading a collection went. Anything other than
// OutcomeClean is user-visible: the caller should surface it, and the store
// records it in the incident log.
type Outcome int

const (
	// OutcomeClean: the primary file decoded as-is.
	OutcomeClean Outcome = iota

	// OutcomeCreated: no primary file existed; an empty default collection
	// was created. Expected on first run.
	OutcomeCreated

	// OutcomeCorruptedRecovered: the primary file failed to decode and was
	// replaced from the most recent valid backup. The corrupted file is
	// renamed aside, never deleted.
	OutcomeCorruptedRecovered

	// OutcomeCorruptedUnrecoverable: the primary file failed to decode and
	// no valid backup existed; the collection starts empty.
	OutcomeCorruptedUnrecoverable
)

func (o Outcome) String() string {
	switch o {
	case OutcomeClean:
		return "clean"
	case OutcomeCreated:
		return "created"
	case OutcomeCorruptedRecovered:
		return "corrupted_recovered"
	case OutcomeCorruptedUnrecoverable:
		return "corrupted_unrecoverable"
	default:
		return "unknown"
	}
}

// Clean reports whether the outcome needs no user attention.
func (o Outcome) Clean() bool {
	return o == OutcomeClean
}

// LoadReport summarizes the load outcome of every collection.
type LoadReport struct {
	Outcomes map[string]Outcome
}

// AllClean reports whether every collection loaded without incident.
func (r *LoadReport) AllClean() bool {
	for _, o := range r.Outcomes {
		if !o.Clean() {
			return false
		}
	}

	return true
}
