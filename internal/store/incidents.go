package store

import (
	"encoding/json"
	"time"
)

// Incident is one line of the append-only incident log. Every non-clean
// load outcome produces exactly one entry; recovery never happens silently.
type Incident struct {
	Time       time.Time `json:"time"`
	Collection string    `json:"collection"`
	Outcome    string    `json:"outcome"`
	Reason     string    `json:"reason"`
}

// recordIncident appends one JSONL entry and mirrors it to the console log.
// A failing log write must not fail the load — availability wins — so the
// error is only logged.
func (s *Store) recordIncident(name string, outcome Outcome, reason string) {
	incident := Incident{
		Time:       s.now().UTC(),
		Collection: name,
		Outcome:    outcome.String(),
		Reason:     reason,
	}

	switch outcome {
	case OutcomeCreated:
		s.log.Info("collection created", "collection", name)
	default:
		s.log.Warn("collection recovery", "collection", name, "outcome", outcome.String(), "reason", reason)
	}

	line, err := json.Marshal(incident)
	if err != nil {
		s.log.Error("marshaling incident", "err", err)

		return
	}

	line = append(line, '\n')

	if err := s.fs.AppendFile(s.paths.IncidentLog(), line, filePerms); err != nil {
		s.log.Error("appending to incident log", "err", err)
	}
}

// Incidents reads the incident log back, newest last. Missing log means no
// incidents yet.
func (s *Store) Incidents() ([]Incident, error) {
	exists, err := s.fs.Exists(s.paths.IncidentLog())
	if err != nil || !exists {
		return nil, err
	}

	data, err := s.fs.ReadFile(s.paths.IncidentLog())
	if err != nil {
		return nil, err
	}

	var out []Incident

	splitLines(data)(func(line []byte) bool {
		var inc Incident

		if err := json.Unmarshal(line, &inc); err != nil {
			// A torn final line can happen if the process died mid-append.
			return true
		}

		out = append(out, inc)
		return true
	})

	return out, nil
}

// splitLines yields non-empty newline-separated chunks.
func splitLines(data []byte) func(func([]byte) bool) {
	return func(yield func([]byte) bool) {
		start := 0

		for i, b := range data {
			if b != '\n' {
				continue
			}

			if i > start {
				if !yield(data[start:i]) {
					return
				}
			}

			start = i + 1
		}

		if start < len(data) {
			yield(data[start:])
		}
	}
}
