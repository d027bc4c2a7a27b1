package cli

import (
	"deskflow/internal/codec"
	"deskflow/internal/config"
)

const recentIncidents = 10

// cmdStatus opens the store and reports collection health: load outcomes,
// entity counts, and the tail of the incident log.
func cmdStatus(o *IO, cfg config.Config, _ []string) error {
	st, report, err := openStore(cfg)
	if err != nil {
		return err
	}

	warnNonClean(o, report)

	o.Println("data root:", cfg.DataRootAbs)
	o.Println()

	counts := map[string]int{
		codec.Projects:   len(st.ListProjects(nil)),
		codec.Tasks:      len(st.ListTasks(nil)),
		codec.DailyPlans: len(st.ListDailyPlans(nil)),
		codec.Settings:   1,
	}

	for _, name := range codec.CollectionNames {
		o.Printf("  %-12s %5d items   load: %s\n", name, counts[name], report.Outcomes[name])
	}

	incidents, err := st.Incidents()
	if err != nil {
		o.Warn("incident log unreadable: " + err.Error())

		return nil
	}

	if len(incidents) == 0 {
		return nil
	}

	o.Println()
	o.Println("recent incidents:")

	start := 0
	if len(incidents) > recentIncidents {
		start = len(incidents) - recentIncidents
	}

	for _, inc := range incidents[start:] {
		o.Printf("  %s  %-12s %-24s %s\n",
			inc.Time.Format("2006-01-02 15:04:05"), inc.Collection, inc.Outcome, inc.Reason)
	}

	return nil
}
