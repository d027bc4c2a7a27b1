package cli

import (
	"fmt"

	"deskflow/internal/config"
	"deskflow/internal/export"
	"deskflow/internal/fs"
)

// cmdImport merges a JSON export file into the store and prints the merge
// report.
func cmdImport(o *IO, cfg config.Config, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("import: expected exactly one input path")
	}

	doc, err := export.ReadDocument(fs.NewReal(), args[0])
	if err != nil {
		return err
	}

	st, loadReport, err := openStore(cfg)
	if err != nil {
		return err
	}

	warnNonClean(o, loadReport)

	report, err := export.Merge(st, doc)
	if err != nil {
		return err
	}

	o.Println("merged", args[0])
	printCounts(o, "projects", report.Projects)
	printCounts(o, "tasks", report.Tasks)
	printCounts(o, "daily plans", report.DailyPlans)

	if report.SettingsReplaced {
		o.Println("  settings     replaced (imported copy was newer)")
	}

	if repaired := report.Repairs.Total(); repaired > 0 {
		o.Println("  repaired", repaired, "stale references")
	}

	return nil
}

func printCounts(o *IO, name string, c export.CollectionCounts) {
	o.Printf("  %-12s %d inserted, %d replaced, %d kept local\n",
		name, c.Inserted, c.Replaced, c.Skipped)
}
