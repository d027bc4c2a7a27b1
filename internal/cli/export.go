package cli

import (
	"fmt"
	"strings"
	"time"

	flag "github.com/spf13/pflag"

	"deskflow/internal/config"
	"deskflow/internal/export"
	"deskflow/internal/fs"
	"deskflow/internal/model"
)

// cmdExport writes store contents to a file. The default is the full JSON
// document; --collection narrows the output to one collection, and
// --format=csv switches to the flat projection (which always needs a
// collection).
func cmdExport(o *IO, cfg config.Config, args []string) error {
	flags := flag.NewFlagSet("export", flag.ContinueOnError)
	flags.SetOutput(&strings.Builder{})

	format := flags.String("format", "json", "output format: json or csv")
	collection := flags.String("collection", "", "projects, tasks, or daily_plans; empty exports everything")

	if err := flags.Parse(args); err != nil {
		return err
	}

	rest := flags.Args()
	if len(rest) != 1 {
		return fmt.Errorf("export: expected exactly one output path")
	}

	path := rest[0]

	st, report, err := openStore(cfg)
	if err != nil {
		return err
	}

	warnNonClean(o, report)

	fsys := fs.NewReal()

	switch *format {
	case "json":
		doc := export.NewDocument(
			st.ListProjects(nil), st.ListTasks(nil), st.ListDailyPlans(nil),
			st.GetSettings(), time.Now())

		if *collection != "" {
			doc, err = narrowTo(doc, *collection)
			if err != nil {
				return err
			}
		}

		if err := export.WriteJSON(fsys, path, doc); err != nil {
			return err
		}

		o.Println("exported", len(doc.Projects), "projects,", len(doc.Tasks), "tasks,",
			len(doc.DailyPlans), "daily plans to", path)

	case "csv":
		switch *collection {
		case "projects":
			err = export.WriteProjectsCSV(fsys, path, st.ListProjects(nil))
		case "tasks":
			err = export.WriteTasksCSV(fsys, path, st.ListTasks(nil))
		case "daily_plans":
			err = export.WriteDailyPlansCSV(fsys, path, st.ListDailyPlans(nil))
		default:
			return fmt.Errorf("export: --format=csv requires --collection=projects|tasks|daily_plans")
		}

		if err != nil {
			return err
		}

		o.Println("exported", *collection, "to", path)

	default:
		return fmt.Errorf("export: unknown format %q", *format)
	}

	return nil
}

// narrowTo reduces a full document to a single collection. The other
// collections become empty and settings are dropped.
func narrowTo(doc export.Document, collection string) (export.Document, error) {
	narrowed := doc
	narrowed.Projects = []model.Project{}
	narrowed.Tasks = []model.Task{}
	narrowed.DailyPlans = []model.DailyPlan{}
	narrowed.Settings = nil

	switch collection {
	case "projects":
		narrowed.Projects = doc.Projects
	case "tasks":
		narrowed.Tasks = doc.Tasks
	case "daily_plans":
		narrowed.DailyPlans = doc.DailyPlans
	default:
		return export.Document{}, fmt.Errorf("export: unknown collection %q", collection)
	}

	return narrowed, nil
}
