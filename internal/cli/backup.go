package cli

import (
	"strings"
	"time"

	flag "github.com/spf13/pflag"

	"deskflow/internal/config"
)

// cmdBackup snapshots every collection immediately, bypassing the interval
// gate.
func cmdBackup(o *IO, cfg config.Config, _ []string) error {
	st, report, err := openStore(cfg)
	if err != nil {
		return err
	}

	warnNonClean(o, report)

	if err := st.BackupNow(); err != nil {
		return err
	}

	o.Println("backed up all collections")

	return nil
}

// cmdPrune removes backups older than the retention window.
func cmdPrune(o *IO, cfg config.Config, args []string) error {
	flags := flag.NewFlagSet("prune", flag.ContinueOnError)
	flags.SetOutput(&strings.Builder{})

	keepDays := flags.Int("keep-days", cfg.BackupRetentionDays, "retention window in days")

	if err := flags.Parse(args); err != nil {
		return err
	}

	st, report, err := openStore(cfg)
	if err != nil {
		return err
	}

	warnNonClean(o, report)

	removed, err := st.PruneBackups(time.Duration(*keepDays) * 24 * time.Hour)
	if err != nil {
		return err
	}

	o.Println("removed", removed, "old backups")

	return nil
}
