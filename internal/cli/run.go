package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"deskflow/internal/config"
	"deskflow/internal/store"
)

const (
	consumedOne  = 1
	consumedTwo  = 2
	consumedNone = 0
	helpFlag     = "--help"
)

// Run is the main entry point. Returns exit code.
func Run(out io.Writer, errOut io.Writer, args []string, env map[string]string) int {
	if len(args) < 2 {
		printUsage(out)

		return 0
	}

	flags, err := parseGlobalFlags(args[1:])
	if err != nil {
		fprintln(errOut, "error:", err)

		return 1
	}

	cfg, err := config.Load(config.LoadInput{
		ConfigPath:       flags.configPath,
		DataRootOverride: flags.dataRoot,
		Env:              env,
	})
	if err != nil {
		fprintln(errOut, "error:", err)
		printUsage(errOut)

		return 1
	}

	if len(flags.remaining) == 0 {
		printUsage(out)

		return 0
	}

	cmd := flags.remaining[0]
	if cmd == "-h" || cmd == helpFlag {
		printUsage(out)

		return 0
	}

	ioCtx := NewIO(out, errOut)

	var cmdErr error

	switch cmd {
	case "status":
		cmdErr = cmdStatus(ioCtx, cfg, flags.remaining[1:])
	case "export":
		cmdErr = cmdExport(ioCtx, cfg, flags.remaining[1:])
	case "import":
		cmdErr = cmdImport(ioCtx, cfg, flags.remaining[1:])
	case "backup":
		cmdErr = cmdBackup(ioCtx, cfg, flags.remaining[1:])
	case "prune":
		cmdErr = cmdPrune(ioCtx, cfg, flags.remaining[1:])
	case "print-config":
		cmdErr = cmdPrintConfig(ioCtx, cfg)
	default:
		fprintln(errOut, "error: unknown command:", cmd)
		printUsage(errOut)

		return 1
	}

	if cmdErr != nil {
		fprintln(errOut, "error:", cmdErr)

		return 1
	}

	return ioCtx.Finish()
}

type globalFlags struct {
	configPath string
	dataRoot   string
	remaining  []string
}

func parseGlobalFlags(args []string) (globalFlags, error) {
	var flags globalFlags

	idx := 0
	for idx < len(args) {
		consumed, err := parseFlag(args, idx, &flags)
		if err != nil {
			return globalFlags{}, err
		}

		if consumed == 0 {
			// Not a flag, this is the command
			flags.remaining = args[idx:]

			break
		}

		idx += consumed
	}

	return flags, nil
}

// parseFlag tries to parse a flag at args[idx]. Returns number of args consumed (0 if not a flag).
func parseFlag(args []string, idx int, flags *globalFlags) (int, error) {
	arg := args[idx]

	if arg == "-c" || arg == "--config" {
		if idx+1 >= len(args) {
			return consumedNone, fmt.Errorf("flag requires an argument: %s", arg)
		}

		flags.configPath = args[idx+1]

		return consumedTwo, nil
	}

	if after, ok := strings.CutPrefix(arg, "--config="); ok {
		flags.configPath = after

		return consumedOne, nil
	}

	if arg == "--data-root" {
		if idx+1 >= len(args) {
			return consumedNone, fmt.Errorf("flag requires an argument: %s", arg)
		}

		flags.dataRoot = args[idx+1]

		return consumedTwo, nil
	}

	if after, ok := strings.CutPrefix(arg, "--data-root="); ok {
		flags.dataRoot = after

		return consumedOne, nil
	}

	if arg == "-h" || arg == helpFlag {
		flags.remaining = []string{helpFlag}

		return len(args) - idx, nil
	}

	if strings.HasPrefix(arg, "-") && arg != "-" {
		return consumedNone, fmt.Errorf("unknown flag: %s", arg)
	}

	// Not a flag
	return consumedNone, nil
}

// openStore opens the store at the configured root with a logger at the
// configured level.
func openStore(cfg config.Config) (*store.Store, *store.LoadReport, error) {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{
		Level:  level,
		Prefix: "deskflow",
	})

	return store.Open(cfg.DataRootAbs, store.Options{
		Logger:          logger,
		BackupRetention: time.Duration(cfg.BackupRetentionDays) * 24 * time.Hour,
		BackupInterval:  time.Duration(cfg.BackupIntervalHours) * time.Hour,
	})
}

// warnNonClean surfaces recovery outcomes from a load. First-run creation is
// expected and not worth a warning.
func warnNonClean(o *IO, report *store.LoadReport) {
	for name, outcome := range report.Outcomes {
		if !outcome.Clean() && outcome != store.OutcomeCreated {
			o.Warn(fmt.Sprintf("collection %s: %s", name, outcome))
		}
	}
}

func cmdPrintConfig(o *IO, cfg config.Config) error {
	o.Println("data_root:", cfg.DataRootAbs)
	o.Println("backup_retention_days:", cfg.BackupRetentionDays)
	o.Println("backup_interval_hours:", cfg.BackupIntervalHours)
	o.Println("log_level:", cfg.LogLevel)

	o.Println()
	o.Println("# Sources:")

	if cfg.Sources.Global != "" {
		o.Println("#   global:", cfg.Sources.Global)
	}

	if cfg.Sources.Explicit != "" {
		o.Println("#   explicit:", cfg.Sources.Explicit)
	}

	if cfg.Sources.Global == "" && cfg.Sources.Explicit == "" {
		o.Println("#   (using defaults only)")
	}

	return nil
}

func fprintln(w io.Writer, a ...any) {
	_, _ = fmt.Fprintln(w, a...)
}

func printUsage(writer io.Writer) {
	fprintln(writer, `deskflow - local document store for projects, tasks, and daily plans

Usage: deskflow [options] <command> [args]

Options:
  -c, --config <file>    Use specified config file
      --data-root <dir>  Override the data root (default ~/.deskflow)

Commands:
  status                       Collection health, counts, and recent incidents
  export [flags] <file>        Export data as JSON or CSV
  import <file>                Merge a JSON export into the store
  backup                       Snapshot all collections now
  prune [--keep-days=N]        Remove backups older than the retention window
  print-config                 Show resolved configuration`)
}
