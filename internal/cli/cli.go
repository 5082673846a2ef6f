package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/atmogrid/atmogrid/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// optionList collects repeated --option flags into one semicolon-joined
// option string.
type optionList []string

func (o *optionList) String() string {
	return strings.Join(*o, ";")
}

func (o *optionList) Set(value string) error {
	*o = append(*o, value)
	return nil
}

// Parse processes command-line arguments. It returns a populated app.Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("atmogrid", flag.ContinueOnError)
	flagSet.SetOutput(output)

	// Custom usage/help text function
	flagSet.Usage = func() {
		fmt.Fprint(output, `
AtmoGrid - harmonizes heterogeneous data products into a common variable
model and derives new variables through registered conversion chains.

Usage:
  atmogrid [options] [JOB_PATH]

Arguments:
  JOB_PATH
    Path to an .hcl job file declaring products and derive targets.

Options:
`)
		flagSet.PrintDefaults()
	}

	jobFlag := flagSet.String("job", "", "Path to the job file.")
	jFlag := flagSet.String("j", "", "Path to the job file (shorthand).")
	deriveFlag := flagSet.String("derive", "", "One-shot derive target, e.g. 'altitude {time,vertical} [m]'.")
	productFlag := flagSet.String("product", "", "Restrict derivation to the product with this source identifier.")
	explainFlag := flagSet.Bool("explain", false, "Print derivation trees instead of executing conversions.")
	listFlag := flagSet.Bool("list-conversions", false, "Dump registered conversions; against the job's products when a job is given.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	var optionFlags optionList
	flagSet.Var(&optionFlags, "option", "Conversion option as name=value. May be repeated.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	path := ""
	if *jobFlag != "" {
		path = *jobFlag
	} else if *jFlag != "" {
		path = *jFlag
	} else if flagSet.NArg() > 0 {
		path = flagSet.Arg(0)
	}
	slog.Debug("Job path determined.", "path", path)

	if path == "" && !*listFlag {
		slog.Debug("No job path provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}
	slog.Debug("CLI parameter validation complete.")

	config, err := app.NewConfig(app.Config{
		JobPath:         path,
		Derive:          *deriveFlag,
		Product:         *productFlag,
		Explain:         *explainFlag,
		ListConversions: *listFlag,
		Options:         optionFlags.String(),
		LogFormat:       logFormat,
		LogLevel:        logLevel,
	})

	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.")
	return config, false, nil
}
