package app

import "errors"

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	JobPath string // hcl job file: products + derive targets

	Derive          string // one-shot target spec, e.g. "altitude {time,vertical} [m]"
	Product         string // restrict derivation to this product source, "" means all
	Explain         bool   // print derivation trees instead of executing
	ListConversions bool   // dump the registry (against the job's products when given)
	Options         string // conversion options, "name=value;name2=value2"

	LogFormat string
	LogLevel  string
}

// NewConfig validates a Config.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.JobPath == "" && !cfg.ListConversions {
		return nil, errors.New("a job file is required unless --list-conversions is given")
	}
	if cfg.Derive != "" && cfg.ListConversions {
		return nil, errors.New("--derive and --list-conversions are mutually exclusive")
	}
	return &cfg, nil
}
