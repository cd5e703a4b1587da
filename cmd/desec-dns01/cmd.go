package main

import (
	"fmt"
	"os"

	"github.com/go-logr/logr"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/yuriy-kovalchuk/desec-dns01/internal/acme"
	"github.com/yuriy-kovalchuk/desec-dns01/internal/config"
	"github.com/yuriy-kovalchuk/desec-dns01/internal/dns/desec"
)

type rootOptions struct {
	configPath      string
	credentialsPath string
	endpoint        string
	token           string
	timeout         string
	verbosity       int

	log logr.Logger
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{log: logr.Discard()}

	cmd := &cobra.Command{
		Use:   "desec-dns01",
		Short: "Publish ACME dns-01 validation records on deSEC",
		Long: `desec-dns01 adds and removes ACME dns-01 TXT records in zones hosted on deSEC.

It can be used as a certbot --manual-auth-hook / --manual-cleanup-hook
(reading CERTBOT_DOMAIN and CERTBOT_VALIDATION) or as the program of
lego's exec provider, in default or RAW mode.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// A missing .env file is fine.
			_ = godotenv.Load()

			log, err := newLogger(opts.verbosity)
			if err != nil {
				return fmt.Errorf("unable to set up logging: %w", err)
			}
			opts.log = log
			return nil
		},
	}

	f := cmd.PersistentFlags()
	f.StringVar(&opts.configPath, "config", "", "YAML config file (env DESEC_CONFIG_PATH)")
	f.StringVar(&opts.credentialsPath, "credentials", "", "certbot-style credentials INI file with dns_desec_token")
	f.StringVar(&opts.endpoint, "endpoint", "", "deSEC API endpoint (env DESEC_ENDPOINT, default "+desec.DefaultEndpoint+")")
	f.StringVar(&opts.token, "token", "", "deSEC API token (env DESEC_TOKEN)")
	f.StringVar(&opts.timeout, "timeout", "", "timeout for one run, as a Go duration (env DESEC_TIMEOUT, default 60s)")
	f.CountVarP(&opts.verbosity, "verbose", "v", "increase log verbosity")

	cmd.AddCommand(newCmdPresent(opts), newCmdCleanup(opts), newCmdVersion())
	return cmd
}

// loadConfig merges configuration with priority flags > env > file > credentials INI > defaults.
func (o *rootOptions) loadConfig() (*config.ProviderConfig, error) {
	// The file is read without validation: the token may come from the
	// credentials file or a flag.
	path := o.configPath
	if path == "" {
		path = os.Getenv("DESEC_CONFIG_PATH")
	}

	cfg := &config.ProviderConfig{}
	if path != "" {
		c, err := config.ReadProviderConfigFile(path)
		if err != nil {
			return nil, fmt.Errorf("unable to load provider config: %w", err)
		}
		cfg = c
	} else {
		cfg.ApplyEnv()
	}

	if o.credentialsPath != "" {
		creds, err := config.LoadCredentialsINI(o.credentialsPath)
		if err != nil {
			return nil, fmt.Errorf("unable to load credentials: %w", err)
		}
		cfg.Merge(creds)
	}

	if o.token != "" {
		cfg.Token = o.token
	}
	if o.endpoint != "" {
		cfg.Endpoint = o.endpoint
	}
	if o.timeout != "" {
		cfg.Timeout = o.timeout
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newSolver builds the deSEC provider and wraps it for dns-01 use.
func (o *rootOptions) newSolver() (*acme.Solver, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	timeout, err := cfg.TimeoutDuration()
	if err != nil {
		return nil, err
	}

	provider, err := desec.NewFromSettings(o.log.WithName("desec"), cfg.Settings())
	if err != nil {
		return nil, fmt.Errorf("unable to create deSEC provider: %w", err)
	}
	o.log.V(1).Info("using deSEC endpoint", "endpoint", provider.Endpoint(), "timeout", timeout)

	return acme.NewSolver(o.log.WithName("acme"), provider, acme.Options{Timeout: timeout}), nil
}
