package main

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/HammerMeetNail/conversando/internal/client"
	"github.com/HammerMeetNail/conversando/internal/game"
	"github.com/HammerMeetNail/conversando/internal/gate"
	"github.com/HammerMeetNail/conversando/internal/logging"
	"github.com/HammerMeetNail/conversando/internal/play"
)

type Config struct {
	apiURL  string
	store   string
	timeout time.Duration
	verbose bool
}

func (c *Config) validate() error {
	u, err := url.Parse(c.apiURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid --api-url (want http(s)://host[:port]): %q", c.apiURL)
	}
	if strings.TrimSpace(c.store) == "" {
		return errors.New("--store must not be empty")
	}
	if c.timeout <= 0 {
		return fmt.Errorf("invalid --timeout (must be positive): %s", c.timeout)
	}
	return nil
}

func (c *Config) logger(w io.Writer) *logging.Logger {
	level := logging.LevelWarn
	if c.verbose {
		level = logging.LevelDebug
	}
	return logging.New().SetOutput(w).SetLevel(level)
}

func (c *Config) client() *client.Client {
	return client.New(c.apiURL, client.WithTimeout(c.timeout))
}

// openGate opens the on-disk access record, creating its directory if
// needed. The returned close func must be called when done.
func (c *Config) openGate(logger *logging.Logger) (*gate.Gate, func() error, error) {
	if err := os.MkdirAll(filepath.Dir(c.store), 0o700); err != nil {
		return nil, nil, fmt.Errorf("creating store directory: %w", err)
	}
	store, err := gate.OpenBoltStore(c.store)
	if err != nil {
		return nil, nil, err
	}
	return gate.New(store, clockwork.NewRealClock(), logger), store.Close, nil
}

func defaultStorePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "conversando", "access.db")
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("CONVERSANDO")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "conversando",
		Short:         "Reflection question cards, behind an access code.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		Version:       releaseVersion,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return cfg.validate()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(cmd, cfg)
		},
	}

	fs := cmd.PersistentFlags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.apiURL, "api-url", "u", "http://localhost:8080", "base URL of the conversando server (env: CONVERSANDO_API_URL)")
	fs.StringVar(&cfg.store, "store", defaultStorePath(), "path to the local access record (env: CONVERSANDO_STORE)")
	fs.DurationVar(&cfg.timeout, "timeout", 15*time.Second, "timeout for each server request (env: CONVERSANDO_TIMEOUT)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "log requests and failures to stderr (env: CONVERSANDO_VERBOSE)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.AddCommand(
		newPlayCmd(cfg),
		newValidateCmd(cfg),
		newQuestionsCmd(cfg),
		newStatusCmd(cfg),
		newLogoutCmd(cfg),
	)

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("conversando v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}

func newPlayCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "play",
		Short: "Enter an access code and play the cards (default)",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(cmd, cfg)
		},
	}
}

func runPlay(cmd *cobra.Command, cfg *Config) error {
	logger := cfg.logger(cmd.ErrOrStderr())
	g, closeStore, err := cfg.openGate(logger)
	if err != nil {
		return err
	}
	defer func() { _ = closeStore() }()

	app := play.New(
		cfg.client(),
		g,
		game.NewClockScheduler(clockwork.NewRealClock()),
		cmd.OutOrStdout(),
		logger,
	)
	return app.Run(cmd.Context(), cmd.InOrStdin())
}

func newValidateCmd(cfg *Config) *cobra.Command {
	var remember bool

	cmd := &cobra.Command{
		Use:   "validate CODE",
		Short: "Check an access code against the server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := cfg.client().ValidateCode(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !result.Valid {
				return fmt.Errorf("code rejected: %s", result.Message)
			}
			fmt.Fprintln(cmd.OutOrStdout(), play.MsgCodeAccepted)

			if !remember {
				return nil
			}
			g, closeStore, err := cfg.openGate(cfg.logger(cmd.ErrOrStderr()))
			if err != nil {
				return err
			}
			defer func() { _ = closeStore() }()
			return g.GrantAccess(args[0])
		},
	}
	cmd.Flags().BoolVar(&remember, "remember", false, "store the access grant locally when the code is valid")
	return cmd
}

func newQuestionsCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "questions",
		Short: "Print every question as category<TAB>question",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			questions, err := cfg.client().ListQuestions(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, q := range questions {
				fmt.Fprintf(out, "%s\t%s\n", q.Category, q.Question)
			}
			return nil
		},
	}
}

func newStatusCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether a local access grant is active",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, closeStore, err := cfg.openGate(cfg.logger(cmd.ErrOrStderr()))
			if err != nil {
				return err
			}
			defer func() { _ = closeStore() }()

			out := cmd.OutOrStdout()
			if !g.CheckAccess() {
				fmt.Fprintln(out, "no active access")
				return nil
			}
			session, _ := g.Session()
			expires := time.UnixMilli(session.AccessGrantedAt).Add(gate.AccessTTL)
			fmt.Fprintf(out, "access active until %s\n", expires.Format(time.RFC3339))
			return nil
		},
	}
}

func newLogoutCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the local access grant",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, closeStore, err := cfg.openGate(cfg.logger(cmd.ErrOrStderr()))
			if err != nil {
				return err
			}
			defer func() { _ = closeStore() }()

			if err := g.RevokeAccess(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), play.MsgLoggedOut)
			return nil
		},
	}
}
