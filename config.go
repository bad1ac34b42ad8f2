package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Seednode/designsprint/games/sprint"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

type Config struct {
	bind           string
	library        string
	port           int
	prefix         string
	profile        bool
	sessionTimeout time.Duration
	timer          time.Duration
	tlsCert        string
	tlsKey         string
	verbose        bool
	version        bool

	// tickInterval is one countdown second of wall clock.
	tickInterval time.Duration

	builtin []sprint.Fields
	log     *zap.SugaredLogger
}

func (c *Config) validate() error {
	if (c.tlsCert == "") != (c.tlsKey == "") {
		return errors.New("both --tls-cert and --tls-key must be provided together")
	}
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	if c.timer < sprint.MinTimerSeconds*time.Second || c.timer > sprint.MaxTimerSeconds*time.Second {
		return fmt.Errorf("invalid timer (must be between %ds and %dm inclusive): %s",
			sprint.MinTimerSeconds, sprint.MaxTimerSeconds/60, c.timer)
	}
	return nil
}

func (c *Config) scheme() string {
	if c.tlsCert != "" && c.tlsKey != "" {
		return "https"
	}
	return "http"
}

func (c *Config) timerSeconds() int {
	return int(c.timer / time.Second)
}

// setup runs before every command: it builds the logger and loads the
// challenge library the games start from.
func (c *Config) setup() error {
	if c.tickInterval <= 0 {
		c.tickInterval = time.Second
	}

	if c.log == nil {
		log, err := newLogger(c.verbose)
		if err != nil {
			return err
		}
		c.log = log
	}

	var err error
	if c.library != "" {
		c.builtin, err = sprint.LoadLibraryFile(c.library)
		if err == nil {
			logf(c, "START: Loaded %d challenges from %s", len(c.builtin), c.library)
		}
	} else {
		c.builtin, err = sprint.BuiltinChallenges()
	}

	return err
}

func bindEnv(v *viper.Viper, fs *pflag.FlagSet) {
	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("DESIGNSPRINT")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "designsprint",
		Short:         "A five-phase design sprint game, served as a webapp or played in the terminal.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		Version:       releaseVersion,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return cfg.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if cfg.log != nil {
				_ = cfg.log.Sync()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return ServePage(cmd.Context(), cfg, args)
		},
	}

	pfs := cmd.PersistentFlags()
	pfs.StringVar(&cfg.library, "library", "", "yaml file of challenges to use instead of the built-ins (env: DESIGNSPRINT_LIBRARY)")
	pfs.DurationVar(&cfg.timer, "timer", sprint.DefaultTimerSeconds*time.Second, "default length of the idea timer (env: DESIGNSPRINT_TIMER)")
	pfs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: DESIGNSPRINT_VERBOSE)")

	fs := cmd.Flags()
	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: DESIGNSPRINT_BIND)")
	fs.IntVarP(&cfg.port, "port", "p", 8080, "port to listen on (env: DESIGNSPRINT_PORT)")
	fs.StringVar(&cfg.prefix, "prefix", "", "path to prepend to all URLs, for use behind reverse proxy (env: DESIGNSPRINT_PREFIX)")
	fs.BoolVar(&cfg.profile, "profile", false, "register net/http/pprof handlers (env: DESIGNSPRINT_PROFILE)")
	fs.DurationVar(&cfg.sessionTimeout, "session-timeout", 60*time.Minute, "time before idle game sessions are ended (env: DESIGNSPRINT_SESSION_TIMEOUT)")
	fs.StringVar(&cfg.tlsCert, "tls-cert", "", "path to tls certificate (env: DESIGNSPRINT_TLS_CERT)")
	fs.StringVar(&cfg.tlsKey, "tls-key", "", "path to tls keyfile (env: DESIGNSPRINT_TLS_KEY)")
	fs.BoolVarP(&cfg.version, "version", "V", false, "display version and exit (env: DESIGNSPRINT_VERSION)")

	bindEnv(v, pfs)
	bindEnv(v, fs)

	cmd.AddCommand(newPlayCmd(cfg), newChallengesCmd(cfg))

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("designsprint v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
