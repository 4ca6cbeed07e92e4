package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jward/interop"
	"github.com/jward/interop/config"
)

var (
	flagConfig  string
	flagProject string
	flagFormat  string
	flagVerbose bool
)

// errorHandled is set by outputError so main() doesn't double-print.
var errorHandled bool

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errorHandled {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "interop",
	Short:         "Answer questions about Java declarations",
	Long:          "interop resolves Java classes and members from the lookup paths configured in interop.yaml and reports them in a language-neutral form.",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return validateFormat(flagFormat)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default: nearest "+config.ProjectConfigFile+")")
	rootCmd.PersistentFlags().StringVarP(&flagProject, "project", "p", "", "project name (default: defaults.project)")
	rootCmd.PersistentFlags().StringVar(&flagFormat, "format", "json", "output format: json|text")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "log debug output to stderr")

	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(supertypesCmd)
	rootCmd.AddCommand(membersCmd)
	rootCmd.AddCommand(paramsCmd)
	rootCmd.AddCommand(annotationsCmd)
	rootCmd.AddCommand(nestedIDCmd)
	rootCmd.AddCommand(visibilityCmd)
	rootCmd.AddCommand(scriptCmd)
	rootCmd.AddCommand(watchCmd)
}

func newLogger() *slog.Logger {
	level := slog.LevelWarn
	if flagVerbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// session is an opened bridge bound to the selected project.
type session struct {
	bridge     *interop.Bridge
	project    *interop.Project
	cfg        *config.Config
	configPath string
	log        *slog.Logger
}

// openSession loads the configuration and selects the project.
func openSession(opts ...interop.Option) (*session, error) {
	logger := newLogger()
	cfg, path, err := config.NewLoader(logger).Load(flagConfig)
	if err != nil {
		return nil, err
	}
	name, err := selectProject(cfg, flagProject)
	if err != nil {
		return nil, err
	}
	opts = append([]interop.Option{interop.WithLogger(logger)}, opts...)
	b := interop.New(config.NewProvider(path, logger), opts...)
	return &session{
		bridge:     b,
		project:    b.Project(name),
		cfg:        cfg,
		configPath: path,
		log:        logger,
	}, nil
}

func (s *session) Close() error { return s.bridge.Close() }

// selectProject picks the explicit project, the configured default, or the
// only configured project.
func selectProject(cfg *config.Config, explicit string) (string, error) {
	name := explicit
	if name == "" {
		name = cfg.Defaults.Project
	}
	if name == "" {
		names := cfg.ProjectNames()
		if len(names) != 1 {
			return "", fmt.Errorf("no project selected: use --project (one of %s)", strings.Join(names, ", "))
		}
		name = names[0]
	}
	if _, ok := cfg.Projects[name]; !ok {
		return "", fmt.Errorf("%w: %q", config.ErrUnknownProject, name)
	}
	return name, nil
}
