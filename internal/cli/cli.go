// Package cli implements the isalabel command-line interface.
//
// # Commands
//
// The main commands are:
//   - label: Read N-Triples, label new resources and save what changed
//   - query: Answer a subsumption question from saved labels
//   - render: Draw one hierarchy with Graphviz
//   - browse: Page through the saved labels of one hierarchy
//
// # Configuration
//
// Settings come from isalabel.toml (working directory, then the user config
// directory, or --config), overridden by the persistent flags:
//
//	slack = 1.0
//	universe = 2147483647
//
//	[store]
//	backend = "redis"      # file, redis, mongo or none
//	lock_timeout = "30s"
//
//	[store.redis]
//	addr = "localhost:6379"
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/isalabel/pkg/bender"
	"github.com/matzehuels/isalabel/pkg/buildinfo"
	"github.com/matzehuels/isalabel/pkg/errors"
	"github.com/matzehuels/isalabel/pkg/hierarchy"
	"github.com/matzehuels/isalabel/pkg/manager"
	"github.com/matzehuels/isalabel/pkg/rdf"
	"github.com/matzehuels/isalabel/pkg/store"
	"github.com/matzehuels/isalabel/pkg/store/mongostore"
	"github.com/matzehuels/isalabel/pkg/store/redisstore"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "isalabel"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	Out    io.Writer

	configPath string
	overrides  overrides
}

// overrides are persistent flags that win over the config file.
type overrides struct {
	backend  string
	stateDir string
	slack    float64
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level), Out: os.Stdout}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "isalabel labels RDF schema hierarchies for constant-time subsumption",
		Long: `isalabel assigns interval labels to the class, property, metaclass and
metaproperty hierarchies of an RDF schema, so that "is A a superclass of B"
becomes a containment test between two labels. Labels are kept in a store and
updated incrementally as new triples arrive.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	pf := root.PersistentFlags()
	pf.StringVar(&c.configPath, "config", "", "config file (default ./isalabel.toml or the user config dir)")
	pf.StringVar(&c.overrides.backend, "store", "", "store backend: file, redis, mongo or none")
	pf.StringVar(&c.overrides.stateDir, "state-dir", "", "directory of the file store")
	pf.Float64Var(&c.overrides.slack, "slack", 0, "slack factor in [1, 2]")

	root.AddCommand(c.labelCommand())
	root.AddCommand(c.queryCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.browseCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// config loads the config file and applies the persistent flags.
func (c *CLI) config() (Config, error) {
	cfg, err := loadConfig(c.configPath)
	if err != nil {
		return cfg, err
	}
	if c.overrides.backend != "" {
		cfg.Store.Backend = c.overrides.backend
	}
	if c.overrides.stateDir != "" {
		cfg.Store.Dir = c.overrides.stateDir
	}
	if c.overrides.slack != 0 {
		cfg.Slack = c.overrides.slack
	}
	return cfg, cfg.validate()
}

// =============================================================================
// Factories
// =============================================================================

// openStore connects the configured backend.
func openStore(ctx context.Context, cfg Config, logger *log.Logger) (store.Store, error) {
	ks := store.DefaultKeyspace
	if cfg.Store.Prefix != "" {
		ks = store.Keyspace{Prefix: cfg.Store.Prefix}
	}
	switch cfg.Store.Backend {
	case backendNone:
		return store.NewNull(), nil
	case backendRedis:
		return redisstore.Open(ctx, cfg.Store.Redis.Addr,
			redisstore.WithKeyspace(ks), redisstore.WithLogger(logger))
	case backendMongo:
		return mongostore.Open(ctx, cfg.Store.Mongo.URI, cfg.Store.Mongo.Database,
			mongostore.WithKeyspace(ks), mongostore.WithLogger(logger))
	}
	dir := cfg.Store.Dir
	if dir == "" {
		var err error
		if dir, err = stateDir(); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "locate state dir")
		}
	}
	return store.NewFile(dir, store.WithStaleLockAfter(cfg.Store.LockTimeout*10))
}

// newLabeler builds the labeler from cfg.
func newLabeler(cfg Config, logger *log.Logger) (*bender.Labeler, error) {
	return bender.New(bender.WithSlack(cfg.Slack), bender.WithLogger(logger))
}

// newManager builds the incremental manager over st, or a from-scratch
// manager when scratch is set.
func newManager(cfg Config, st store.Store, scratch bool, logger *log.Logger) (manager.LabelManager, error) {
	l, err := newLabeler(cfg, logger)
	if err != nil {
		return nil, err
	}
	opts := []manager.Option{
		manager.WithLabeler(l),
		manager.WithUniverse(cfg.Universe),
		manager.WithLogger(logger),
	}
	if scratch {
		return manager.NewNonIncremental(opts...)
	}
	return manager.NewIncremental(st, opts...)
}

// readTriples reads N-Triples from the given files, or from in when there
// are none, and hands each triple to add.
func readTriples(in io.Reader, paths []string, add func(rdf.Triple) error) (int, error) {
	if len(paths) == 0 {
		return feedTriples(in, "<stdin>", add)
	}
	total := 0
	for _, p := range paths {
		f, err := os.Open(p)
		if err != nil {
			return total, err
		}
		n, err := feedTriples(f, p, add)
		f.Close()
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func feedTriples(r io.Reader, name string, add func(rdf.Triple) error) (int, error) {
	triples, err := rdf.NewReader(r).ReadAll()
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeInvalidTriple, err, "read %s", name)
	}
	for _, t := range triples {
		if err := add(t); err != nil {
			return 0, err
		}
	}
	return len(triples), nil
}

// parseKind parses the --kind flag.
func parseKind(s string) (hierarchy.Kind, error) {
	k, err := hierarchy.ParseKind(s)
	if err != nil {
		return k, errors.Wrap(errors.ErrCodeInvalidInput, err, "--kind")
	}
	return k, nil
}

// =============================================================================
// Paths
// =============================================================================

// stateDir returns the default file store directory using XDG standard
// (~/.local/state/isalabel/).
func stateDir() (string, error) {
	if stateHome := os.Getenv("XDG_STATE_HOME"); stateHome != "" {
		return filepath.Join(stateHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "state", appName), nil
}
