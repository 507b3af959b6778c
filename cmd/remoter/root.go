package main

import (
	"github.com/spf13/cobra"

	"github.com/kbukum/remoter/config"
	"github.com/kbukum/remoter/logger"
	"github.com/kbukum/remoter/observability"
	"github.com/kbukum/remoter/plugin"
	"github.com/kbukum/remoter/project"
	"github.com/kbukum/remoter/remoter"
)

const defaultProjectFile = "remoter.yaml"

// options are the flags shared by every command.
type options struct {
	projectFile  string
	settingsFile string
	envFile      string
}

// NewRootCmd creates the remoter command tree.
func NewRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "remoter",
		Short: "Run scripts on remote machines and collect their output",
		Long: `Run the scenarios declared under the "remoter" key of a project file.

Every scenario copies a script and its files to each listed machine over SSH,
installs the requirements, runs the script and appends the output of every
machine to one local file.`,
		SilenceUsage: true,
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&opts.projectFile, "config", "c", defaultProjectFile, "project file declaring the scenarios")
	flags.StringVar(&opts.settingsFile, "settings", "", "runtime settings file (default: search for remoter.settings.yaml)")
	flags.StringVar(&opts.envFile, "env-file", "", "dotenv file loaded before the settings")

	root.AddCommand(
		NewRunCmd(opts),
		NewCheckCmd(opts),
		NewSchemaCmd(),
		NewVersionCmd(),
	)
	return root
}

func (o *options) loadSettings() (*config.Settings, error) {
	var loaderOpts []config.LoaderOption
	if o.settingsFile != "" {
		loaderOpts = append(loaderOpts, config.WithConfigFile(o.settingsFile))
	}
	if o.envFile != "" {
		loaderOpts = append(loaderOpts, config.WithEnvFile(o.envFile))
	}
	return config.LoadSettings(loaderOpts...)
}

// newHost loads the project file and registers the remoter plugin.
func (o *options) newHost(settings *config.Settings, log *logger.Logger, metrics *observability.Metrics) (*plugin.Host, error) {
	cfg, err := project.Load(o.projectFile)
	if err != nil {
		return nil, err
	}
	host := plugin.NewHost(cfg, log)
	p := remoter.New(settings,
		remoter.WithPluginLogger(log),
		remoter.WithPluginMetrics(metrics),
	)
	if err := host.Use(p); err != nil {
		return nil, err
	}
	return host, nil
}
