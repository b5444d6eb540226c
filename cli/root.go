package cli

import (
	"fmt"
	"os"
	"stocktrack/config"
	"stocktrack/logging"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const serviceName = "stocktrack"

type options struct {
	configFile string
	v          *viper.Viper
}

func NewRootCommand() *cobra.Command {
	opts := &options{v: viper.New()}
	root := &cobra.Command{
		Use:           serviceName,
		Short:         "Inventory and sales dashboard service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configFile, "config", "", "config file, e.g. configs/stocktrack.yaml")
	root.AddCommand(newServeCommand(opts), newMigrateCommand(opts), newAdminCommand(opts))
	return root
}

func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		logrus.Errorf("%s exit: %v", serviceName, err)
		os.Exit(1)
	}
}

// load resolves the configuration and sets up logging before any other component starts.
func (o *options) load() (*config.Config, error) {
	c, err := config.Load(o.v, o.configFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := logging.Setup(logging.Config{
		Level:       c.Log.Level,
		Format:      c.Log.Format,
		File:        c.Log.File,
		MaxSizeMB:   c.Log.MaxSizeMB,
		MaxBackups:  c.Log.MaxBackups,
		MaxAgeDays:  c.Log.MaxAgeDays,
		ServiceName: serviceName,
	}); err != nil {
		return nil, fmt.Errorf("setup logging: %w", err)
	}
	if used := o.v.ConfigFileUsed(); used != "" {
		logrus.Infof("[config] using %s", used)
	}
	return c, nil
}
