package cli

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newMigrateCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the database when missing and migrate every table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.load()
			if err != nil {
				return err
			}
			ds, err := openDatabase(c.Database)
			if err != nil {
				return err
			}
			defer ds.Stop()

			if err := migrate(ds); err != nil {
				return err
			}
			logrus.Infof("database migrated, %d tables", len(Tables))
			return nil
		},
	}
}
