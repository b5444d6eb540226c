package cli

import (
	"context"
	"errors"
	"stocktrack/account"
	"stocktrack/authority"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newAdminCommand(opts *options) *cobra.Command {
	admin := &cobra.Command{
		Use:   "admin",
		Short: "Manage administrators",
	}

	var email, password string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create an administrator, or promote and reset the password of an existing identity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" {
				return errors.New("email is required")
			}
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

			account.UserCreatedHooks = []func(uid types.ID, tx *gorm.DB) error{authority.CreateDefaultActionPermissions}
			p, err := account.BootstrapAdmin(email, password, context.Background())
			if err != nil {
				return err
			}
			logrus.Infof("administrator %s ready, id %d", p.Email, p.ID)
			return nil
		},
	}
	create.Flags().StringVar(&email, "email", "", "administrator email")
	create.Flags().StringVar(&password, "password", "", "administrator password, kept unchanged for an existing identity when empty")

	admin.AddCommand(create)
	return admin
}
