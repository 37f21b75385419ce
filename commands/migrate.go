package commands

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/expensedecoder/api/config"
)

func newMigrateCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if cfg.DataBackend == config.BackendMemory {
				return errors.New("the memory backend has no schema to migrate")
			}

			store, err := openStore(cfg, true)
			if err != nil {
				return err
			}
			return store.Close()
		},
	}
}
