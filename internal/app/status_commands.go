package app

import (
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	clierr "github.com/supertx-labs/supertx-cli/internal/errors"
)

func (s *runtimeState) addStatusCommands(root *cobra.Command) {
	root.AddCommand(s.newStatusCommand())
	root.AddCommand(s.newHistoryCommand())
}

func (s *runtimeState) newStatusCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status <supertx-hash>",
		Short: "Fetch the settlement status of a supertransaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash := strings.TrimSpace(args[0])
			status, err := s.engine.Status(cmd.Context(), hash)
			if err != nil {
				return err
			}
			if err := s.ensureStore(); err == nil {
				if err := s.store.UpdateStatus(hash, status.Status); err != nil {
					s.log.Debug("status not recorded", zap.String("supertxHash", hash), zap.Error(err))
				}
			}
			return s.emitJSON(status)
		},
	}
	return cmd
}

func (s *runtimeState) newHistoryCommand() *cobra.Command {
	var (
		owner string
		limit int
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List locally recorded supertransactions",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := s.ensureStore(); err != nil {
				return err
			}
			records, err := s.store.List(owner, limit)
			if err != nil {
				return clierr.Wrap(clierr.CodeInternal, "list supertx history", err)
			}
			return s.emitJSON(records)
		},
	}
	cmd.Flags().StringVar(&owner, "owner", "", "Filter by owner address")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum records to return")
	return cmd
}
