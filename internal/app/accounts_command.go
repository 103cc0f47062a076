package app

import (
	"strings"

	"github.com/spf13/cobra"

	clierr "github.com/supertx-labs/supertx-cli/internal/errors"
	"github.com/supertx-labs/supertx-cli/internal/mee"
)

type accountReport struct {
	Selected    mee.AccountDeployment   `json:"selected"`
	Deployments []mee.AccountDeployment `json:"deployments"`
	Balances    []balanceReport         `json:"balances,omitempty"`
}

type balanceReport struct {
	ChainID    int64  `json:"chainId"`
	Address    string `json:"address"`
	BalanceWei string `json:"balanceWei"`
}

func (s *runtimeState) addAccountsCommand(root *cobra.Command) {
	var (
		owner       string
		withBalance bool
	)
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "Show execution-account deployments for an owner",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(owner) == "" {
				return clierr.New(clierr.CodeUsage, "--owner is required")
			}
			ctx := cmd.Context()
			deployments, err := s.client.GetAccountDeployments(ctx, owner)
			if err != nil {
				return err
			}
			selected, err := mee.SelectAccount(deployments)
			if err != nil {
				return err
			}
			report := accountReport{Selected: selected, Deployments: deployments}
			if withBalance {
				for _, b := range s.engine.AccountBalances(ctx, deployments, s.settings.RPCOverrides) {
					if b.BalanceWei == nil {
						continue
					}
					report.Balances = append(report.Balances, balanceReport{
						ChainID:    b.Deployment.ChainID,
						Address:    b.Deployment.Address,
						BalanceWei: b.BalanceWei.String(),
					})
				}
			}
			return s.emitJSON(report)
		},
	}
	cmd.Flags().StringVar(&owner, "owner", "", "Owner EOA address")
	cmd.Flags().BoolVar(&withBalance, "balances", false, "Probe native balances over RPC")
	root.AddCommand(cmd)
}
