package engine

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/supertx-labs/supertx-cli/internal/mee"
	"github.com/supertx-labs/supertx-cli/internal/registry"
)

// AccountBalance pairs an execution-account deployment with its native
// balance. Balance is nil when the chain probe failed.
type AccountBalance struct {
	Deployment mee.AccountDeployment
	BalanceWei *big.Int
}

// AccountBalances probes the native balance of every deployment concurrently.
// A chain whose RPC cannot be reached is skipped with a warning rather than
// failing the whole fan-out.
func (e *Engine) AccountBalances(ctx context.Context, deployments []mee.AccountDeployment, rpcOverrides map[int64]string) []AccountBalance {
	out := make([]AccountBalance, len(deployments))
	eg, childCtx := errgroup.WithContext(ctx)
	for i, deployment := range deployments {
		out[i] = AccountBalance{Deployment: deployment}
		eg.Go(func() error {
			rpcURL, err := registry.ResolveRPCURL(rpcOverrides[deployment.ChainID], deployment.ChainID)
			if err != nil {
				e.log.Warn("no rpc for chain, skipping balance probe",
					zap.Int64("chainId", deployment.ChainID))
				return nil
			}
			client, err := ethclient.DialContext(childCtx, rpcURL)
			if err != nil {
				e.log.Warn("could not reach chain, skipping balance probe",
					zap.Int64("chainId", deployment.ChainID), zap.Error(err))
				return nil
			}
			defer client.Close()
			balance, err := client.BalanceAt(childCtx, common.HexToAddress(deployment.Address), nil)
			if err != nil {
				e.log.Warn("balance probe failed, skipping chain",
					zap.Int64("chainId", deployment.ChainID), zap.Error(err))
				return nil
			}
			out[i].BalanceWei = balance
			return nil
		})
	}
	_ = eg.Wait()
	return out
}
