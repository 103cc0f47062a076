package engine

import (
	"context"
	"fmt"
	"math/big"

	clierr "github.com/supertx-labs/supertx-cli/internal/errors"
	"github.com/supertx-labs/supertx-cli/internal/mee"
	"github.com/supertx-labs/supertx-cli/internal/registry"
)

// Gas buffer left behind when sweeping a native-token output: 15% of the
// projected output, clamped to [1e-4, 2e-3] native units. Withdrawing the
// whole output would leave the execution account unable to pay for the sweep.
var (
	minGasBufferWei          = mustWei("100000000000000")   // 1e-4
	maxGasBufferWei          = mustWei("2000000000000000")  // 2e-3
	minWorthwhileWithdrawWei = mustWei("100000000000000")   // below this, skip the sweep
)

// NativeSwapRequest describes a swap whose destination is a chain's native
// currency.
type NativeSwapRequest struct {
	Mode          string
	OwnerAddress  string
	Recipient     string
	SrcChainID    int64
	DstChainID    int64
	SrcToken      string
	Amount        string
	Slippage      float64
	FundingTokens []mee.FundingToken
	FeeToken      *mee.FeeToken
}

// NativeSwapPlan is the result of the two-phase planning pass: the final
// quote request (withdrawal appended when worthwhile) plus the numbers that
// produced it.
type NativeSwapPlan struct {
	Request           mee.QuoteRequest
	ProjectedOutput   *big.Int
	GasBuffer         *big.Int
	WithdrawAmount    *big.Int
	SkippedWithdrawal bool
	Warning           string
}

// PlanNativeSwap quotes the swap once without a withdrawal instruction to
// learn the projected native output, derives a gas buffer, and builds the
// final request with a forwarder withdrawal for output minus buffer. When the
// output barely covers the buffer the withdrawal is skipped with a warning
// instead of failing the swap.
func (e *Engine) PlanNativeSwap(ctx context.Context, in NativeSwapRequest, progress mee.ProgressFunc) (*NativeSwapPlan, error) {
	recipient := in.Recipient
	if recipient == "" {
		recipient = in.OwnerAddress
	}
	probe := mee.QuoteRequest{
		Mode:         in.Mode,
		OwnerAddress: in.OwnerAddress,
		ComposeFlows: []mee.ComposeFlow{
			mee.BuildSimpleIntentFlow(in.SrcChainID, in.DstChainID, in.SrcToken, registry.NativeTokenAddress, in.Amount, in.Slippage),
		},
		FundingTokens: in.FundingTokens,
		FeeToken:      in.FeeToken,
	}

	quote, err := e.client.GetQuoteWithFundingRetries(ctx, probe, progress)
	if err != nil {
		return nil, err
	}
	if len(quote.ReturnedData) == 0 {
		return nil, clierr.New(clierr.CodeProtocol, "quote response missing projected output")
	}
	output, ok := new(big.Int).SetString(quote.ReturnedData[0].OutputAmount, 10)
	if !ok || output.Sign() <= 0 {
		return nil, clierr.New(clierr.CodeProtocol,
			fmt.Sprintf("quote returned non-numeric output amount %q", quote.ReturnedData[0].OutputAmount))
	}

	buffer := gasBuffer(output)
	plan := &NativeSwapPlan{
		Request:         probe.Clone(),
		ProjectedOutput: output,
		GasBuffer:       buffer,
	}

	threshold := new(big.Int).Add(buffer, minWorthwhileWithdrawWei)
	if output.Cmp(threshold) <= 0 {
		plan.SkippedWithdrawal = true
		plan.Warning = fmt.Sprintf(
			"projected output %s wei does not cover the %s wei gas buffer plus a worthwhile withdrawal; native funds stay in the execution account",
			output, buffer)
		return plan, nil
	}

	plan.WithdrawAmount = new(big.Int).Sub(output, buffer)
	withdrawal, err := mee.BuildNativeWithdrawalInstruction(in.DstChainID, recipient, plan.WithdrawAmount.String())
	if err != nil {
		return nil, err
	}
	plan.Request.ComposeFlows = append(plan.Request.ComposeFlows, withdrawal)
	return plan, nil
}

// gasBuffer clamps 15% of the output into [minGasBufferWei, maxGasBufferWei].
func gasBuffer(output *big.Int) *big.Int {
	buffer := new(big.Int).Mul(output, big.NewInt(15))
	buffer.Div(buffer, big.NewInt(100))
	if buffer.Cmp(minGasBufferWei) < 0 {
		return new(big.Int).Set(minGasBufferWei)
	}
	if buffer.Cmp(maxGasBufferWei) > 0 {
		return new(big.Int).Set(maxGasBufferWei)
	}
	return buffer
}

func mustWei(v string) *big.Int {
	n, ok := new(big.Int).SetString(v, 10)
	if !ok {
		panic("invalid wei constant: " + v)
	}
	return n
}
