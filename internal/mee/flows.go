package mee

import (
	"fmt"
	"math"

	clierr "github.com/supertx-labs/supertx-cli/internal/errors"
	"github.com/supertx-labs/supertx-cli/internal/registry"
)

// DefaultSlippage is applied when a caller passes a non-positive slippage.
// Values are 0-1 fractions, never percentages.
const DefaultSlippage = 0.01

// WeightSumTolerance bounds how far target weights may drift from 1.0.
const WeightSumTolerance = 0.001

const runtimeBalanceArgType = "runtimeErc20Balance"

// NewRuntimeBalanceArg builds an argument the network substitutes with the
// execution account's live token balance at execution time.
func NewRuntimeBalanceArg(tokenAddress, gte string) RuntimeBalanceArg {
	return RuntimeBalanceArg{
		Type:         runtimeBalanceArgType,
		TokenAddress: tokenAddress,
		Constraints:  RuntimeBalanceConstraints{GTE: gte},
	}
}

// BuildSimpleIntentFlow constructs a single-input, single-output swap or
// bridge step. Amount is an integer string in the source token's smallest
// unit; slippage is a 0-1 fraction.
func BuildSimpleIntentFlow(srcChainID, dstChainID int64, srcToken, dstToken, amount string, slippage float64) ComposeFlow {
	if slippage <= 0 {
		slippage = DefaultSlippage
	}
	return ComposeFlow{
		Type:       FlowIntentSimple,
		SrcChainID: srcChainID,
		DstChainID: dstChainID,
		SrcToken:   srcToken,
		DstToken:   dstToken,
		Amount:     amount,
		Slippage:   slippage,
	}
}

// BuildMultiIntentFlow constructs a multi-position rebalance step. Target
// weights must already sum to 1.0; use ValidateTargetWeights before calling.
func BuildMultiIntentFlow(inputs []InputPosition, targets []TargetPosition, slippage float64) ComposeFlow {
	if slippage <= 0 {
		slippage = DefaultSlippage
	}
	return ComposeFlow{
		Type:            FlowIntent,
		Slippage:        slippage,
		InputPositions:  append([]InputPosition(nil), inputs...),
		TargetPositions: append([]TargetPosition(nil), targets...),
	}
}

// ValidateTargetWeights rejects target sets whose weights do not sum to 1.0
// within tolerance. This runs in the caller layer, not inside the builder.
func ValidateTargetWeights(targets []TargetPosition) error {
	if len(targets) == 0 {
		return clierr.New(clierr.CodeUsage, "rebalance requires at least one target position")
	}
	sum := 0.0
	for _, t := range targets {
		sum += t.Weight
	}
	if math.Abs(sum-1.0) > WeightSumTolerance {
		return clierr.New(clierr.CodeUsage, fmt.Sprintf("target weights must sum to 1.0, got %.4f", sum))
	}
	return nil
}

// ContractCallOptions are the optional fields of a generic build flow.
type ContractCallOptions struct {
	Value               string
	Data                string
	GasLimit            string
	UpperBoundTimestamp int64
	Batch               bool
}

// BuildContractCallFlow constructs a generic contract-call step. Args may mix
// literal values and RuntimeBalanceArg placeholders.
func BuildContractCallFlow(to string, chainID int64, functionSignature string, args []any, opts ContractCallOptions) ComposeFlow {
	return ComposeFlow{
		Type:                FlowBuild,
		Batch:               opts.Batch,
		To:                  to,
		ChainID:             chainID,
		FunctionSignature:   functionSignature,
		Args:                append([]any(nil), args...),
		Value:               opts.Value,
		Data:                opts.Data,
		GasLimit:            opts.GasLimit,
		UpperBoundTimestamp: opts.UpperBoundTimestamp,
	}
}

// BuildWithdrawalInstruction sweeps the full ERC20 balance that lands in the
// execution account to the recipient. Every quote expected to leave value in
// that account must append one such step per distinct output token, or the
// funds are stranded.
func BuildWithdrawalInstruction(tokenAddress string, chainID int64, recipient string, upperBoundTimestamp int64) ComposeFlow {
	return BuildContractCallFlow(tokenAddress, chainID, "transfer(address,uint256)", []any{
		recipient,
		NewRuntimeBalanceArg(tokenAddress, "1"),
	}, ContractCallOptions{UpperBoundTimestamp: upperBoundTimestamp})
}

// BuildNativeWithdrawalInstruction pushes a known amount of native currency
// to the recipient through the chain's forwarder contract. Native currency
// cannot use ERC20 transfer; it rides as transaction value.
func BuildNativeWithdrawalInstruction(chainID int64, recipient, amountWei string) (ComposeFlow, error) {
	forwarder, ok := registry.ForwarderAddress(chainID)
	if !ok {
		return ComposeFlow{}, clierr.New(clierr.CodeUnsupported, fmt.Sprintf("no native forwarder deployed on chain %d", chainID))
	}
	return BuildContractCallFlow(forwarder, chainID, "forward(address)", []any{recipient}, ContractCallOptions{
		Value: amountWei,
	}), nil
}

// BuildNativeWithdrawalInstructionWithRuntimeBalance is the variant used when
// the native amount is unknown at signing time: the network computes the
// forwarded amount from the account's live balance.
func BuildNativeWithdrawalInstructionWithRuntimeBalance(chainID int64, recipient string) (ComposeFlow, error) {
	forwarder, ok := registry.ForwarderAddress(chainID)
	if !ok {
		return ComposeFlow{}, clierr.New(clierr.CodeUnsupported, fmt.Sprintf("no native forwarder deployed on chain %d", chainID))
	}
	return BuildContractCallFlow(forwarder, chainID, "forward(address,uint256)", []any{
		recipient,
		NewRuntimeBalanceArg(registry.NativeTokenAddress, "1"),
	}, ContractCallOptions{Value: "0"}), nil
}

// BuildCcipBridgeFlow constructs a cross-chain bridge step over the CCIP
// lane. Only the registry allow-list of tokens is valid; the builder does not
// enforce it, the network rejects unsupported pairs.
func BuildCcipBridgeFlow(srcChainID, dstChainID int64, srcToken, dstToken, amount string) ComposeFlow {
	return ComposeFlow{
		Type:       FlowBuildCCIP,
		SrcChainID: srcChainID,
		DstChainID: dstChainID,
		SrcToken:   srcToken,
		DstToken:   dstToken,
		Amount:     amount,
	}
}
