package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/supertx-labs/supertx-cli/internal/amount"
	"github.com/supertx-labs/supertx-cli/internal/engine"
	clierr "github.com/supertx-labs/supertx-cli/internal/errors"
	"github.com/supertx-labs/supertx-cli/internal/mee"
	"github.com/supertx-labs/supertx-cli/internal/registry"
	"github.com/supertx-labs/supertx-cli/internal/signing"
	"github.com/supertx-labs/supertx-cli/internal/store"
)

type intentFlags struct {
	mode          string
	owner         string
	srcChain      int64
	dstChain      int64
	srcToken      string
	dstToken      string
	amount        string
	amountDecimal string
	decimals      int
	slippage      float64
	funding   []string
	feeToken  string
	recipient string
	withdraw  bool
	ccip      bool
	deadline  time.Duration
	rpcURL    string
}

func (f *intentFlags) register(cmd *cobra.Command, withSigner bool) {
	flags := cmd.Flags()
	flags.StringVar(&f.mode, "mode", mee.ModeEOA, "Execution mode (eoa|smart-account)")
	flags.StringVar(&f.owner, "owner", "", "Owner EOA address")
	flags.Int64Var(&f.srcChain, "src-chain", 0, "Source chain id")
	flags.Int64Var(&f.dstChain, "dst-chain", 0, "Destination chain id")
	flags.StringVar(&f.srcToken, "src-token", "", "Source token address")
	flags.StringVar(&f.dstToken, "dst-token", "", "Destination token address")
	flags.StringVar(&f.amount, "amount", "", "Input amount in base units")
	flags.StringVar(&f.amountDecimal, "amount-decimal", "", "Input amount in decimal form (needs --decimals)")
	flags.IntVar(&f.decimals, "decimals", 18, "Source token decimals, used with --amount-decimal")
	flags.Float64Var(&f.slippage, "slippage", mee.DefaultSlippage, "Max slippage as a fraction")
	flags.StringSliceVar(&f.funding, "funding", nil, "Funding token as address:chainId:amount (repeatable)")
	flags.StringVar(&f.feeToken, "fee-token", "", "Fee token as address:chainId (empty lets the network choose)")
	flags.StringVar(&f.recipient, "recipient", "", "Withdrawal recipient (defaults to owner)")
	flags.BoolVar(&f.withdraw, "withdraw", false, "Append a withdrawal of the output token to the recipient")
	flags.BoolVar(&f.ccip, "ccip", false, "Bridge via CCIP build flow instead of a swap intent")
	flags.DurationVar(&f.deadline, "deadline", 30*time.Minute, "Validity window for withdrawal instructions")
	if withSigner {
		flags.StringVar(&f.rpcURL, "rpc-url", "", "RPC endpoint for the source chain (needed for onchain quotes)")
	}
}

func (f *intentFlags) validate() error {
	if strings.TrimSpace(f.owner) == "" {
		return clierr.New(clierr.CodeUsage, "--owner is required")
	}
	if f.srcChain == 0 || f.dstChain == 0 {
		return clierr.New(clierr.CodeUsage, "--src-chain and --dst-chain are required")
	}
	if f.srcToken == "" || f.dstToken == "" {
		return clierr.New(clierr.CodeUsage, "--src-token and --dst-token are required")
	}
	base, _, err := amount.Normalize(f.amount, f.amountDecimal, f.decimals)
	if err != nil {
		return err
	}
	f.amount = base
	if f.mode != mee.ModeEOA && f.mode != mee.ModeSmartAccount {
		return clierr.New(clierr.CodeUsage, fmt.Sprintf("unknown mode %q", f.mode))
	}
	return nil
}

// buildRequest assembles the quote request from the parsed flags, including
// any trailing withdrawal instruction.
func (f *intentFlags) buildRequest(log *zap.Logger) (mee.QuoteRequest, error) {
	funding, err := parseFundingTokens(f.funding)
	if err != nil {
		return mee.QuoteRequest{}, err
	}
	feeToken, err := parseFeeToken(f.feeToken)
	if err != nil {
		return mee.QuoteRequest{}, err
	}

	var flow mee.ComposeFlow
	if f.ccip {
		if !registry.CCIPSupported(f.srcChain, f.srcToken) {
			log.Warn("token is not on the known CCIP lane list, the network may reject the flow",
				zap.Int64("chainId", f.srcChain), zap.String("token", f.srcToken))
		}
		flow = mee.BuildCcipBridgeFlow(f.srcChain, f.dstChain, f.srcToken, f.dstToken, f.amount)
	} else {
		flow = mee.BuildSimpleIntentFlow(f.srcChain, f.dstChain, f.srcToken, f.dstToken, f.amount, f.slippage)
	}

	req := mee.QuoteRequest{
		Mode:          f.mode,
		OwnerAddress:  f.owner,
		ComposeFlows:  []mee.ComposeFlow{flow},
		FundingTokens: funding,
		FeeToken:      feeToken,
	}
	if f.withdraw && !registry.IsNativeToken(f.dstToken) {
		recipient := f.recipient
		if recipient == "" {
			recipient = f.owner
		}
		deadline := time.Now().Add(f.deadline).Unix()
		req.ComposeFlows = append(req.ComposeFlows,
			mee.BuildWithdrawalInstruction(f.dstToken, f.dstChain, recipient, deadline))
	}
	return req, nil
}

// nativeWithdrawal reports whether the request needs the two-phase native
// output planning instead of a plain quote.
func (f *intentFlags) nativeWithdrawal() bool {
	return f.withdraw && registry.IsNativeToken(f.dstToken) && !f.ccip
}

func (f *intentFlags) flowSummary() string {
	return fmt.Sprintf("%s %s(%d) -> %s(%d) amount=%s",
		flowKind(f.ccip), f.srcToken, f.srcChain, f.dstToken, f.dstChain, f.amount)
}

func flowKind(ccip bool) string {
	if ccip {
		return "ccip-bridge"
	}
	return "swap"
}

func (s *runtimeState) addIntentCommands(root *cobra.Command) {
	root.AddCommand(s.newQuoteCommand())
	root.AddCommand(s.newRunCommand())
	root.AddCommand(s.newRebalanceCommand())
}

func (s *runtimeState) newQuoteCommand() *cobra.Command {
	var flags intentFlags
	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Price a cross-chain intent without executing it",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := flags.validate(); err != nil {
				return err
			}
			ctx := cmd.Context()
			quote, _, err := s.resolveQuote(ctx, &flags)
			if err != nil {
				return err
			}
			return s.emitJSON(quote)
		},
	}
	flags.register(cmd, false)
	return cmd
}

func (s *runtimeState) newRunCommand() *cobra.Command {
	var flags intentFlags
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Quote, sign, and execute a cross-chain intent",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := flags.validate(); err != nil {
				return err
			}
			ctx := cmd.Context()

			signer, err := signing.NewLocalSignerFromEnv()
			if err != nil {
				return clierr.Wrap(clierr.CodeSigner, "load signing key", err)
			}
			defer signer.Close()
			s.connectSigner(ctx, signer, &flags)

			req, err := s.buildRunRequest(ctx, &flags)
			if err != nil {
				return err
			}
			resp, err := s.engine.ExecuteIntent(ctx, req, signer, s.progressPrinter())
			if err != nil {
				return err
			}
			if resp.Success && resp.SupertxHash != "" {
				s.recordSubmission(resp.SupertxHash, flags.owner, flags.mode, flags.flowSummary())
			}
			return s.emitJSON(resp)
		},
	}
	flags.register(cmd, true)
	return cmd
}

func (s *runtimeState) newRebalanceCommand() *cobra.Command {
	var (
		mode     string
		owner    string
		inputs   []string
		targets  []string
		slippage float64
		feeToken string
		execute  bool
	)
	cmd := &cobra.Command{
		Use:   "rebalance",
		Short: "Rebalance funded positions into weighted targets",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(owner) == "" {
				return clierr.New(clierr.CodeUsage, "--owner is required")
			}
			inputPositions, err := parseInputPositions(inputs)
			if err != nil {
				return err
			}
			targetPositions, err := parseTargetPositions(targets)
			if err != nil {
				return err
			}
			if len(inputPositions) == 0 || len(targetPositions) == 0 {
				return clierr.New(clierr.CodeUsage, "at least one --input and one --target are required")
			}
			if err := mee.ValidateTargetWeights(targetPositions); err != nil {
				return err
			}
			fee, err := parseFeeToken(feeToken)
			if err != nil {
				return err
			}

			req := mee.QuoteRequest{
				Mode:         mode,
				OwnerAddress: owner,
				ComposeFlows: []mee.ComposeFlow{
					mee.BuildMultiIntentFlow(inputPositions, targetPositions, slippage),
				},
				FundingTokens: fundingFromInputs(inputPositions),
				FeeToken:      fee,
			}
			ctx := cmd.Context()
			if !execute {
				quote, err := s.client.GetQuoteWithFundingRetries(ctx, req, s.progressPrinter())
				if err != nil {
					return err
				}
				return s.emitJSON(quote)
			}

			signer, err := signing.NewLocalSignerFromEnv()
			if err != nil {
				return clierr.Wrap(clierr.CodeSigner, "load signing key", err)
			}
			defer signer.Close()
			resp, err := s.engine.ExecuteIntent(ctx, req, signer, s.progressPrinter())
			if err != nil {
				return err
			}
			if resp.Success && resp.SupertxHash != "" {
				summary := fmt.Sprintf("rebalance %d inputs -> %d targets", len(inputPositions), len(targetPositions))
				s.recordSubmission(resp.SupertxHash, owner, mode, summary)
			}
			return s.emitJSON(resp)
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&mode, "mode", mee.ModeEOA, "Execution mode (eoa|smart-account)")
	flags.StringVar(&owner, "owner", "", "Owner EOA address")
	flags.StringSliceVar(&inputs, "input", nil, "Funded position as address:chainId:amount (repeatable)")
	flags.StringSliceVar(&targets, "target", nil, "Target position as address:chainId:weight (repeatable)")
	flags.Float64Var(&slippage, "slippage", mee.DefaultSlippage, "Max slippage as a fraction")
	flags.StringVar(&feeToken, "fee-token", "", "Fee token as address:chainId")
	flags.BoolVar(&execute, "execute", false, "Sign and execute instead of quoting only")
	return cmd
}

// resolveQuote prices the intent, routing native-output withdrawals through
// the two-phase gas-buffer planner.
func (s *runtimeState) resolveQuote(ctx context.Context, flags *intentFlags) (*mee.QuoteResponse, mee.QuoteRequest, error) {
	if flags.nativeWithdrawal() {
		plan, err := s.planNative(ctx, flags)
		if err != nil {
			return nil, mee.QuoteRequest{}, err
		}
		quote, err := s.client.GetQuoteWithFundingRetries(ctx, plan.Request, s.progressPrinter())
		if err != nil {
			return nil, mee.QuoteRequest{}, err
		}
		return quote, plan.Request, nil
	}
	req, err := flags.buildRequest(s.log)
	if err != nil {
		return nil, mee.QuoteRequest{}, err
	}
	quote, err := s.client.GetQuoteWithFundingRetries(ctx, req, s.progressPrinter())
	if err != nil {
		return nil, mee.QuoteRequest{}, err
	}
	return quote, req, nil
}

// buildRunRequest is resolveQuote's request-only half: the engine re-quotes
// as part of ExecuteIntent, so run needs the final request, not a quote.
func (s *runtimeState) buildRunRequest(ctx context.Context, flags *intentFlags) (mee.QuoteRequest, error) {
	if flags.nativeWithdrawal() {
		plan, err := s.planNative(ctx, flags)
		if err != nil {
			return mee.QuoteRequest{}, err
		}
		return plan.Request, nil
	}
	return flags.buildRequest(s.log)
}

func (s *runtimeState) planNative(ctx context.Context, flags *intentFlags) (*engine.NativeSwapPlan, error) {
	funding, err := parseFundingTokens(flags.funding)
	if err != nil {
		return nil, err
	}
	feeToken, err := parseFeeToken(flags.feeToken)
	if err != nil {
		return nil, err
	}
	plan, err := s.engine.PlanNativeSwap(ctx, engine.NativeSwapRequest{
		Mode:          flags.mode,
		OwnerAddress:  flags.owner,
		Recipient:     flags.recipient,
		SrcChainID:    flags.srcChain,
		DstChainID:    flags.dstChain,
		SrcToken:      flags.srcToken,
		Amount:        flags.amount,
		Slippage:      flags.slippage,
		FundingTokens: funding,
		FeeToken:      feeToken,
	}, s.progressPrinter())
	if err != nil {
		return nil, err
	}
	if plan.Warning != "" {
		fmt.Fprintln(s.runner.stderr, plan.Warning)
	}
	return plan, nil
}

// connectSigner attaches an RPC client to the signer when one can be
// resolved. Permit and simple quotes sign offline, so a missing RPC is a
// warning here and only becomes fatal if the quote turns out onchain.
func (s *runtimeState) connectSigner(ctx context.Context, signer *signing.LocalSigner, flags *intentFlags) {
	override := flags.rpcURL
	if override == "" {
		override = s.settings.RPCOverrides[flags.srcChain]
	}
	rpcURL, err := registry.ResolveRPCURL(override, flags.srcChain)
	if err != nil {
		s.log.Warn("no rpc for source chain, onchain quotes will fail",
			zap.Int64("chainId", flags.srcChain))
		return
	}
	if err := signer.Connect(ctx, flags.srcChain, rpcURL); err != nil {
		s.log.Warn("could not connect signer to source chain",
			zap.Int64("chainId", flags.srcChain), zap.Error(err))
	}
}

func (s *runtimeState) recordSubmission(hash, owner, mode, summary string) {
	if err := s.ensureStore(); err != nil {
		s.log.Warn("supertx not recorded", zap.Error(err))
		return
	}
	now := time.Now().UTC().Format(time.RFC3339)
	rec := store.Record{
		SupertxHash:  hash,
		OwnerAddress: owner,
		Mode:         mode,
		FlowSummary:  summary,
		Status:       "SUBMITTED",
		SubmittedAt:  now,
		UpdatedAt:    now,
	}
	if err := s.store.Save(rec); err != nil {
		s.log.Warn("supertx not recorded", zap.String("supertxHash", hash), zap.Error(err))
	}
}

func fundingFromInputs(inputs []mee.InputPosition) []mee.FundingToken {
	out := make([]mee.FundingToken, 0, len(inputs))
	for _, in := range inputs {
		out = append(out, mee.FundingToken{
			TokenAddress: in.ChainToken.TokenAddress,
			ChainID:      in.ChainToken.ChainID,
			Amount:       in.Amount,
		})
	}
	return out
}
