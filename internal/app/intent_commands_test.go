package app

import (
	"testing"

	"go.uber.org/zap"

	clierr "github.com/supertx-labs/supertx-cli/internal/errors"
	"github.com/supertx-labs/supertx-cli/internal/mee"
	"github.com/supertx-labs/supertx-cli/internal/registry"
)

func validFlags() intentFlags {
	return intentFlags{
		mode:     mee.ModeEOA,
		owner:    "0xOWNER",
		srcChain: 1,
		dstChain: 10,
		srcToken: "0xSRC",
		dstToken: "0xDST",
		amount:   "1000000",
		decimals: 6,
		slippage: 0.01,
		deadline: 0,
	}
}

func TestIntentFlagsValidate(t *testing.T) {
	flags := validFlags()
	if err := flags.validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*intentFlags)
	}{
		{"missing owner", func(f *intentFlags) { f.owner = "" }},
		{"missing chain", func(f *intentFlags) { f.srcChain = 0 }},
		{"missing token", func(f *intentFlags) { f.dstToken = "" }},
		{"missing amount", func(f *intentFlags) { f.amount = "" }},
		{"both amount forms", func(f *intentFlags) { f.amountDecimal = "1.5" }},
		{"bad mode", func(f *intentFlags) { f.mode = "hyperspace" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := validFlags()
			tt.mutate(&f)
			if err := f.validate(); !clierr.HasCode(err, clierr.CodeUsage) {
				t.Fatalf("err = %v, want usage error", err)
			}
		})
	}
}

func TestIntentFlagsValidateResolvesDecimalAmount(t *testing.T) {
	flags := validFlags()
	flags.amount = ""
	flags.amountDecimal = "1.5"
	if err := flags.validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if flags.amount != "1500000" {
		t.Fatalf("amount = %q, want base units of 1.5 with 6 decimals", flags.amount)
	}
}

func TestBuildRequestSwap(t *testing.T) {
	flags := validFlags()
	flags.funding = []string{"0xFUND:1:1000000"}
	flags.feeToken = "0xUSDC:1"

	req, err := flags.buildRequest(zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(req.ComposeFlows) != 1 {
		t.Fatalf("flows = %d", len(req.ComposeFlows))
	}
	if req.ComposeFlows[0].Type != mee.FlowIntentSimple {
		t.Errorf("flow type = %q", req.ComposeFlows[0].Type)
	}
	if len(req.FundingTokens) != 1 || req.FundingTokens[0].TokenAddress != "0xFUND" {
		t.Errorf("funding = %+v", req.FundingTokens)
	}
	if req.FeeToken == nil || req.FeeToken.ChainID != 1 {
		t.Errorf("feeToken = %+v", req.FeeToken)
	}
}

func TestBuildRequestAppendsErc20Withdrawal(t *testing.T) {
	flags := validFlags()
	flags.withdraw = true
	flags.recipient = "0xRECIPIENT"

	req, err := flags.buildRequest(zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(req.ComposeFlows) != 2 {
		t.Fatalf("flows = %d, want swap plus withdrawal", len(req.ComposeFlows))
	}
	withdrawal := req.ComposeFlows[1]
	if withdrawal.FunctionSignature != "transfer(address,uint256)" {
		t.Errorf("withdrawal = %+v", withdrawal)
	}
	if withdrawal.Args[0] != "0xRECIPIENT" {
		t.Errorf("recipient = %v", withdrawal.Args[0])
	}
}

func TestBuildRequestNativeOutputUsesPlanner(t *testing.T) {
	flags := validFlags()
	flags.withdraw = true
	flags.dstToken = registry.NativeTokenAddress

	if !flags.nativeWithdrawal() {
		t.Fatal("native output sweep must route through the planner")
	}
	// The plain builder must not bolt an ERC20 transfer onto native output.
	req, err := flags.buildRequest(zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(req.ComposeFlows) != 1 {
		t.Fatalf("flows = %d, native withdrawal is the planner's job", len(req.ComposeFlows))
	}
}

func TestBuildRequestCcip(t *testing.T) {
	flags := validFlags()
	flags.ccip = true

	req, err := flags.buildRequest(zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.ComposeFlows[0].Type != mee.FlowBuildCCIP {
		t.Errorf("flow type = %q", req.ComposeFlows[0].Type)
	}
}
