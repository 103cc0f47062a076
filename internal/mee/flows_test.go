package mee

import (
	"reflect"
	"testing"

	clierr "github.com/supertx-labs/supertx-cli/internal/errors"
	"github.com/supertx-labs/supertx-cli/internal/registry"
)

func TestBuildSimpleIntentFlow(t *testing.T) {
	flow := BuildSimpleIntentFlow(1, 10, "0xSRC", "0xDST", "1000000", 0.005)

	if flow.Type != FlowIntentSimple {
		t.Fatalf("type = %q, want %q", flow.Type, FlowIntentSimple)
	}
	if flow.SrcChainID != 1 || flow.DstChainID != 10 {
		t.Errorf("chains = %d -> %d, want 1 -> 10", flow.SrcChainID, flow.DstChainID)
	}
	if flow.Amount != "1000000" {
		t.Errorf("amount = %q", flow.Amount)
	}
	if flow.Slippage != 0.005 {
		t.Errorf("slippage = %v, want 0.005", flow.Slippage)
	}
}

func TestBuildSimpleIntentFlowDefaultSlippage(t *testing.T) {
	flow := BuildSimpleIntentFlow(1, 10, "0xSRC", "0xDST", "1", 0)
	if flow.Slippage != DefaultSlippage {
		t.Fatalf("slippage = %v, want default %v", flow.Slippage, DefaultSlippage)
	}
}

func TestBuildersAreIdempotent(t *testing.T) {
	a := BuildSimpleIntentFlow(1, 10, "0xSRC", "0xDST", "1000000", 0.01)
	b := BuildSimpleIntentFlow(1, 10, "0xSRC", "0xDST", "1000000", 0.01)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("identical inputs produced different flows:\n%+v\n%+v", a, b)
	}

	inputs := []InputPosition{{ChainToken: ChainToken{ChainID: 1, TokenAddress: "0xA"}, Amount: "5"}}
	targets := []TargetPosition{{ChainToken: ChainToken{ChainID: 10, TokenAddress: "0xB"}, Weight: 1.0}}
	m1 := BuildMultiIntentFlow(inputs, targets, 0.01)
	m2 := BuildMultiIntentFlow(inputs, targets, 0.01)
	if !reflect.DeepEqual(m1, m2) {
		t.Fatalf("identical inputs produced different multi flows")
	}
	// The builder must copy, never alias, the caller's slices.
	inputs[0].Amount = "changed"
	if m1.InputPositions[0].Amount != "5" {
		t.Fatalf("builder aliased the caller's input slice")
	}
}

func TestValidateTargetWeights(t *testing.T) {
	tests := []struct {
		name    string
		weights []float64
		wantErr bool
	}{
		{"sums to one", []float64{0.6, 0.4}, false},
		{"single target", []float64{1.0}, false},
		{"within tolerance", []float64{0.5004, 0.5001}, false},
		{"over one", []float64{0.5, 0.5, 0.1}, true},
		{"under one", []float64{0.5, 0.4}, true},
		{"empty", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			targets := make([]TargetPosition, len(tt.weights))
			for i, w := range tt.weights {
				targets[i] = TargetPosition{Weight: w}
			}
			err := ValidateTargetWeights(targets)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr = %v", err, tt.wantErr)
			}
			if err != nil && !clierr.HasCode(err, clierr.CodeUsage) {
				t.Errorf("weight error should be a usage error, got %v", err)
			}
		})
	}
}

func TestBuildWithdrawalInstruction(t *testing.T) {
	flow := BuildWithdrawalInstruction("0xTOKEN", 10, "0xRECIPIENT", 1700000000)

	if flow.Type != FlowBuild {
		t.Fatalf("type = %q, want %q", flow.Type, FlowBuild)
	}
	if flow.To != "0xTOKEN" {
		t.Errorf("to = %q, want the token contract", flow.To)
	}
	if flow.FunctionSignature != "transfer(address,uint256)" {
		t.Errorf("functionSignature = %q", flow.FunctionSignature)
	}
	if flow.UpperBoundTimestamp != 1700000000 {
		t.Errorf("upperBoundTimestamp = %d", flow.UpperBoundTimestamp)
	}
	if len(flow.Args) != 2 {
		t.Fatalf("args = %d, want recipient plus runtime balance", len(flow.Args))
	}
	if flow.Args[0] != "0xRECIPIENT" {
		t.Errorf("args[0] = %v", flow.Args[0])
	}
	arg, ok := flow.Args[1].(RuntimeBalanceArg)
	if !ok {
		t.Fatalf("args[1] is %T, want RuntimeBalanceArg", flow.Args[1])
	}
	if arg.Type != "runtimeErc20Balance" || arg.TokenAddress != "0xTOKEN" || arg.Constraints.GTE != "1" {
		t.Errorf("runtime balance arg = %+v", arg)
	}
}

func TestBuildNativeWithdrawalInstruction(t *testing.T) {
	flow, err := BuildNativeWithdrawalInstruction(10, "0xRECIPIENT", "900000000000000000")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	forwarder, _ := registry.ForwarderAddress(10)
	if flow.To != forwarder {
		t.Errorf("to = %q, want forwarder %q", flow.To, forwarder)
	}
	if flow.FunctionSignature != "forward(address)" {
		t.Errorf("functionSignature = %q", flow.FunctionSignature)
	}
	if flow.Value != "900000000000000000" {
		t.Errorf("value = %q, native amount must ride as transaction value", flow.Value)
	}
}

func TestBuildNativeWithdrawalInstructionUnknownChain(t *testing.T) {
	_, err := BuildNativeWithdrawalInstruction(999999, "0xRECIPIENT", "1")
	if !clierr.HasCode(err, clierr.CodeUnsupported) {
		t.Fatalf("err = %v, want unsupported-chain error", err)
	}
}

func TestBuildNativeWithdrawalInstructionWithRuntimeBalance(t *testing.T) {
	flow, err := BuildNativeWithdrawalInstructionWithRuntimeBalance(1, "0xRECIPIENT")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if flow.FunctionSignature != "forward(address,uint256)" {
		t.Errorf("functionSignature = %q", flow.FunctionSignature)
	}
	if flow.Value != "0" {
		t.Errorf("value = %q, runtime-balance forward sends no fixed value", flow.Value)
	}
	arg, ok := flow.Args[1].(RuntimeBalanceArg)
	if !ok || arg.TokenAddress != registry.NativeTokenAddress {
		t.Errorf("args[1] = %+v, want native-token runtime balance", flow.Args[1])
	}
}

func TestBuildCcipBridgeFlow(t *testing.T) {
	flow := BuildCcipBridgeFlow(1, 43114, "0xUSDC1", "0xUSDC43114", "25000000")
	if flow.Type != FlowBuildCCIP {
		t.Fatalf("type = %q, want %q", flow.Type, FlowBuildCCIP)
	}
	if flow.SrcChainID != 1 || flow.DstChainID != 43114 || flow.Amount != "25000000" {
		t.Errorf("flow = %+v", flow)
	}
}
