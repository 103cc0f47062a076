package mee

import (
	"encoding/json"

	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

// Flow kinds understood by the execution network.
const (
	FlowIntentSimple = "intent-simple"
	FlowIntent       = "intent"
	FlowBuild        = "build"
	FlowBuildCCIP    = "build-ccip"
)

// Execution modes for a quote request.
const (
	ModeEOA          = "eoa"
	ModeSmartAccount = "smart-account"
)

// Quote types returned by the network; each dictates the signing protocol
// for every payload in the response.
const (
	QuoteTypePermit  = "permit"
	QuoteTypeOnchain = "onchain"
	QuoteTypeSimple  = "simple"
)

// ChainToken identifies a token by chain and contract address. The all-zero
// address denotes the chain's native currency.
type ChainToken struct {
	ChainID      int64  `json:"chainId"`
	TokenAddress string `json:"tokenAddress"`
}

// InputPosition is a funded position consumed by a rebalance intent.
type InputPosition struct {
	ChainToken ChainToken `json:"chainToken"`
	Amount     string     `json:"amount"`
}

// TargetPosition is a rebalance destination with a portfolio weight.
// Weights across all targets must sum to 1.0 (validated by the caller).
type TargetPosition struct {
	ChainToken ChainToken `json:"chainToken"`
	Weight     float64    `json:"weight"`
}

// RuntimeBalanceArg marks a build-flow argument the network resolves to the
// live token balance of the execution account at execution time.
type RuntimeBalanceArg struct {
	Type         string                    `json:"type"`
	TokenAddress string                    `json:"tokenAddress"`
	Constraints  RuntimeBalanceConstraints `json:"constraints"`
}

type RuntimeBalanceConstraints struct {
	GTE string `json:"gte"`
}

// ComposeFlow is one step of a supertransaction recipe. Type selects the
// kind; only the fields for that kind are populated.
type ComposeFlow struct {
	Type  string `json:"type"`
	Batch bool   `json:"batch,omitempty"`

	// intent-simple and build-ccip
	SrcChainID int64  `json:"srcChainId,omitempty"`
	DstChainID int64  `json:"dstChainId,omitempty"`
	SrcToken   string `json:"srcToken,omitempty"`
	DstToken   string `json:"dstToken,omitempty"`
	Amount     string `json:"amount,omitempty"`

	// intent-simple and intent
	Slippage float64 `json:"slippage,omitempty"`

	// intent
	InputPositions  []InputPosition  `json:"inputPositions,omitempty"`
	TargetPositions []TargetPosition `json:"targetPositions,omitempty"`

	// build
	To                  string `json:"to,omitempty"`
	ChainID             int64  `json:"chainId,omitempty"`
	FunctionSignature   string `json:"functionSignature,omitempty"`
	Args                []any  `json:"args,omitempty"`
	Value               string `json:"value,omitempty"`
	Data                string `json:"data,omitempty"`
	GasLimit            string `json:"gasLimit,omitempty"`
	UpperBoundTimestamp int64  `json:"upperBoundTimestamp,omitempty"`
}

// FundingToken pre-authorizes a token to cover the network's execution fee.
type FundingToken struct {
	TokenAddress string `json:"tokenAddress"`
	ChainID      int64  `json:"chainId"`
	Amount       string `json:"amount"`
}

// FeeToken is an explicit fee-payment preference; nil lets the network
// choose (gasless sponsorship mode).
type FeeToken struct {
	Address string `json:"address"`
	ChainID int64  `json:"chainId"`
}

// QuoteRequest describes the desired cross-chain operation. It is treated as
// immutable once sent; retry logic clones before mutating.
type QuoteRequest struct {
	Mode                string         `json:"mode"`
	OwnerAddress        string         `json:"ownerAddress"`
	ComposeFlows        []ComposeFlow  `json:"composeFlows"`
	FundingTokens       []FundingToken `json:"fundingTokens,omitempty"`
	FeeToken            *FeeToken      `json:"feeToken,omitempty"`
	GasLimit            string         `json:"gasLimit,omitempty"`
	LowerBoundTimestamp int64          `json:"lowerBoundTimestamp,omitempty"`
	UpperBoundTimestamp int64          `json:"upperBoundTimestamp,omitempty"`
}

// Clone deep-copies the request so a retry can enlarge funding amounts
// without touching the caller's value.
func (r QuoteRequest) Clone() QuoteRequest {
	out := r
	out.ComposeFlows = make([]ComposeFlow, len(r.ComposeFlows))
	for i, flow := range r.ComposeFlows {
		cp := flow
		if flow.InputPositions != nil {
			cp.InputPositions = append([]InputPosition(nil), flow.InputPositions...)
		}
		if flow.TargetPositions != nil {
			cp.TargetPositions = append([]TargetPosition(nil), flow.TargetPositions...)
		}
		if flow.Args != nil {
			cp.Args = append([]any(nil), flow.Args...)
		}
		out.ComposeFlows[i] = cp
	}
	if r.FundingTokens != nil {
		out.FundingTokens = append([]FundingToken(nil), r.FundingTokens...)
	}
	if r.FeeToken != nil {
		fee := *r.FeeToken
		out.FeeToken = &fee
	}
	return out
}

// SignablePayload is the typed-data half of a payload to sign. Message may be
// an EIP-712 message object or, for simple quotes, a plain string.
type SignablePayload struct {
	Domain      apitypes.TypedDataDomain `json:"domain"`
	Types       apitypes.Types           `json:"types"`
	PrimaryType string                   `json:"primaryType"`
	Message     json.RawMessage          `json:"message"`
}

// StringMessage returns the message as a plain string when it is one.
func (p *SignablePayload) StringMessage() (string, bool) {
	var s string
	if err := json.Unmarshal(p.Message, &s); err != nil {
		return "", false
	}
	return s, true
}

// TypedMessage returns the message decoded as an EIP-712 message object.
func (p *SignablePayload) TypedMessage() (apitypes.TypedDataMessage, error) {
	var m apitypes.TypedDataMessage
	if err := json.Unmarshal(p.Message, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// PayloadToSign is one unsigned entry of a quote: either a typed-data
// payload, a raw on-chain call descriptor, or both. Signature is filled in
// place once the payload is signed (or, for onchain quotes, mined).
type PayloadToSign struct {
	SignablePayload *SignablePayload `json:"signablePayload,omitempty"`
	To              string           `json:"to,omitempty"`
	Data            string           `json:"data,omitempty"`
	Value           json.RawMessage  `json:"value,omitempty"`
	ChainID         int64            `json:"chainId,omitempty"`
	GasLimit        string           `json:"gasLimit,omitempty"`
	Signature       string           `json:"signature,omitempty"`
}

// ReturnedData carries the projected output for one flow of a quote.
type ReturnedData struct {
	OutputAmount    string          `json:"outputAmount"`
	MinOutputAmount string          `json:"minOutputAmount"`
	Route           json.RawMessage `json:"route,omitempty"`
}

// QuoteResponse is a priced, short-lived quote for a request. Quote is kept
// opaque so it round-trips verbatim to the execute endpoint.
type QuoteResponse struct {
	Fee           json.RawMessage `json:"fee,omitempty"`
	QuoteType     string          `json:"quoteType"`
	Quote         json.RawMessage `json:"quote"`
	PayloadToSign []PayloadToSign `json:"payloadToSign"`
	ReturnedData  []ReturnedData  `json:"returnedData,omitempty"`
}

/// ExecuteResponse is the execute endpoint's result. Success:false is a
// business failure the caller branches on, not an error.
type ExecuteResponse struct {
	Success     bool   `json:"success"`
	SupertxHash string `json:"supertxHash,omitempty"`
	Error       string `json:"error,omitempty"`
}

// TransactionStatus is the per-chain settlement state of one leg.
type TransactionStatus struct {
	ChainID int64  `json:"chainId"`
	TxHash  string `json:"txHash"`
	Status  string `json:"status"`
}

// SupertxStatus is the settlement state of a submitted supertransaction.
type SupertxStatus struct {
	Status       string              `json:"status"`
	SupertxHash  string              `json:"supertxHash"`
	Transactions []TransactionStatus `json:"transactions,omitempty"`
	Error        string              `json:"error,omitempty"`
}

// AccountDeployment is one per-chain execution-account deployment reported
// by the orchestrator endpoint.
type AccountDeployment struct {
	ChainID  int64  `json:"chainId"`
	Address  string `json:"address"`
	Version  string `json:"version"`
	Deployed bool   `json:"deployed"`
}
