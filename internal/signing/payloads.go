package signing

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"go.uber.org/zap"

	clierr "github.com/supertx-labs/supertx-cli/internal/errors"
	"github.com/supertx-labs/supertx-cli/internal/mee"
)

// receiptWaitTimeout caps the mining wait for an onchain approval even when
// the caller's context carries no deadline of its own.
const receiptWaitTimeout = 5 * time.Minute

// SignPayloads produces a fully-signed copy of the quote's payload set. The
// signing protocol is dispatched on the quote's type, which applies to every
// payload in the response:
//
//   - permit: every payload is EIP-712 typed data.
//   - simple: a string message is signed raw; a typed message falls back to
//     the permit path.
//   - onchain: the payload is an approval transaction that must be broadcast
//     (and, when a receipt waiter is available, mined) before its hash can
//     serve as the signature.
//
// An unrecognized quote type is a protocol contract violation, never a
// retryable condition. Payloads are signed in array order; no payload's
// signature depends on another's.
func SignPayloads(ctx context.Context, quote *mee.QuoteResponse, signer Signer, log *zap.Logger) ([]mee.PayloadToSign, error) {
	if quote == nil {
		return nil, clierr.New(clierr.CodeInternal, "missing quote")
	}
	if signer == nil {
		return nil, clierr.New(clierr.CodeSigner, "missing signer")
	}
	if log == nil {
		log = zap.NewNop()
	}

	signed := make([]mee.PayloadToSign, len(quote.PayloadToSign))
	copy(signed, quote.PayloadToSign)

	for i := range signed {
		payload := &signed[i]
		switch quote.QuoteType {
		case mee.QuoteTypePermit:
			if err := signTypedPayload(payload, signer); err != nil {
				return nil, err
			}
		case mee.QuoteTypeSimple:
			if err := signSimplePayload(payload, signer); err != nil {
				return nil, err
			}
		case mee.QuoteTypeOnchain:
			if err := executeApprovalPayload(ctx, payload, signer, log); err != nil {
				return nil, err
			}
		default:
			return nil, clierr.New(clierr.CodeProtocol, fmt.Sprintf("unknown quote type %q", quote.QuoteType))
		}
	}
	return signed, nil
}

func signTypedPayload(payload *mee.PayloadToSign, signer Signer) error {
	if payload.SignablePayload == nil {
		return clierr.New(clierr.CodeProtocol, "permit payload missing signable typed data")
	}
	if _, isString := payload.SignablePayload.StringMessage(); isString {
		return clierr.New(clierr.CodeProtocol, "permit payload carries a plain string message")
	}
	message, err := payload.SignablePayload.TypedMessage()
	if err != nil {
		return clierr.Wrap(clierr.CodeProtocol, "decode typed-data message", err)
	}
	sig, err := signer.SignTypedData(apitypes.TypedData{
		Domain:      payload.SignablePayload.Domain,
		Types:       payload.SignablePayload.Types,
		PrimaryType: payload.SignablePayload.PrimaryType,
		Message:     message,
	})
	if err != nil {
		return clierr.Wrap(clierr.CodeSigner, "sign typed data", err)
	}
	payload.Signature = hexutil.Encode(sig)
	return nil
}

func signSimplePayload(payload *mee.PayloadToSign, signer Signer) error {
	if payload.SignablePayload == nil {
		return clierr.New(clierr.CodeProtocol, "simple payload missing signable data")
	}
	message, isString := payload.SignablePayload.StringMessage()
	if !isString {
		return signTypedPayload(payload, signer)
	}
	msgSigner, ok := signer.(MessageSigner)
	if !ok {
		return clierr.New(clierr.CodeSigner, "signer does not support raw message signing")
	}
	sig, err := msgSigner.SignMessage([]byte(message))
	if err != nil {
		return clierr.Wrap(clierr.CodeSigner, "sign message", err)
	}
	payload.Signature = hexutil.Encode(sig)
	return nil
}

// executeApprovalPayload broadcasts the payload as an approval transaction on
// the signer's configured chain and records the transaction hash as the
// payload's signature. Sending on a mismatched chain would target the wrong
// network, so that is a hard failure.
func executeApprovalPayload(ctx context.Context, payload *mee.PayloadToSign, signer Signer, log *zap.Logger) error {
	sender, ok := signer.(TransactionSender)
	if !ok {
		return clierr.New(clierr.CodeSigner, "signer does not support sending transactions")
	}
	chainID := sender.ChainID()
	if chainID == nil || payload.ChainID != chainID.Int64() {
		return clierr.New(clierr.CodeProtocol, fmt.Sprintf(
			"cannot execute cross-chain transaction with wrong wallet configuration: payload targets chain %d, wallet is on %v",
			payload.ChainID, chainID))
	}
	if !common.IsHexAddress(payload.To) {
		return clierr.New(clierr.CodeProtocol, "onchain payload missing target address")
	}

	data, err := decodeHex(payload.Data)
	if err != nil {
		return clierr.Wrap(clierr.CodeProtocol, "decode approval calldata", err)
	}
	value := parsePayloadValue(payload.Value, log)
	gasLimit := parseGasLimit(payload.GasLimit)

	txHash, err := sender.SendTransaction(ctx, TxRequest{
		To:       common.HexToAddress(payload.To),
		Data:     data,
		Value:    value,
		GasLimit: gasLimit,
	})
	if err != nil {
		return clierr.Wrap(clierr.CodeSigner, "broadcast approval transaction", err)
	}
	if waiter, ok := signer.(ReceiptWaiter); ok {
		waitCtx, cancel := context.WithTimeout(ctx, receiptWaitTimeout)
		err := waiter.WaitForReceipt(waitCtx, txHash)
		cancel()
		if err != nil {
			return clierr.Wrap(clierr.CodeTimeout, "wait for approval receipt", err)
		}
	}
	payload.Signature = txHash.Hex()
	return nil
}

// parsePayloadValue accepts a decimal string, hex string, or bare number and
// defaults to zero with a logged warning; a malformed value must never abort
// the flow mid-signing.
func parsePayloadValue(raw json.RawMessage, log *zap.Logger) *big.Int {
	text := strings.TrimSpace(string(raw))
	if text == "" || text == "null" {
		return new(big.Int)
	}
	if strings.HasPrefix(text, `"`) {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			log.Warn("unparseable payload value, defaulting to 0", zap.String("value", text))
			return new(big.Int)
		}
		text = strings.TrimSpace(s)
	}
	if text == "" {
		return new(big.Int)
	}
	if strings.HasPrefix(text, "0x") || strings.HasPrefix(text, "0X") {
		if n, ok := new(big.Int).SetString(text[2:], 16); ok {
			return n
		}
		log.Warn("unparseable hex payload value, defaulting to 0", zap.String("value", text))
		return new(big.Int)
	}
	if n, ok := new(big.Int).SetString(text, 10); ok {
		return n
	}
	log.Warn("unparseable payload value, defaulting to 0", zap.String("value", text))
	return new(big.Int)
}

func parseGasLimit(v string) uint64 {
	clean := strings.TrimSpace(v)
	if clean == "" {
		return 0
	}
	n, ok := new(big.Int).SetString(clean, 10)
	if !ok || !n.IsUint64() {
		return 0
	}
	return n.Uint64()
}

func decodeHex(v string) ([]byte, error) {
	clean := strings.TrimSpace(v)
	clean = strings.TrimPrefix(clean, "0x")
	if clean == "" {
		return []byte{}, nil
	}
	if len(clean)%2 != 0 {
		clean = "0" + clean
	}
	buf, err := hex.DecodeString(clean)
	if err != nil {
		return nil, fmt.Errorf("invalid hex: %w", err)
	}
	return buf, nil
}
