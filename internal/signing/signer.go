// Package signing signs quote payloads with whichever protocol the quote
// type demands: EIP-712 typed data, raw personal messages, or an on-chain
// approval transaction whose mined hash stands in for a signature.
package signing

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

// Signer is the minimum capability every wallet backend provides. Optional
// capabilities are discovered by interface assertion rather than kept as
// parallel signer implementations.
type Signer interface {
	Address() common.Address
	SignTypedData(data apitypes.TypedData) ([]byte, error)
}

// MessageSigner signs raw personal messages (EIP-191).
type MessageSigner interface {
	SignMessage(message []byte) ([]byte, error)
}

// TxRequest describes an on-chain call to broadcast.
type TxRequest struct {
	To       common.Address
	Data     []byte
	Value    *big.Int
	GasLimit uint64 // 0 estimates on-chain
}

// TransactionSender broadcasts transactions on its configured chain.
type TransactionSender interface {
	ChainID() *big.Int
	SendTransaction(ctx context.Context, req TxRequest) (common.Hash, error)
}

// ReceiptWaiter blocks until a broadcast transaction is mined. Callers bound
// the wait with a context deadline; a stalled chain must not hang forever.
type ReceiptWaiter interface {
	WaitForReceipt(ctx context.Context, hash common.Hash) error
}
