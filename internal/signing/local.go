package signing

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

const (
	EnvPrivateKey           = "SUPERTX_PRIVATE_KEY"
	EnvPrivateKeyFile       = "SUPERTX_PRIVATE_KEY_FILE"
	EnvKeystorePath         = "SUPERTX_KEYSTORE_PATH"
	EnvKeystorePassword     = "SUPERTX_KEYSTORE_PASSWORD"
	EnvKeystorePasswordFile = "SUPERTX_KEYSTORE_PASSWORD_FILE"
)

// LocalSigner holds a plain ECDSA key and implements every signing
// capability. The transaction-sending capability activates once the signer is
// bound to a chain with Connect.
type LocalSigner struct {
	privateKey *ecdsa.PrivateKey
	address    common.Address

	chainID      *big.Int
	eth          *ethclient.Client
	pollInterval time.Duration
}

type LocalSignerConfig struct {
	PrivateKeyHex        string
	PrivateKeyFile       string
	KeystorePath         string
	KeystorePassword     string
	KeystorePasswordFile string
}

func NewLocalSigner(cfg LocalSignerConfig) (*LocalSigner, error) {
	pk, err := loadPrivateKey(cfg)
	if err != nil {
		return nil, err
	}
	pub, ok := pk.Public().(*ecdsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("invalid ECDSA public key")
	}
	return &LocalSigner{
		privateKey:   pk,
		address:      crypto.PubkeyToAddress(*pub),
		pollInterval: 2 * time.Second,
	}, nil
}

// NewLocalSignerFromEnv builds a signer from the SUPERTX_* key environment,
// preferring an inline key, then a key file, then a keystore.
func NewLocalSignerFromEnv() (*LocalSigner, error) {
	return NewLocalSigner(LocalSignerConfig{
		PrivateKeyHex:        strings.TrimSpace(os.Getenv(EnvPrivateKey)),
		PrivateKeyFile:       strings.TrimSpace(os.Getenv(EnvPrivateKeyFile)),
		KeystorePath:         strings.TrimSpace(os.Getenv(EnvKeystorePath)),
		KeystorePassword:     strings.TrimSpace(os.Getenv(EnvKeystorePassword)),
		KeystorePasswordFile: strings.TrimSpace(os.Getenv(EnvKeystorePasswordFile)),
	})
}

// Connect binds the signer to one chain for on-chain approval payloads. The
// dialed chain must match the expected ID so approvals can never land on the
// wrong network.
func (s *LocalSigner) Connect(ctx context.Context, chainID int64, rpcURL string) error {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	onchainID, err := client.ChainID(ctx)
	if err != nil {
		client.Close()
		return fmt.Errorf("read chain id: %w", err)
	}
	if onchainID.Int64() != chainID {
		client.Close()
		return fmt.Errorf("rpc serves chain %d, expected %d", onchainID.Int64(), chainID)
	}
	s.eth = client
	s.chainID = onchainID
	return nil
}

func (s *LocalSigner) Close() {
	if s.eth != nil {
		s.eth.Close()
	}
}

func (s *LocalSigner) Address() common.Address {
	return s.address
}

func (s *LocalSigner) SignTypedData(data apitypes.TypedData) ([]byte, error) {
	if s == nil || s.privateKey == nil {
		return nil, errors.New("local signer is not initialized")
	}
	digest, _, err := apitypes.TypedDataAndHash(data)
	if err != nil {
		return nil, fmt.Errorf("hash typed data: %w", err)
	}
	sig, err := crypto.Sign(digest, s.privateKey)
	if err != nil {
		return nil, err
	}
	sig[64] += 27
	return sig, nil
}

func (s *LocalSigner) SignMessage(message []byte) ([]byte, error) {
	if s == nil || s.privateKey == nil {
		return nil, errors.New("local signer is not initialized")
	}
	sig, err := crypto.Sign(accounts.TextHash(message), s.privateKey)
	if err != nil {
		return nil, err
	}
	sig[64] += 27
	return sig, nil
}

func (s *LocalSigner) ChainID() *big.Int {
	if s.chainID == nil {
		return nil
	}
	return new(big.Int).Set(s.chainID)
}

func (s *LocalSigner) SendTransaction(ctx context.Context, req TxRequest) (common.Hash, error) {
	if s.eth == nil || s.chainID == nil {
		return common.Hash{}, errors.New("signer is not connected to a chain")
	}
	value := req.Value
	if value == nil {
		value = new(big.Int)
	}
	msg := ethereum.CallMsg{From: s.address, To: &req.To, Value: value, Data: req.Data}

	gasLimit := req.GasLimit
	if gasLimit == 0 {
		estimated, err := s.eth.EstimateGas(ctx, msg)
		if err != nil {
			return common.Hash{}, fmt.Errorf("estimate gas: %w", err)
		}
		gasLimit = uint64(float64(estimated) * 1.2)
	}

	tipCap, err := s.eth.SuggestGasTipCap(ctx)
	if err != nil {
		tipCap = big.NewInt(2_000_000_000) // 2 gwei fallback
	}
	header, err := s.eth.HeaderByNumber(ctx, nil)
	if err != nil {
		return common.Hash{}, fmt.Errorf("fetch latest header: %w", err)
	}
	baseFee := header.BaseFee
	if baseFee == nil {
		baseFee = big.NewInt(1_000_000_000)
	}
	feeCap := new(big.Int).Mul(baseFee, big.NewInt(2))
	feeCap.Add(feeCap, tipCap)

	nonce, err := s.eth.PendingNonceAt(ctx, s.address)
	if err != nil {
		return common.Hash{}, fmt.Errorf("fetch nonce: %w", err)
	}

	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   s.chainID,
		Nonce:     nonce,
		GasTipCap: tipCap,
		GasFeeCap: feeCap,
		Gas:       gasLimit,
		To:        &req.To,
		Value:     value,
		Data:      req.Data,
	})
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(s.chainID), s.privateKey)
	if err != nil {
		return common.Hash{}, fmt.Errorf("sign transaction: %w", err)
	}
	if err := s.eth.SendTransaction(ctx, signed); err != nil {
		return common.Hash{}, fmt.Errorf("broadcast transaction: %w", err)
	}
	return signed.Hash(), nil
}

// WaitForReceipt polls until the transaction is mined or ctx expires.
func (s *LocalSigner) WaitForReceipt(ctx context.Context, hash common.Hash) error {
	if s.eth == nil {
		return errors.New("signer is not connected to a chain")
	}
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()
	for {
		receipt, err := s.eth.TransactionReceipt(ctx, hash)
		if err == nil && receipt != nil {
			if receipt.Status == types.ReceiptStatusSuccessful {
				return nil
			}
			return errors.New("transaction reverted on-chain")
		}
		if err != nil && !errors.Is(err, ethereum.NotFound) && ctx.Err() == nil {
			// Transient RPC polling failures are retried until the deadline.
			_ = err
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("timed out waiting for receipt: %w", ctx.Err())
		case <-ticker.C:
		}
	}
}

func loadPrivateKey(cfg LocalSignerConfig) (*ecdsa.PrivateKey, error) {
	if strings.TrimSpace(cfg.PrivateKeyHex) != "" {
		return parseHexKey(cfg.PrivateKeyHex)
	}
	if strings.TrimSpace(cfg.PrivateKeyFile) != "" {
		buf, err := os.ReadFile(cfg.PrivateKeyFile)
		if err != nil {
			return nil, fmt.Errorf("read private key file: %w", err)
		}
		return parseHexKey(string(buf))
	}
	if strings.TrimSpace(cfg.KeystorePath) != "" {
		password := cfg.KeystorePassword
		if strings.TrimSpace(password) == "" && strings.TrimSpace(cfg.KeystorePasswordFile) != "" {
			buf, err := os.ReadFile(cfg.KeystorePasswordFile)
			if err != nil {
				return nil, fmt.Errorf("read keystore password file: %w", err)
			}
			password = strings.TrimSpace(string(buf))
		}
		if strings.TrimSpace(password) == "" {
			return nil, fmt.Errorf("keystore password is required")
		}
		buf, err := os.ReadFile(cfg.KeystorePath)
		if err != nil {
			return nil, fmt.Errorf("read keystore file: %w", err)
		}
		key, err := keystore.DecryptKey(buf, password)
		if err != nil {
			return nil, fmt.Errorf("decrypt keystore: %w", err)
		}
		return key.PrivateKey, nil
	}
	return nil, fmt.Errorf("missing signing key: set %s or %s or %s", EnvPrivateKey, EnvPrivateKeyFile, EnvKeystorePath)
}

func parseHexKey(raw string) (*ecdsa.PrivateKey, error) {
	clean := strings.TrimSpace(raw)
	clean = strings.TrimPrefix(clean, "0x")
	if clean == "" {
		return nil, fmt.Errorf("empty private key")
	}
	pk, err := crypto.HexToECDSA(clean)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	return pk, nil
}
