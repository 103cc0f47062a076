package signing

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

const testPrivateKey = "59c6995e998f97a5a0044976f0945388cf9b7e5e5f4f9d2d9d8f1f5b7f6d11d1"

func TestNewLocalSignerFromEnvHex(t *testing.T) {
	t.Setenv(EnvPrivateKey, testPrivateKey)
	s, err := NewLocalSignerFromEnv()
	if err != nil {
		t.Fatalf("NewLocalSignerFromEnv failed: %v", err)
	}
	if s.Address() == (common.Address{}) {
		t.Fatal("expected non-zero signer address")
	}
}

func TestNewLocalSignerFromEnvHexWith0xPrefix(t *testing.T) {
	t.Setenv(EnvPrivateKey, "0x"+testPrivateKey)
	s, err := NewLocalSignerFromEnv()
	if err != nil {
		t.Fatalf("NewLocalSignerFromEnv failed: %v", err)
	}
	if s.Address() == (common.Address{}) {
		t.Fatal("expected non-zero signer address")
	}
}

func TestNewLocalSignerFromEnvFile(t *testing.T) {
	dir := t.TempDir()
	keyFile := filepath.Join(dir, "key.txt")
	if err := os.WriteFile(keyFile, []byte(testPrivateKey+"\n"), 0o600); err != nil {
		t.Fatalf("write key file: %v", err)
	}
	t.Setenv(EnvPrivateKeyFile, keyFile)

	s, err := NewLocalSignerFromEnv()
	if err != nil {
		t.Fatalf("NewLocalSignerFromEnv failed: %v", err)
	}
	if s.Address() == (common.Address{}) {
		t.Fatal("expected non-zero signer address")
	}
}

func TestNewLocalSignerFromEnvMissingKey(t *testing.T) {
	t.Setenv(EnvPrivateKey, "")
	t.Setenv(EnvPrivateKeyFile, "")
	t.Setenv(EnvKeystorePath, "")
	if _, err := NewLocalSignerFromEnv(); err == nil {
		t.Fatal("expected error with no key material configured")
	}
}

func TestSignMessageRecoversSigner(t *testing.T) {
	t.Setenv(EnvPrivateKey, testPrivateKey)
	s, err := NewLocalSignerFromEnv()
	if err != nil {
		t.Fatalf("NewLocalSignerFromEnv failed: %v", err)
	}

	message := []byte("0xdeadbeef")
	sig, err := s.SignMessage(message)
	if err != nil {
		t.Fatalf("SignMessage failed: %v", err)
	}
	if len(sig) != 65 {
		t.Fatalf("signature length = %d, want 65", len(sig))
	}
	if sig[64] != 27 && sig[64] != 28 {
		t.Fatalf("recovery byte = %d, want 27 or 28", sig[64])
	}

	recovery := make([]byte, 65)
	copy(recovery, sig)
	recovery[64] -= 27
	pub, err := crypto.SigToPub(accounts.TextHash(message), recovery)
	if err != nil {
		t.Fatalf("recover public key: %v", err)
	}
	if got := crypto.PubkeyToAddress(*pub); got != s.Address() {
		t.Fatalf("recovered %s, want %s", got, s.Address())
	}
}

func TestSignTypedDataRecoversSigner(t *testing.T) {
	t.Setenv(EnvPrivateKey, testPrivateKey)
	s, err := NewLocalSignerFromEnv()
	if err != nil {
		t.Fatalf("NewLocalSignerFromEnv failed: %v", err)
	}

	data := apitypes.TypedData{
		Domain: apitypes.TypedDataDomain{
			Name:    "Nexus",
			Version: "1",
			ChainId: math.NewHexOrDecimal256(1),
		},
		Types: apitypes.Types{
			"EIP712Domain": []apitypes.Type{
				{Name: "name", Type: "string"},
				{Name: "version", Type: "string"},
				{Name: "chainId", Type: "uint256"},
			},
			"Permit": []apitypes.Type{
				{Name: "owner", Type: "address"},
				{Name: "value", Type: "uint256"},
			},
		},
		PrimaryType: "Permit",
		Message: apitypes.TypedDataMessage{
			"owner": s.Address().Hex(),
			"value": "100",
		},
	}

	sig, err := s.SignTypedData(data)
	if err != nil {
		t.Fatalf("SignTypedData failed: %v", err)
	}
	if len(sig) != 65 {
		t.Fatalf("signature length = %d, want 65", len(sig))
	}

	digest, _, err := apitypes.TypedDataAndHash(data)
	if err != nil {
		t.Fatalf("hash typed data: %v", err)
	}
	recovery := make([]byte, 65)
	copy(recovery, sig)
	recovery[64] -= 27
	pub, err := crypto.SigToPub(digest, recovery)
	if err != nil {
		t.Fatalf("recover public key: %v", err)
	}
	if got := crypto.PubkeyToAddress(*pub); got != s.Address() {
		t.Fatalf("recovered %s, want %s", got, s.Address())
	}
}

func TestUnconnectedSignerCannotSend(t *testing.T) {
	t.Setenv(EnvPrivateKey, testPrivateKey)
	s, err := NewLocalSignerFromEnv()
	if err != nil {
		t.Fatalf("NewLocalSignerFromEnv failed: %v", err)
	}
	if s.ChainID() != nil {
		t.Fatal("unconnected signer must not report a chain")
	}
	if _, err := s.SendTransaction(context.Background(), TxRequest{}); err == nil {
		t.Fatal("expected error sending from an unconnected signer")
	}
}
