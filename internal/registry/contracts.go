package registry

import "strings"

// NativeTokenAddress is the sentinel address for a chain's native currency.
// Native tokens are assumed to carry 18 decimals.
const NativeTokenAddress = "0x0000000000000000000000000000000000000000"

// NativeTokenDecimals applies to every native sentinel token.
const NativeTokenDecimals = 18

// IsNativeToken reports whether addr is the native-currency sentinel.
func IsNativeToken(addr string) bool {
	clean := strings.ToLower(strings.TrimSpace(addr))
	return clean == NativeTokenAddress || clean == "0x0"
}

// Canonical forwarder contracts used to sweep native currency out of the
// per-user execution account. Native value cannot be pushed through ERC20
// transfer calldata, so withdrawals route through forward(recipient).
var forwarderByChainID = map[int64]string{
	1:     "0x3a23F943181408EAC424116Af7b7790c94Cb97a5",
	10:    "0x3a23F943181408EAC424116Af7b7790c94Cb97a5",
	137:   "0x3a23F943181408EAC424116Af7b7790c94Cb97a5",
	8453:  "0x3a23F943181408EAC424116Af7b7790c94Cb97a5",
	42161: "0x3a23F943181408EAC424116Af7b7790c94Cb97a5",
	43114: "0x3a23F943181408EAC424116Af7b7790c94Cb97a5",
}

// ForwarderAddress returns the native-withdrawal forwarder for a chain.
func ForwarderAddress(chainID int64) (string, bool) {
	value, ok := forwarderByChainID[chainID]
	return value, ok
}
