package registry

import "strings"

// Tokens transferable over the CCIP interoperability lane, keyed by chain ID.
// The remote network rejects pairs outside this list; callers use it to warn
// before paying for a doomed quote.
var ccipTokensByChainID = map[int64][]string{
	1: {
		"0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48", // USDC
		"0x514910771AF9Ca656af840dff83E8264EcF986CA", // LINK
	},
	10: {
		"0x0b2C639c533813f4Aa9D7837CAf62653d097Ff85", // USDC
		"0x350a791Bfc2C21F9Ed5d10980Dad2e2638ffa7f6", // LINK
	},
	137: {
		"0x3c499c542cEF5E3811e1192ce70d8cC03d5c3359", // USDC
		"0x53E0bca35eC356BD5ddDFebbD1Fc0fD03FaBad39", // LINK
	},
	8453: {
		"0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913", // USDC
		"0x88Fb150BDc53A65fe94Dea0c9BA0a6dAf8C6e196", // LINK
	},
	42161: {
		"0xaf88d065e77c8cC2239327C5EDb3A432268e5831", // USDC
		"0xf97f4df75117a78c1A5a0DBb814Af92458539FB4", // LINK
	},
	43114: {
		"0xB97EF9Ef8734C71904D8002F8b6Bc66Dd9c48a6E", // USDC
		"0x5947BB275c521040051D82396192181b413227A3", // LINK
	},
}

// CCIPSupported reports whether a token can be bridged over CCIP from the
// given chain.
func CCIPSupported(chainID int64, tokenAddress string) bool {
	clean := strings.ToLower(strings.TrimSpace(tokenAddress))
	for _, addr := range ccipTokensByChainID[chainID] {
		if strings.ToLower(addr) == clean {
			return true
		}
	}
	return false
}
