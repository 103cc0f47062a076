package app

import (
	"fmt"
	"strconv"
	"strings"

	clierr "github.com/supertx-labs/supertx-cli/internal/errors"
	"github.com/supertx-labs/supertx-cli/internal/mee"
)

// parseFundingTokens parses repeated --funding values of the form
// address:chainId:amount (amount in base units).
func parseFundingTokens(values []string) ([]mee.FundingToken, error) {
	if len(values) == 0 {
		return nil, nil
	}
	out := make([]mee.FundingToken, 0, len(values))
	for _, v := range values {
		parts := strings.Split(v, ":")
		if len(parts) != 3 {
			return nil, clierr.New(clierr.CodeUsage, fmt.Sprintf("invalid --funding %q, want address:chainId:amount", v))
		}
		chainID, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			return nil, clierr.New(clierr.CodeUsage, fmt.Sprintf("invalid chain id in --funding %q", v))
		}
		if !isBaseUnits(parts[2]) {
			return nil, clierr.New(clierr.CodeUsage, fmt.Sprintf("invalid amount in --funding %q", v))
		}
		out = append(out, mee.FundingToken{
			TokenAddress: parts[0],
			ChainID:      chainID,
			Amount:       parts[2],
		})
	}
	return out, nil
}

// parseFeeToken parses --fee-token of the form address:chainId. An empty
// value means the network picks the fee token.
func parseFeeToken(value string) (*mee.FeeToken, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	parts := strings.Split(value, ":")
	if len(parts) != 2 {
		return nil, clierr.New(clierr.CodeUsage, fmt.Sprintf("invalid --fee-token %q, want address:chainId", value))
	}
	chainID, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return nil, clierr.New(clierr.CodeUsage, fmt.Sprintf("invalid chain id in --fee-token %q", value))
	}
	return &mee.FeeToken{Address: parts[0], ChainID: chainID}, nil
}

// parseInputPositions parses repeated --input values of the form
// address:chainId:amount.
func parseInputPositions(values []string) ([]mee.InputPosition, error) {
	out := make([]mee.InputPosition, 0, len(values))
	for _, v := range values {
		parts := strings.Split(v, ":")
		if len(parts) != 3 {
			return nil, clierr.New(clierr.CodeUsage, fmt.Sprintf("invalid --input %q, want address:chainId:amount", v))
		}
		chainID, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			return nil, clierr.New(clierr.CodeUsage, fmt.Sprintf("invalid chain id in --input %q", v))
		}
		out = append(out, mee.InputPosition{
			ChainToken: mee.ChainToken{ChainID: chainID, TokenAddress: parts[0]},
			Amount:     parts[2],
		})
	}
	return out, nil
}

// parseTargetPositions parses repeated --target values of the form
// address:chainId:weight (weight as a decimal fraction).
func parseTargetPositions(values []string) ([]mee.TargetPosition, error) {
	out := make([]mee.TargetPosition, 0, len(values))
	for _, v := range values {
		parts := strings.Split(v, ":")
		if len(parts) != 3 {
			return nil, clierr.New(clierr.CodeUsage, fmt.Sprintf("invalid --target %q, want address:chainId:weight", v))
		}
		chainID, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			return nil, clierr.New(clierr.CodeUsage, fmt.Sprintf("invalid chain id in --target %q", v))
		}
		weight, err := strconv.ParseFloat(parts[2], 64)
		if err != nil {
			return nil, clierr.New(clierr.CodeUsage, fmt.Sprintf("invalid weight in --target %q", v))
		}
		out = append(out, mee.TargetPosition{
			ChainToken: mee.ChainToken{ChainID: chainID, TokenAddress: parts[0]},
			Weight:     weight,
		})
	}
	return out, nil
}

// isBaseUnits reports whether v is a plain base-10 integer amount.
func isBaseUnits(v string) bool {
	if v == "" {
		return false
	}
	for _, r := range v {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
