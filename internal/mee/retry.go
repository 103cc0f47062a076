package mee

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"go.uber.org/zap"

	clierr "github.com/supertx-labs/supertx-cli/internal/errors"
)

const (
	// maxFundingRetries bounds auto-correction: 1 initial attempt plus 3
	// retries, then the failure is terminal.
	maxFundingRetries = 3

	// fundingBumpBPS is added per retry: attempt k quotes with funding
	// amounts of ceil(original * (10000 + 250*k) / 10000).
	fundingBumpBPS = 250

	basisPoints = 10_000
)

// ProgressFunc receives human-readable progress text as an operation moves
// through its stages.
type ProgressFunc func(message string)

// Substrings the network uses to report a funding shortfall. The backend's
// error vocabulary is not contractually documented, so the match lives in one
// place and nowhere near the retry control flow.
var fundingShortfallMarkers = []string{
	"insufficient funding amount",
	"not enough eoa balance to pay orchestration fee",
}

// IsFundingShortfall classifies a quote rejection as a funding shortfall by
// case-insensitive substring match on the rejection text.
func IsFundingShortfall(err error) bool {
	if err == nil {
		return false
	}
	text := strings.ToLower(err.Error())
	if status := statusOf(err); status != nil {
		text += " " + strings.ToLower(status.Body)
	}
	for _, marker := range fundingShortfallMarkers {
		if strings.Contains(text, marker) {
			return true
		}
	}
	return false
}

// GetQuoteWithFundingRetries wraps GetQuote: when the network rejects the
// quote for a funding shortfall, the funding token amounts are enlarged by
// 2.5% per attempt (ceiling basis-point arithmetic against the original
// amounts, so truncation can never under-fund) and the quote is resubmitted,
// up to maxFundingRetries times. Every other rejection propagates after one
// attempt. progress may be nil.
func (c *Client) GetQuoteWithFundingRetries(ctx context.Context, req QuoteRequest, progress ProgressFunc) (*QuoteResponse, error) {
	emit := func(msg string) {
		if progress != nil {
			progress(msg)
		}
	}

	var lastErr error
	for attempt := 0; attempt <= maxFundingRetries; attempt++ {
		attemptReq := req
		if attempt > 0 {
			scaled, err := scaleFundingAmounts(req, attempt)
			if err != nil {
				return nil, err
			}
			attemptReq = scaled
			emit(fmt.Sprintf("Funding shortfall reported, retrying with a %.1f%% larger buffer (attempt %d/%d)...",
				float64(fundingBumpBPS*attempt)/100, attempt+1, maxFundingRetries+1))
		}

		quote, err := c.GetQuote(ctx, attemptReq)
		if err == nil {
			if attempt > 0 {
				c.log.Info("quote accepted after funding retries",
					zap.String("owner", req.OwnerAddress),
					zap.Int("attempts", attempt+1))
			}
			return quote, nil
		}
		lastErr = err

		if !IsFundingShortfall(err) {
			return nil, err
		}
		if len(req.FundingTokens) == 0 {
			c.log.Warn("funding shortfall with no funding tokens to enlarge",
				zap.String("owner", req.OwnerAddress))
			return nil, err
		}
	}

	return nil, clierr.Wrap(clierr.CodeFunding,
		fmt.Sprintf("quote still underfunded after %d attempts", maxFundingRetries+1), lastErr)
}

// scaleFundingAmounts clones the request and enlarges every funding token to
// ceil(original * (10000 + 250*attempt) / 10000).
func scaleFundingAmounts(req QuoteRequest, attempt int) (QuoteRequest, error) {
	out := req.Clone()
	multiplier := big.NewInt(int64(basisPoints + fundingBumpBPS*attempt))
	for i, token := range out.FundingTokens {
		amount, ok := new(big.Int).SetString(strings.TrimSpace(token.Amount), 10)
		if !ok || amount.Sign() < 0 {
			return QuoteRequest{}, clierr.New(clierr.CodeUsage,
				fmt.Sprintf("funding token %s has non-integer amount %q", token.TokenAddress, token.Amount))
		}
		scaled := new(big.Int).Mul(amount, multiplier)
		scaled.Add(scaled, big.NewInt(basisPoints-1))
		scaled.Div(scaled, big.NewInt(basisPoints))
		out.FundingTokens[i].Amount = scaled.String()
	}
	return out, nil
}
