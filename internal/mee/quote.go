package mee

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	clierr "github.com/supertx-labs/supertx-cli/internal/errors"
	"github.com/supertx-labs/supertx-cli/internal/httpx"
)

// GetQuote negotiates a priced quote for the request. Non-2xx responses are
// returned as a quote rejection carrying the status and body text; transport
// and parse failures keep their own codes. This layer never retries;
// only the funding-retry controller knows which rejections are safe to
// auto-correct.
func (c *Client) GetQuote(ctx context.Context, req QuoteRequest) (*QuoteResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, clierr.Wrap(clierr.CodeInternal, "encode quote request", err)
	}

	var quote QuoteResponse
	if _, err := httpx.DoBodyJSON(ctx, c.writeHTTP, http.MethodPost, c.baseURL+"/v1/quote", body, c.headers(), &quote); err != nil {
		c.log.Error("quote request failed",
			zap.String("owner", req.OwnerAddress),
			zap.Int("flows", len(req.ComposeFlows)),
			zap.String("funding", summarizeFunding(req.FundingTokens)),
			zap.Error(err))
		if status := statusOf(err); status != nil {
			return nil, clierr.Wrap(clierr.CodeQuoteRejected,
				fmt.Sprintf("quote rejected (status %d): %s", status.StatusCode, status.Body), err)
		}
		return nil, err
	}
	if strings.TrimSpace(quote.QuoteType) == "" {
		return nil, clierr.New(clierr.CodeProtocol, "quote response missing quoteType")
	}
	return &quote, nil
}

// statusOf extracts the non-2xx response details from an error chain, if any.
func statusOf(err error) *httpx.StatusError {
	var status *httpx.StatusError
	if errors.As(err, &status) {
		return status
	}
	return nil
}

func summarizeFunding(tokens []FundingToken) string {
	if len(tokens) == 0 {
		return "none"
	}
	parts := make([]string, 0, len(tokens))
	for _, t := range tokens {
		parts = append(parts, fmt.Sprintf("%s@%d=%s", t.TokenAddress, t.ChainID, t.Amount))
	}
	return strings.Join(parts, ",")
}
