package mee

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	clierr "github.com/supertx-labs/supertx-cli/internal/errors"
	"github.com/supertx-labs/supertx-cli/internal/httpx"
)

// Execute submits the quote with its signed payload set. A non-2xx response
// is a hard failure; a 2xx response with success:false is a business failure
// the caller must branch on, so it is returned, never turned into an error.
func (c *Client) Execute(ctx context.Context, quote *QuoteResponse, signed []PayloadToSign) (*ExecuteResponse, error) {
	if quote == nil {
		return nil, clierr.New(clierr.CodeInternal, "missing quote")
	}
	submission := *quote
	submission.PayloadToSign = signed
	body, err := json.Marshal(submission)
	if err != nil {
		return nil, clierr.Wrap(clierr.CodeInternal, "encode execute request", err)
	}

	var resp ExecuteResponse
	if _, err := httpx.DoBodyJSON(ctx, c.writeHTTP, http.MethodPost, c.baseURL+"/v1/execute", body, c.headers(), &resp); err != nil {
		c.log.Error("execute request failed",
			zap.String("quoteType", quote.QuoteType),
			zap.Int("payloads", len(signed)),
			zap.Error(err))
		if status := statusOf(err); status != nil {
			return nil, clierr.Wrap(clierr.CodeUnavailable,
				fmt.Sprintf("execute rejected (status %d): %s", status.StatusCode, status.Body), err)
		}
		return nil, err
	}
	if !resp.Success {
		c.log.Warn("supertransaction not accepted",
			zap.String("quoteType", quote.QuoteType),
			zap.String("error", resp.Error))
	}
	return &resp, nil
}
