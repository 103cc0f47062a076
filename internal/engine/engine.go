// Package engine sequences a supertransaction end to end: negotiate a quote
// (with funding retries), sign its payloads, submit it, and report progress.
// Each call is independent; the engine holds no per-call state and is safe to
// invoke concurrently for different intents.
package engine

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	clierr "github.com/supertx-labs/supertx-cli/internal/errors"
	"github.com/supertx-labs/supertx-cli/internal/mee"
	"github.com/supertx-labs/supertx-cli/internal/signing"
)

type Engine struct {
	client *mee.Client
	log    *zap.Logger
}

func New(client *mee.Client, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{client: client, log: log}
}

// ExecuteIntent runs quote → sign → execute in strict order. Any failure
// before execute aborts the remaining stages; nothing has been broadcast yet
// (except mined approval payloads for onchain quotes), so there is no
// partial-completion state to clean up. A business failure from the execute
// endpoint is returned in the response, not as an error.
func (e *Engine) ExecuteIntent(ctx context.Context, req mee.QuoteRequest, signer signing.Signer, progress mee.ProgressFunc) (*mee.ExecuteResponse, error) {
	emit := func(msg string) {
		if progress != nil {
			progress(msg)
		}
	}

	emit("Getting quote...")
	quote, err := e.client.GetQuoteWithFundingRetries(ctx, req, progress)
	if err != nil {
		emit(fmt.Sprintf("Failed: %v", err))
		return nil, err
	}

	emit(fmt.Sprintf("Signing %d payload(s)...", len(quote.PayloadToSign)))
	signed, err := signing.SignPayloads(ctx, quote, signer, e.log)
	if err != nil {
		e.log.Error("payload signing failed",
			zap.String("owner", req.OwnerAddress),
			zap.String("quoteType", quote.QuoteType),
			zap.Error(err))
		emit(fmt.Sprintf("Failed: %v", err))
		return nil, err
	}

	emit("Executing...")
	result, err := e.client.Execute(ctx, quote, signed)
	if err != nil {
		emit(fmt.Sprintf("Failed: %v", err))
		return nil, err
	}
	if result.Success {
		emit(fmt.Sprintf("Success! Supertransaction %s submitted.", result.SupertxHash))
	} else {
		emit(fmt.Sprintf("Failed: %s", result.Error))
	}
	return result, nil
}

// Status polls the settlement state of a submitted supertransaction.
func (e *Engine) Status(ctx context.Context, supertxHash string) (*mee.SupertxStatus, error) {
	if e.client == nil {
		return nil, clierr.New(clierr.CodeInternal, "engine has no network client")
	}
	return e.client.GetStatus(ctx, supertxHash)
}
