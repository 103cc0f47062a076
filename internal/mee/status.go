package mee

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	clierr "github.com/supertx-labs/supertx-cli/internal/errors"
	"github.com/supertx-labs/supertx-cli/internal/httpx"
)

// GetStatus fetches the per-chain settlement status of a submitted
// supertransaction from the explorer host. Results are never cached; status
// is expected to change between polls.
func (c *Client) GetStatus(ctx context.Context, supertxHash string) (*SupertxStatus, error) {
	hash := strings.TrimSpace(supertxHash)
	if hash == "" {
		return nil, clierr.New(clierr.CodeUsage, "supertx hash is required")
	}

	var status SupertxStatus
	endpoint := c.explorerURL + "/v1/explorer/" + url.PathEscape(hash)
	if _, err := httpx.DoBodyJSON(ctx, c.readHTTP, http.MethodGet, endpoint, nil, c.headers(), &status); err != nil {
		return nil, err
	}
	if status.SupertxHash == "" {
		status.SupertxHash = hash
	}
	return &status, nil
}
