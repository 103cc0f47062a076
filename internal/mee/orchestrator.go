package mee

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	clierr "github.com/supertx-labs/supertx-cli/internal/errors"
	"github.com/supertx-labs/supertx-cli/internal/httpx"
)

type orchestratorRequest struct {
	OwnerAddress string `json:"ownerAddress"`
}

type orchestratorResponse struct {
	Deployments []AccountDeployment `json:"deployments"`
}

// GetAccountDeployments asks the orchestrator for the owner's per-chain
// execution-account deployments.
func (c *Client) GetAccountDeployments(ctx context.Context, ownerAddress string) ([]AccountDeployment, error) {
	owner := strings.TrimSpace(ownerAddress)
	if owner == "" {
		return nil, clierr.New(clierr.CodeUsage, "owner address is required")
	}
	body, err := json.Marshal(orchestratorRequest{OwnerAddress: owner})
	if err != nil {
		return nil, clierr.Wrap(clierr.CodeInternal, "encode orchestrator request", err)
	}

	var resp orchestratorResponse
	if _, err := httpx.DoBodyJSON(ctx, c.readHTTP, http.MethodPost, c.baseURL+"/v1/mee/orchestrator", body, c.headers(), &resp); err != nil {
		return nil, err
	}
	return resp.Deployments, nil
}

// SelectAccount picks the deployment to use: the newest version wins, then
// any already-deployed account, then the first returned.
func SelectAccount(deployments []AccountDeployment) (AccountDeployment, error) {
	if len(deployments) == 0 {
		return AccountDeployment{}, clierr.New(clierr.CodeUnavailable, "orchestrator returned no account deployments")
	}
	best := deployments[0]
	bestVersioned := strings.TrimSpace(best.Version) != ""
	for _, d := range deployments[1:] {
		if strings.TrimSpace(d.Version) != "" {
			if !bestVersioned || compareVersions(d.Version, best.Version) > 0 {
				best = d
				bestVersioned = true
			}
			continue
		}
		if !bestVersioned && d.Deployed && !best.Deployed {
			best = d
		}
	}
	return best, nil
}

// compareVersions compares dotted numeric version strings ("2.1.0" > "2.0.5").
// Non-numeric segments compare lexically.
func compareVersions(a, b string) int {
	as := strings.Split(strings.TrimPrefix(strings.TrimSpace(a), "v"), ".")
	bs := strings.Split(strings.TrimPrefix(strings.TrimSpace(b), "v"), ".")
	n := len(as)
	if len(bs) > n {
		n = len(bs)
	}
	for i := 0; i < n; i++ {
		var av, bv string
		if i < len(as) {
			av = as[i]
		}
		if i < len(bs) {
			bv = bs[i]
		}
		an, aerr := strconv.Atoi(av)
		bn, berr := strconv.Atoi(bv)
		switch {
		case aerr == nil && berr == nil:
			if an != bn {
				if an < bn {
					return -1
				}
				return 1
			}
		default:
			if av != bv {
				if av < bv {
					return -1
				}
				return 1
			}
		}
	}
	return 0
}
