package ghsa

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/anchore/cwe-lookup/internal/log"
	"github.com/anchore/cwe-lookup/pkg/upstream"
	"github.com/anchore/cwe-lookup/pkg/vulnid"
	"github.com/anchore/cwe-lookup/pkg/weakness"
)

const (
	DefaultHost = "https://api.github.com"

	serviceName = "GitHub"
	graphqlPath = "/graphql"
)

type Config struct {
	Host   string
	Token  string
	Client *http.Client
}

type Client struct {
	endpoint string
	token    string
	http     *http.Client
	warned   bool
}

func NewClient(cfg Config) *Client {
	host := cfg.Host
	if host == "" {
		host = DefaultHost
	}
	httpClient := cfg.Client
	if httpClient == nil {
		httpClient = upstream.NewHTTPClient()
	}
	return &Client{
		endpoint: strings.TrimSuffix(host, "/") + graphqlPath,
		token:    cfg.Token,
		http:     httpClient,
	}
}

type request struct {
	Query string `json:"query"`
}

type response struct {
	Data struct {
		SecurityAdvisory *struct {
			GhsaID  string `json:"ghsaId"`
			Summary string `json:"summary"`
			Cwes    struct {
				Nodes []struct {
					CweID string `json:"cweId"`
				} `json:"nodes"`
			} `json:"cwes"`
		} `json:"securityAdvisory"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors,omitempty"`
}

// Query renders the GraphQL document used to look up the weaknesses of an advisory.
func Query(id vulnid.ID) string {
	return fmt.Sprintf(`query {
  securityAdvisory(ghsaId: %s) {
    ghsaId
    summary
    cwes(first: 1) { nodes { cweId } }
  }
}`, strconv.Quote(id.Value))
}

// LookupAdvisory resolves a GHSA to every weakness the advisory service returns. Results are never cached.
func (c *Client) LookupAdvisory(ctx context.Context, id vulnid.ID) ([]weakness.ID, error) {
	if c.token == "" && !c.warned {
		// the request is still attempted; it is expected to be rejected
		log.Warn("GHSA IDs are present but no GitHub token was given; advisory lookups will likely fail")
		c.warned = true
	}

	body, err := json.Marshal(request{Query: Query(id)})
	if err != nil {
		return nil, fmt.Errorf("unable to encode advisory query: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("unable to create advisory request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "token "+c.token)

	var resp response
	if err := upstream.Do(ctx, c.http, serviceName, req, &resp); err != nil {
		return nil, err
	}

	for _, e := range resp.Errors {
		log.WithFields("id", id.Value, "error", e.Message).Warn("advisory query reported an error")
	}

	advisory := resp.Data.SecurityAdvisory
	if advisory == nil || len(advisory.Cwes.Nodes) == 0 {
		return []weakness.ID{weakness.Unknown}, nil
	}

	log.WithFields("id", advisory.GhsaID, "summary", advisory.Summary).Trace("resolved advisory")

	ids := make([]weakness.ID, 0, len(advisory.Cwes.Nodes))
	for _, n := range advisory.Cwes.Nodes {
		ids = append(ids, weakness.FromValue(n.CweID))
	}
	return ids, nil
}
