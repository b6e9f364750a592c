package nvd

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/anchore/cwe-lookup/internal/log"
	"github.com/anchore/cwe-lookup/pkg/upstream"
	"github.com/anchore/cwe-lookup/pkg/vulnid"
	"github.com/anchore/cwe-lookup/pkg/weakness"
)

const (
	DefaultHost = "https://services.nvd.nist.gov/rest/json"

	// MaxPageSize is the largest (and most efficient) page the CVE API will serve.
	MaxPageSize = 2000

	serviceName = "NVD"
	cvesPath    = "/cves/2.0"
	apiKeyField = "apiKey"
)

type Config struct {
	Host   string
	APIKey string
	Client *http.Client
}

type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
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
		endpoint: strings.TrimSuffix(host, "/") + cvesPath,
		apiKey:   cfg.APIKey,
		http:     httpClient,
	}
}

func (c *Client) Authenticated() bool {
	return c.apiKey != ""
}

// LookupCVE resolves a single CVE against the live API. The result always holds exactly one weakness.
func (c *Client) LookupCVE(ctx context.Context, id vulnid.ID) ([]weakness.ID, error) {
	resp, err := c.get(ctx, url.Values{"cveId": []string{id.Value}})
	if err != nil {
		return nil, err
	}

	if len(resp.Vulnerabilities) > 0 {
		return []weakness.ID{resp.Vulnerabilities[0].CVE.Weakness()}, nil
	}

	log.WithFields("id", id.Value).Trace("no weakness data reported")
	return []weakness.ID{weakness.Unknown}, nil
}

// Page fetches one page of the CVE corpus, limited to records last modified within the window unless the
// window is zero.
func (c *Client) Page(ctx context.Context, window Window, startIndex, size int) (*Response, error) {
	if err := window.Validate(); err != nil {
		return nil, err
	}
	if size <= 0 || size > MaxPageSize {
		size = MaxPageSize
	}
	query := url.Values{
		"resultsPerPage": []string{strconv.Itoa(size)},
		"startIndex":     []string{strconv.Itoa(startIndex)},
	}
	window.encode(query)
	return c.get(ctx, query)
}

func (c *Client) get(ctx context.Context, query url.Values) (*Response, error) {
	req, err := http.NewRequest(http.MethodGet, c.endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("unable to create NVD request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set(apiKeyField, c.apiKey)
	}

	var resp Response
	if err := upstream.Do(ctx, c.http, serviceName, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
