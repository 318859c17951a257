package client

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/charonlabs/charon/pkg/api/http/common"
	"github.com/charonlabs/charon/pkg/structs"
)

// Client talks to a charon HTTP server.
type Client struct {
	url    *url.URL
	client *http.Client
}

func New(address string) (*Client, error) {
	u, err := url.Parse(address)
	return &Client{url: u, client: &http.Client{}}, err
}

func (c *Client) CreateJob(ctx context.Context, cjr *structs.CreateJobRequest) (*structs.CreateJobResponse, error) {
	addr := c.addr(common.API_JOBS)
	var out structs.CreateJobResponse
	return &out, c.post(ctx, addr, cjr, &out)
}

// FetchJob gets a job, attaching the given proof (if any) as payment.
// A payment challenge from the server is returned as a FetchResponse with
// PaymentRequired set, not as an error: pay, then call again with proof.
func (c *Client) FetchJob(ctx context.Context, id, proof string) (*structs.FetchResponse, error) {
	addr := c.addr(jobPath(common.API_JOB, id))
	var out structs.FetchResponse
	headers := map[string]string{}
	if proof != "" {
		headers[common.HEADER_PAYMENT] = proof
	}
	return &out, c.get(ctx, addr, headers, &out)
}

func (c *Client) ConfirmJob(ctx context.Context, id string) (*structs.Job, error) {
	addr := c.addr(jobPath(common.API_CONFIRM, id))
	var out structs.Job
	return &out, c.post(ctx, addr, nil, &out)
}

func (c *Client) Jobs(ctx context.Context, q *structs.Query) (*structs.ListJobsResponse, error) {
	addr := c.addr(common.API_JOBS)
	setQueryString(addr, q)
	var out structs.ListJobsResponse
	return &out, c.get(ctx, addr, nil, &out)
}

func (c *Client) addr(path string) *url.URL {
	return &url.URL{Scheme: c.url.Scheme, Host: c.url.Host, Path: path}
}

func jobPath(route, id string) string {
	return strings.Replace(route, "{job_id}", id, 1)
}
