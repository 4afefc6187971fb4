package ndc

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/valyala/fasthttp"

	"github.com/lumadb/graphql-engine/internal/metadata"
)

// Endpoint is everything the client needs to reach one data connector for
// one operation kind.
type Endpoint struct {
	Name    metadata.QualifiedName
	URL     string
	Headers map[string]metadata.HeaderValue
}

// ConnectorError is the NDCExpected error class of §7: the connector
// returned 403 or 409 (Message and Details decoded from the body), or any
// other non-200 status (with a generic Message). A 200 response is always
// decoded as a success body and never yields a ConnectorError.
type ConnectorError struct {
	StatusCode int
	Message    string
	Details    json.RawMessage
}

func (e *ConnectorError) Error() string {
	return fmt.Sprintf("connector error (status %d): %s", e.StatusCode, e.Message)
}

// Client performs the two downstream RPCs of §6.
type Client interface {
	Query(ctx context.Context, ep Endpoint, req QueryRequest) (QueryResponse, error)
	Mutation(ctx context.Context, ep Endpoint, req MutationRequest) (MutationResponse, error)
}

// HTTPClient is the reference Client, POSTing to /query and /mutation with
// fasthttp the same way pkg/platform/server.go serves requests on this
// engine's own inbound side.
type HTTPClient struct {
	client *fasthttp.Client
}

func NewHTTPClient() *HTTPClient {
	return &HTTPClient{client: &fasthttp.Client{}}
}

func (c *HTTPClient) Query(ctx context.Context, ep Endpoint, req QueryRequest) (QueryResponse, error) {
	var resp QueryResponse
	if err := c.post(ctx, ep, "/query", req, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *HTTPClient) Mutation(ctx context.Context, ep Endpoint, req MutationRequest) (MutationResponse, error) {
	var resp MutationResponse
	if err := c.post(ctx, ep, "/mutation", req, &resp); err != nil {
		return MutationResponse{}, err
	}
	return resp, nil
}

func (c *HTTPClient) post(ctx context.Context, ep Endpoint, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(ep.URL + path)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	for name, hv := range ep.Headers {
		req.Header.Set(name, hv.Value)
	}
	req.SetBody(payload)

	deadline, hasDeadline := ctx.Deadline()
	var doErr error
	if hasDeadline {
		doErr = c.client.DoDeadline(req, resp, deadline)
	} else {
		doErr = c.client.Do(req, resp)
	}
	if doErr != nil {
		return fmt.Errorf("connector request to %s: %w", ep.Name, doErr)
	}

	status := resp.StatusCode()
	switch status {
	case fasthttp.StatusOK:
		// falls through to decode below; an error body sent with a 200 is
		// not recognized and surfaces only as a decode failure, if at all.
	case fasthttp.StatusForbidden, fasthttp.StatusConflict:
		var errBody struct {
			Message string          `json:"message"`
			Details json.RawMessage `json:"details"`
		}
		_ = json.Unmarshal(resp.Body(), &errBody)
		return &ConnectorError{StatusCode: status, Message: errBody.Message, Details: errBody.Details}
	default:
		return &ConnectorError{StatusCode: status, Message: "unexpected connector status"}
	}

	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("decode connector response from %s: %w", ep.Name, err)
	}
	return nil
}
