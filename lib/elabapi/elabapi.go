package elabapi

import (
	"context"
	"crypto/tls"
	"elabftw-tools/lib/restyutil"
	"elabftw-tools/lib/telemetry"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("lib/elabapi")

var ErrNoLocation = fmt.Errorf("response has no Location header")

type Client struct {
	BaseUrl *url.URL
	http    *resty.Client
}

type ClientOptions struct {
	// instance api root, ex. https://elab.example.org/api/v2
	BaseUrl string
	ApiKey  string
	// disables tls certificate verification for self-signed instances
	InsecureSkipVerify bool
	// zero means 30 seconds
	Timeout time.Duration
	// if set, every request/response pair is written to it at debug level
	Dump restyutil.InstrumentOutput
}

func NewClient(opts ClientOptions) (*Client, error) {
	if opts.BaseUrl == "" {
		return nil, fmt.Errorf("base url is required")
	}
	if opts.ApiKey == "" {
		return nil, fmt.Errorf("api key is required")
	}
	baseUrl, err := url.Parse(strings.TrimSuffix(opts.BaseUrl, "/"))
	if err != nil {
		return nil, err
	}
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = time.Second * 30
	}

	client := resty.New()
	client.SetBaseURL(baseUrl.String())
	client.SetTimeout(timeout)
	client.SetHeader("Authorization", opts.ApiKey)
	client.SetHeader("Accept", "application/json")
	client.SetHeader("user-agent", "elabftw-tools")
	if opts.InsecureSkipVerify {
		client.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}

	telemetry.InstrumentResty(client, "lib/elabapi/http")
	restyutil.InstrumentClient(client, opts.Dump)

	return &Client{BaseUrl: baseUrl, http: client}, nil
}

// APIError is a non-2xx response.
type APIError struct {
	Status      int
	Method      string
	Path        string
	Message     string
	Description string
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("%s %s: %d", e.Method, e.Path, e.Status)
	if e.Message != "" {
		msg += " " + e.Message
	}
	if e.Description != "" {
		msg += ": " + e.Description
	}
	return msg
}

type errorBody struct {
	Code        int    `json:"code"`
	Message     string `json:"message"`
	Description string `json:"description"`
}

func checkResponse(res *resty.Response, path string) error {
	if !res.IsError() {
		return nil
	}
	apiErr := &APIError{
		Status: res.StatusCode(),
		Method: res.Request.Method,
		Path:   path,
	}
	if body, ok := res.Error().(*errorBody); ok && body != nil {
		apiErr.Message = body.Message
		apiErr.Description = body.Description
	}
	if apiErr.Message == "" && apiErr.Description == "" {
		apiErr.Message = strings.TrimSpace(res.String())
	}
	return apiErr
}

func failSpan(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

// IdFromLocation takes the id out of a Location header such as
// https://elab.example.org/api/v2/items/42.
func IdFromLocation(location string) (int64, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return 0, ErrNoLocation
	}
	segment := location[strings.LastIndex(location, "/")+1:]
	id, err := strconv.ParseInt(segment, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse id from location %q: %w", location, err)
	}
	return id, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	req := c.http.R().
		SetContext(ctx).
		SetResult(out).
		SetError(&errorBody{})
	if params != nil {
		req.SetQueryParamsFromValues(params)
	}
	res, err := req.Get(path)
	if err != nil {
		return err
	}
	return checkResponse(res, path)
}

func (c *Client) post(ctx context.Context, path string, body any) (int64, error) {
	res, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		SetError(&errorBody{}).
		Post(path)
	if err != nil {
		return 0, err
	}
	err = checkResponse(res, path)
	if err != nil {
		return 0, err
	}
	return IdFromLocation(res.Header().Get("Location"))
}

func (c *Client) patch(ctx context.Context, path string, body any) error {
	res, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		SetError(&errorBody{}).
		Patch(path)
	if err != nil {
		return err
	}
	return checkResponse(res, path)
}

func idAttr(id int64) attribute.KeyValue {
	return attribute.Int64("elab.id", id)
}
