// Package filesapi talks to the retrieval service that stores, embeds and
// searches bucket documents.
package filesapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"resty.dev/v3"

	"jan-server/services/assistant-api/internal/domain/message"
	"jan-server/services/assistant-api/internal/domain/retrieval"
	"jan-server/services/assistant-api/internal/infrastructure/metrics"
)

const tracerName = "assistant-api/filesapi"

// ClientFactory creates clients that share one resty client and one file type cache.
type ClientFactory struct {
	client *resty.Client
	cache  *FileTypeCache
}

var _ retrieval.ClientFactory = (*ClientFactory)(nil)

// NewClientFactory creates a factory. A nil cache disables file type caching.
func NewClientFactory(client *resty.Client, cache *FileTypeCache) *ClientFactory {
	return &ClientFactory{client: client, cache: cache}
}

func (f *ClientFactory) ForEndpoint(endpoint string, headers map[string]string) retrieval.FilesAPI {
	return &Client{
		client:   f.client,
		cache:    f.cache,
		endpoint: strings.TrimRight(endpoint, "/"),
		headers:  headers,
		tracer:   otel.Tracer(tracerName),
	}
}

// Forget drops the cached file types of an endpoint and header set.
func (f *ClientFactory) Forget(endpoint string, headers map[string]string) {
	if f.cache != nil {
		f.cache.Purge(strings.TrimRight(endpoint, "/"), headers)
	}
}

// Client is bound to one files API endpoint.
type Client struct {
	client   *resty.Client
	cache    *FileTypeCache
	endpoint string
	headers  map[string]string
	tracer   trace.Tracer
}

var _ retrieval.FilesAPI = (*Client)(nil)

type itemsResponse[T any] struct {
	Items []T `json:"items"`
}

type chunksRequest struct {
	DocumentURI string   `json:"documentUri"`
	ChunkURIs   []string `json:"chunkUris"`
}

type searchRequest struct {
	Query     string `json:"query"`
	Bucket    string `json:"bucket"`
	IndexName string `json:"indexName,omitempty"`
	Take      int    `json:"take"`
}

func (c *Client) GetFileTypes(ctx context.Context) ([]retrieval.FileType, error) {
	if c.cache != nil {
		if types, ok := c.cache.Get(c.endpoint, c.headers); ok {
			return types, nil
		}
	}

	var out itemsResponse[retrieval.FileType]
	err := c.do(ctx, "get_file_types", func(r *resty.Request) (*resty.Response, error) {
		return r.Get(c.url("/files/types"))
	}, &out)
	if err != nil {
		return nil, err
	}
	if out.Items == nil {
		out.Items = []retrieval.FileType{}
	}
	if c.cache != nil {
		c.cache.Add(c.endpoint, c.headers, out.Items)
	}
	return out.Items, nil
}

func (c *Client) UploadFile(ctx context.Context, req retrieval.UploadFileRequest) error {
	return c.do(ctx, "upload_file", func(r *resty.Request) (*resty.Response, error) {
		r.SetQueryParams(map[string]string{
			"fileName":     req.FileName,
			"fileMimeType": req.MimeType,
			"bucket":       req.Bucket,
			"id":           req.ID,
		})
		if req.IndexName != "" {
			r.SetQueryParam("indexName", req.IndexName)
		}
		r.SetMultipartField("file", req.FileName, req.MimeType, bytes.NewReader(req.Content))
		return r.Post(c.url("/files"))
	}, nil)
}

func (c *Client) ProcessFile(ctx context.Context, req retrieval.ProcessFileRequest) (json.RawMessage, error) {
	var out json.RawMessage
	err := c.do(ctx, "process_file", func(r *resty.Request) (*resty.Response, error) {
		r.SetQueryParams(map[string]string{
			"fileName":     req.FileName,
			"fileMimeType": req.MimeType,
			"chunkSize":    strconv.Itoa(req.ChunkSize),
		})
		r.SetMultipartField("file", req.FileName, req.MimeType, bytes.NewReader(req.Content))
		return r.Post(c.url("/files/process"))
	}, &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) DeleteFile(ctx context.Context, id string) error {
	return c.do(ctx, "delete_file", func(r *resty.Request) (*resty.Response, error) {
		r.SetPathParam("id", id)
		return r.Delete(c.url("/files/{id}"))
	}, nil)
}

func (c *Client) GetChunks(ctx context.Context, documentURI string, chunkURIs []string) ([]string, error) {
	var out itemsResponse[string]
	err := c.do(ctx, "get_chunks", func(r *resty.Request) (*resty.Response, error) {
		r.SetBody(chunksRequest{DocumentURI: documentURI, ChunkURIs: chunkURIs})
		return r.Post(c.url("/chunks"))
	}, &out)
	if err != nil {
		return nil, err
	}
	return out.Items, nil
}

func (c *Client) GetDocument(ctx context.Context, uri string) (*retrieval.Document, error) {
	var out retrieval.Document
	err := c.do(ctx, "get_document", func(r *resty.Request) (*resty.Response, error) {
		r.SetQueryParam("uri", uri)
		return r.Get(c.url("/documents"))
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Search(ctx context.Context, req retrieval.SearchRequest) ([]message.Source, error) {
	var out itemsResponse[message.Source]
	err := c.do(ctx, "search", func(r *resty.Request) (*resty.Response, error) {
		r.SetBody(searchRequest{Query: req.Query, Bucket: req.Bucket, IndexName: req.IndexName, Take: req.Take})
		return r.Post(c.url("/files/search"))
	}, &out)
	if err != nil {
		return nil, err
	}
	if out.Items == nil {
		out.Items = []message.Source{}
	}
	return out.Items, nil
}

// do sends one request inside a span, records its duration and decodes a
// successful body into out when out is not nil.
func (c *Client) do(ctx context.Context, operation string, send func(*resty.Request) (*resty.Response, error), out any) error {
	ctx, span := c.tracer.Start(ctx, "filesapi."+operation, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.String("filesapi.operation", operation),
		attribute.String("filesapi.endpoint", c.endpoint),
	)

	start := time.Now()
	status := "error"
	defer func() {
		metrics.RecordFilesAPIRequest(operation, status, time.Since(start).Seconds())
	}()

	req := c.client.R().SetContext(ctx).SetHeaders(c.headers)
	resp, err := send(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("files api %s: %w", operation, err)
	}

	status = strconv.Itoa(resp.StatusCode())
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode()))
	body := resp.Bytes()
	if !resp.IsSuccess() {
		respErr := &retrieval.ResponseError{StatusCode: resp.StatusCode(), Body: strings.TrimSpace(string(body))}
		span.SetStatus(codes.Error, http.StatusText(resp.StatusCode()))
		return respErr
	}

	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		span.RecordError(err)
		return fmt.Errorf("decode files api %s response: %w", operation, err)
	}
	return nil
}

func (c *Client) url(path string) string {
	return c.endpoint + path
}
