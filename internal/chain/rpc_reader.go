package chain

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// RPCReader resolves metadata through the platform node's read-only JSON-RPC
// namespace. Every call has a bounded timeout; any transport, HTTP or RPC
// error collapses into ErrCallFailed.
type RPCReader struct {
	client *resty.Client
	logger *zap.Logger
	nextID atomic.Uint64

	catalogAddr     string
	certificateAddr string
}

// NewRPCReader builds a reader against the given RPC endpoint.
func NewRPCReader(url string, timeout time.Duration, catalogAddr, certificateAddr string, logger *zap.Logger) *RPCReader {
	if logger == nil {
		logger = zap.NewNop()
	}
	client := resty.New().
		SetBaseURL(url).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json")

	return &RPCReader{
		client:          client,
		logger:          logger,
		catalogAddr:     catalogAddr,
		certificateAddr: certificateAddr,
	}
}

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

// CourseMetadata implements Reader.
func (r *RPCReader) CourseMetadata(ctx context.Context, courseID string) (*CourseMetadata, error) {
	var out CourseMetadata
	if err := r.call(ctx, "ll_getCourseMetadata", []interface{}{r.catalogAddr, courseID}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CertificateMetadata implements Reader.
func (r *RPCReader) CertificateMetadata(ctx context.Context, certificateID string) (*CertificateMetadata, error) {
	var out CertificateMetadata
	if err := r.call(ctx, "ll_getCertificateMetadata", []interface{}{r.certificateAddr, certificateID}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *RPCReader) call(ctx context.Context, method string, params []interface{}, result interface{}) error {
	req := rpcRequest{
		JSONRPC: "2.0",
		ID:      r.nextID.Add(1),
		Method:  method,
		Params:  params,
	}

	var resp rpcResponse
	httpResp, err := r.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&resp).
		Post("")
	if err != nil {
		r.logger.Warn("rpc transport error", zap.String("method", method), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrCallFailed, err)
	}
	if httpResp.IsError() {
		r.logger.Warn("rpc http error", zap.String("method", method), zap.Int("status", httpResp.StatusCode()))
		return fmt.Errorf("%w: http %d", ErrCallFailed, httpResp.StatusCode())
	}
	if resp.Error != nil {
		r.logger.Warn("rpc call reverted", zap.String("method", method), zap.String("error", resp.Error.Message))
		return fmt.Errorf("%w: %s", ErrCallFailed, resp.Error.Message)
	}
	if len(resp.Result) == 0 || string(resp.Result) == "null" {
		return ErrCallFailed
	}
	if err := json.Unmarshal(resp.Result, result); err != nil {
		return fmt.Errorf("%w: decode result: %v", ErrCallFailed, err)
	}
	return nil
}
