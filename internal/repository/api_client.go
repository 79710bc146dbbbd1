package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/noah-isme/member-console/internal/dto"
	"github.com/noah-isme/member-console/pkg/config"
	appErrors "github.com/noah-isme/member-console/pkg/errors"
	"github.com/noah-isme/member-console/pkg/middleware/requestid"
)

const maxResponseBytes = 8 << 20

// RemoteCallObserver receives one observation per member service call.
type RemoteCallObserver interface {
	ObserveRemoteCall(operation string, err error, duration time.Duration)
}

// APIClient performs JSON calls against the member REST service and unwraps
// its {status, message, data, pagination} envelope.
type APIClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
	tracer     trace.Tracer
	observer   RemoteCallObserver
	logger     *zap.Logger
}

// NewAPIClient constructs a client. A nil httpClient gets one bounded by the configured timeout.
func NewAPIClient(cfg config.RemoteConfig, httpClient *http.Client, observer RemoteCallObserver, logger *zap.Logger) *APIClient {
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &APIClient{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		token:      strings.TrimSpace(cfg.APIToken),
		httpClient: httpClient,
		tracer:     otel.Tracer("member-console/remote"),
		observer:   observer,
		logger:     logger,
	}
}

// call describes one remote request.
type call struct {
	operation string
	method    string
	path      string
	query     url.Values
	body      interface{}
}

// do executes the call and returns the decoded success envelope. Transport
// failures map to NETWORK_ERROR; non-success envelopes and malformed bodies map
// to SERVER_ERROR, except a 404 which maps to NOT_FOUND.
func (c *APIClient) do(ctx context.Context, cl call) (env *dto.Envelope, err error) {
	ctx, span := c.tracer.Start(ctx, "member_service."+cl.operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", cl.method),
			attribute.String("http.route", cl.path),
		),
	)
	start := time.Now()
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		if c.observer != nil {
			c.observer.ObserveRemoteCall(cl.operation, err, time.Since(start))
		}
	}()

	target := c.baseURL + cl.path
	if len(cl.query) > 0 {
		target += "?" + cl.query.Encode()
	}

	var body io.Reader
	if cl.body != nil {
		raw, mErr := json.Marshal(cl.body)
		if mErr != nil {
			return nil, appErrors.WrapAs(mErr, appErrors.ErrInternal, "encode request body")
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, target, body)
	if err != nil {
		return nil, appErrors.WrapAs(err, appErrors.ErrInternal, "build member service request")
	}
	req.Header.Set("Accept", "application/json")
	if cl.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if reqID := requestid.FromContext(ctx); reqID != "" {
		req.Header.Set(requestid.HeaderKey, reqID)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, appErrors.WrapAs(err, appErrors.ErrNetwork, "member service call cancelled")
		}
		c.logger.Warn("member service unreachable",
			zap.String("operation", cl.operation),
			zap.String("method", cl.method),
			zap.String("path", cl.path),
			zap.Error(err),
		)
		return nil, appErrors.WrapAs(err, appErrors.ErrNetwork, "")
	}
	defer func() { _ = resp.Body.Close() }()
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, appErrors.WrapAs(err, appErrors.ErrNetwork, "read member service response")
	}

	var envelope dto.Envelope
	if len(bytes.TrimSpace(raw)) == 0 || json.Unmarshal(raw, &envelope) != nil {
		return nil, appErrors.WrapAs(
			fmt.Errorf("http status=%d: unparseable body", resp.StatusCode),
			appErrors.ErrServer, "",
		)
	}

	if envelope.Status != dto.StatusSuccess || resp.StatusCode < 200 || resp.StatusCode >= 300 {
		message := strings.TrimSpace(envelope.Message)
		cause := fmt.Errorf("http status=%d status=%q", resp.StatusCode, envelope.Status)
		if resp.StatusCode == http.StatusNotFound {
			return nil, appErrors.WrapAs(cause, appErrors.ErrNotFound, message)
		}
		return nil, appErrors.WrapAs(cause, appErrors.ErrServer, message)
	}

	return &envelope, nil
}

// decodeData unmarshals the envelope data block into dest. An absent block leaves dest untouched.
func decodeData(env *dto.Envelope, dest interface{}) error {
	if env == nil || len(env.Data) == 0 || bytes.Equal(bytes.TrimSpace(env.Data), []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(env.Data, dest); err != nil {
		return appErrors.WrapAs(err, appErrors.ErrServer, "malformed member service payload")
	}
	return nil
}
