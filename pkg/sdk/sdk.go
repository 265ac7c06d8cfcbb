package sdk

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	pkgerrors "github.com/absmach/fldash/pkg/errors"
	"github.com/absmach/fldash/pkg/fl"
	"github.com/tidwall/gjson"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	CTJSON string = "application/json"

	statusEndpoint   = "/status"
	registerEndpoint = "/register_worker"
	updateEndpoint   = "/submit_update"

	maxBodyExcerpt = 256
)

var errUnexpectedCode = errors.New("unexpected response code")

// SDK talks to a training coordinator over its HTTP contract.
type SDK interface {
	// Status fetches one snapshot of the coordinator's training state.
	//
	// example:
	//  status, _ := sdk.Status(ctx)
	//  fmt.Println(status.CurrentEpoch)
	Status(ctx context.Context) (fl.Status, error)

	// RegisterWorker announces a worker and the size of its local data. Any
	// JSON reply is accepted; status and message are read when present.
	//
	// example:
	//  ack, _ := sdk.RegisterWorker(ctx, fl.RegisterRequest{
	//    WorkerID: "worker1",
	//    DataSize: 100,
	//  })
	//  fmt.Println(ack.Message)
	RegisterWorker(ctx context.Context, req fl.RegisterRequest) (fl.Ack, error)

	// SubmitUpdate sends a worker's loss and flattened parameters.
	//
	// example:
	//  ack, _ := sdk.SubmitUpdate(ctx, fl.UpdateRequest{
	//    WorkerID:   "worker1",
	//    Loss:       8.0,
	//    Parameters: []float64{0.1, -0.3, 0.02},
	//  })
	//  fmt.Println(ack.Status)
	SubmitUpdate(ctx context.Context, req fl.UpdateRequest) (fl.Ack, error)
}

type flSDK struct {
	coordinatorURL string
	client         *http.Client
}

type Config struct {
	CoordinatorURL  string
	TLSVerification bool
	// Timeout bounds a whole round trip. Zero means no timeout.
	Timeout time.Duration
}

func NewSDK(cfg Config) SDK {
	return &flSDK{
		coordinatorURL: strings.TrimRight(cfg.CoordinatorURL, "/"),
		client: &http.Client{
			Timeout: cfg.Timeout,
			Transport: otelhttp.NewTransport(&http.Transport{
				TLSClientConfig: &tls.Config{
					InsecureSkipVerify: !cfg.TLSVerification,
				},
			}),
		},
	}
}

func (sdk *flSDK) Status(ctx context.Context) (fl.Status, error) {
	body, err := sdk.processRequest(ctx, http.MethodGet, sdk.coordinatorURL+statusEndpoint, nil)
	if err != nil {
		return fl.Status{}, err
	}

	var s fl.Status
	if err := json.Unmarshal(body, &s); err != nil {
		return fl.Status{}, malformed(err, body)
	}

	return s, nil
}

func (sdk *flSDK) RegisterWorker(ctx context.Context, req fl.RegisterRequest) (fl.Ack, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return fl.Ack{}, err
	}

	body, err := sdk.processRequest(ctx, http.MethodPost, sdk.coordinatorURL+registerEndpoint, data)
	if err != nil {
		return fl.Ack{}, err
	}

	return decodeRegisterAck(body)
}

func (sdk *flSDK) SubmitUpdate(ctx context.Context, req fl.UpdateRequest) (fl.Ack, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return fl.Ack{}, err
	}

	body, err := sdk.processRequest(ctx, http.MethodPost, sdk.coordinatorURL+updateEndpoint, data)
	if err != nil {
		return fl.Ack{}, err
	}

	return decodeAck(body)
}

func (sdk *flSDK) processRequest(ctx context.Context, method, reqURL string, data []byte) ([]byte, error) {
	var reqBody io.Reader = http.NoBody
	if data != nil {
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reqBody)
	if err != nil {
		return nil, err
	}
	if data != nil {
		req.Header.Add("Content-Type", CTJSON)
	}

	resp, err := sdk.client.Do(req)
	if err != nil {
		return nil, errors.Join(pkgerrors.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Join(pkgerrors.ErrUnavailable, err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("%w: %w: %d (body: %q)", pkgerrors.ErrUnavailable, errUnexpectedCode, resp.StatusCode, excerpt(body))
	}

	return body, nil
}

func decodeAck(body []byte) (fl.Ack, error) {
	var ack fl.Ack
	if err := json.Unmarshal(body, &ack); err != nil {
		return fl.Ack{}, malformed(err, body)
	}

	return ack, nil
}

func decodeRegisterAck(body []byte) (fl.Ack, error) {
	if !gjson.ValidBytes(body) {
		return fl.Ack{}, malformed(errors.New("invalid JSON"), body)
	}

	res := gjson.ParseBytes(body)
	var ack fl.Ack
	switch {
	case res.IsObject():
		if st := res.Get("status"); st.Type == gjson.String {
			ack.Status = st.String()
		}
		if msg := res.Get("message"); msg.Type == gjson.String {
			ack.Message = msg.String()
		}
	case res.Type == gjson.String:
		ack.Message = res.String()
	}

	return ack, nil
}

func malformed(err error, body []byte) error {
	return fmt.Errorf("%w: %w (body: %q)", pkgerrors.ErrMalformedResponse, err, excerpt(body))
}

func excerpt(body []byte) string {
	if len(body) > maxBodyExcerpt {
		return string(body[:maxBodyExcerpt]) + "..."
	}

	return string(body)
}
