package service

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

	"claim-portal/pkg/log"
	"claim-portal/pkg/types"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

var ErrRecordStore = errors.New("record store error")

type restEnvelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

// RestRecordStore talks to the permits endpoints of a remote api instance.
type RestRecordStore struct {
	baseURL string
	client  *http.Client

	// MaxElapsed bounds the retries of a write; lookups are attempted once.
	MaxElapsed time.Duration
}

func NewRestRecordStore(baseURL string, client *http.Client) *RestRecordStore {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	return &RestRecordStore{
		baseURL:    strings.TrimRight(baseURL, "/"),
		client:     client,
		MaxElapsed: 30 * time.Second,
	}
}

func (s *RestRecordStore) permitURL(nonce string, suffix ...string) string {
	return s.baseURL + "/v1/permits/" + url.PathEscape(nonce) + strings.Join(suffix, "")
}

func (s *RestRecordStore) LookupTransaction(ctx context.Context, nonce string) (string, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.permitURL(nonce), nil)
	if err != nil {
		return "", false, err
	}

	var rsp types.GetPermitRsp
	if err = s.do(req, &rsp); err != nil {
		return "", false, err
	}

	txHash, found := redemptionOf(rsp.List)
	return txHash, found, nil
}

func (s *RestRecordStore) RecordTransaction(ctx context.Context, nonce, txHash string) error {
	body, err := json.Marshal(types.UpdatePermitTxReq{Transaction: txHash})
	if err != nil {
		return err
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = s.MaxElapsed

	return backoff.RetryNotify(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPut, s.permitURL(nonce, "/transaction"), bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")

		return s.do(req, nil)
	}, backoff.WithContext(bo, ctx), func(err error, d time.Duration) {
		log.Log.Warn("record store write retry",
			zap.String("nonce", nonce),
			zap.Duration("after", d),
			zap.Error(err),
		)
	})
}

// do sends req and decodes the envelope data into out. Application errors
// (code != 0) and client errors are permanent.
func (s *RestRecordStore) do(req *http.Request, out interface{}) error {
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= 500 {
		return fmt.Errorf("%w: http %d", ErrRecordStore, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return backoff.Permanent(fmt.Errorf("%w: http %d", ErrRecordStore, resp.StatusCode))
	}

	var env restEnvelope
	if err = json.Unmarshal(data, &env); err != nil {
		return backoff.Permanent(fmt.Errorf("%w: %v", ErrRecordStore, err))
	}
	if env.Code != 0 {
		return backoff.Permanent(fmt.Errorf("%w: %s", ErrRecordStore, env.Msg))
	}

	if out == nil || len(env.Data) == 0 {
		return nil
	}
	return json.Unmarshal(env.Data, out)
}
