// Package callback provides a scheduler job that posts its input to an http endpoint.
// The response body becomes the job result, and so the input of the next job of the workflow.
package callback

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/cespare/xxhash/v2"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/crochee/jobflow/pkg/code"
	"github.com/crochee/jobflow/pkg/json"
	"github.com/crochee/jobflow/pkg/logger"
	"github.com/crochee/jobflow/pkg/scheduler"
	"github.com/crochee/jobflow/pkg/workflow"
)

const (
	// URLKey holds the endpoint in the job or trigger data.
	URLKey = "url"
	// BodyKey holds the payload used when no input is carried.
	BodyKey = "body"
	// IdempotencyHeader is stable across the retries of one job for one payload.
	IdempotencyHeader = "Idempotency-Key"
)

type Job struct {
	client        *http.Client
	retries       uint64
	interval      time.Duration
	timeout       time.Duration
	attempts      int
	recoveryDelay time.Duration
	limiter       *rate.Limiter
}

func New(opts ...Option) *Job {
	o := &option{
		retries:       defaultRetries,
		interval:      defaultInterval,
		timeout:       defaultTimeout,
		attempts:      defaultAttempts,
		recoveryDelay: defaultRecoveryDelay,
	}
	for _, opt := range opts {
		opt(o)
	}
	client := &http.Client{}
	if o.client != nil {
		c := *o.client
		client = &c
	}
	client.Transport = newCurlTransport(client.Transport)
	return &Job{
		client:        client,
		retries:       o.retries,
		interval:      o.interval,
		timeout:       o.timeout,
		attempts:      o.attempts,
		recoveryDelay: o.recoveryDelay,
		limiter:       o.limiter,
	}
}

func (j *Job) Execute(ctx context.Context, jc *scheduler.ExecutionContext) error {
	url, ok := jc.MergedData.GetString(URLKey)
	if !ok || url == "" {
		return errors.Errorf("job %s has no %s", jc.JobDetail.Key, URLKey)
	}
	body := workflow.Input(jc)
	if body == nil {
		body = jc.MergedData[BodyKey]
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return errors.Wrapf(err, "encode payload of job %s", jc.JobDetail.Key)
	}
	key := idempotencyKey(jc.JobDetail.Key, payload)

	result, err := j.post(ctx, url, key, payload)
	if err == nil {
		jc.Result = result
		return nil
	}
	var e code.ErrorCode
	if errors.As(err, &e) && !e.Temporary() {
		return err
	}
	logger.From(ctx).Warn("callback failed, rescheduling",
		zap.Stringer("job", jc.JobDetail.Key),
		zap.String("url", url),
		zap.Error(err))
	if rerr := workflow.NewRecovery(jc, j.attempts, j.recoveryDelay).Start(ctx); rerr != nil {
		return multierr.Append(err, rerr)
	}
	return nil
}

func (j *Job) post(ctx context.Context, url, key string, payload []byte) (interface{}, error) {
	var result interface{}
	operation := func() error {
		var err error
		result, err = j.do(ctx, url, key, payload)
		var e code.ErrorCode
		if errors.As(err, &e) && !e.Temporary() {
			return &backoff.PermanentError{Err: err}
		}
		return err
	}
	b := backoff.WithContext(backoff.WithMaxRetries(j.newBackOff(), j.retries), ctx)
	if err := backoff.Retry(operation, b); err != nil {
		return nil, err
	}
	return result, nil
}

func (j *Job) do(ctx context.Context, url, key string, payload []byte) (interface{}, error) {
	if j.limiter != nil {
		if err := j.limiter.Wait(ctx); err != nil {
			return nil, &backoff.PermanentError{Err: err}
		}
	}
	if j.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.timeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, &backoff.PermanentError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(IdempotencyHeader, key)
	resp, err := j.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, code.From(resp)
	}
	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}
	return decode(resp.Body)
}

func (j *Job) newBackOff() backoff.BackOff {
	if j.interval <= 0 {
		return &backoff.ZeroBackOff{}
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = j.interval
	b.MaxInterval = 10 * b.InitialInterval
	b.MaxElapsedTime = 0
	return b
}

func decode(r io.Reader) (interface{}, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(content)) == 0 {
		return nil, nil
	}
	var result interface{}
	if err = json.Unmarshal(content, &result); err != nil {
		// 非json响应按字符串传递
		return string(content), nil
	}
	return result, nil
}

func idempotencyKey(key scheduler.JobKey, payload []byte) string {
	xxh := xxhash.New()
	_, _ = xxh.WriteString(key.String())
	_, _ = xxh.Write(payload)
	return strconv.FormatUint(xxh.Sum64(), 16)
}
