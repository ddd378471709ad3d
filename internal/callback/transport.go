package callback

import (
	"bytes"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
	"moul.io/http2curl"

	"github.com/crochee/jobflow/pkg/logger"
)

// curlTransport 打印curl语句，便于问题分析和定位
type curlTransport struct {
	next http.RoundTripper
}

func newCurlTransport(next http.RoundTripper) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	if _, ok := next.(*curlTransport); ok {
		return next
	}
	return &curlTransport{next: next}
}

func (t *curlTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	log := logger.From(req.Context())
	if !log.Core().Enabled(zap.DebugLevel) {
		return t.next.RoundTrip(req)
	}
	curl, err := http2curl.GetCurlCommand(req)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	resp, err := t.next.RoundTrip(req)
	if err != nil {
		log.Debug("callback request failed", zap.Stringer("curl", curl),
			zap.Duration("cost", time.Since(start)), zap.Error(err))
		return nil, err
	}
	var response []byte
	if resp.StatusCode != http.StatusNoContent {
		response, err = io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, err
		}
		// Reset resp.Body so it can be use again
		resp.Body = io.NopCloser(bytes.NewReader(response))
	}
	log.Debug("callback request end", zap.Stringer("curl", curl), zap.String("status", resp.Status),
		zap.Duration("cost", time.Since(start)), zap.ByteString("response", response))
	return resp, nil
}
