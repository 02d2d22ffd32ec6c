package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

const defaultTimeout = 10 * time.Second

// HTTPSource queries a price API over HTTP. The API is expected to answer
// GET <base>/price?chain=&token=&timestamp= with {"price": <number>}.
type HTTPSource struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// NewHTTPSource builds an HTTP price source for the given base URL.
func NewHTTPSource(baseURL string, logger *zap.Logger) *HTTPSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPSource{
		baseURL: baseURL,
		http:    &http.Client{Timeout: defaultTimeout},
		logger:  logger,
	}
}

// PriceAt fetches the USD price at a timestamp. Any failure is a miss.
func (s *HTTPSource) PriceAt(ctx context.Context, chain, tokenAddress string, timestampSec int64) (float64, bool) {
	query := url.Values{}
	query.Set("chain", chain)
	query.Set("token", tokenAddress)
	query.Set("timestamp", fmt.Sprintf("%d", timestampSec))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/price?"+query.Encode(), nil)
	if err != nil {
		return 0, false
	}

	resp, err := s.http.Do(req)
	if err != nil {
		s.logger.Debug("price lookup failed", zap.String("token", tokenAddress), zap.Error(err))
		return 0, false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		s.logger.Debug("price lookup status", zap.String("token", tokenAddress), zap.Int("status", resp.StatusCode))
		return 0, false
	}

	var payload struct {
		Price float64 `json:"price"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, false
	}
	if payload.Price <= 0 {
		return 0, false
	}
	return payload.Price, true
}
