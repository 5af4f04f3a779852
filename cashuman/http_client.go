package cashuman

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	logger "github.com/sirupsen/logrus"
)

// ErrBlindSigningUnsupported marks mint operations that need the
// blind-signature wallet layer. That cryptography is an external
// collaborator; the HTTP client covers the plain REST surface only and
// the simulated mint provides the full behavior.
var ErrBlindSigningUnsupported = errors.New("operation requires an external blind-signing wallet")

// HTTPClient talks to a mint's REST API (bolt11 quote flows and info).
type HTTPClient struct {
	url        string
	httpClient *http.Client
}

func NewHTTPClient(mintURL string, timeout time.Duration) *HTTPClient {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &HTTPClient{
		url:        mintURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (hc *HTTPClient) MintURL() string {
	return hc.url
}

type postMintQuoteRequest struct {
	Amount uint64 `json:"amount"`
	Unit   string `json:"unit"`
}

type postMeltQuoteRequest struct {
	Request string `json:"request"`
	Unit    string `json:"unit"`
}

func (hc *HTTPClient) CreateMintQuote(ctx context.Context, amount uint64) (*MintQuote, error) {
	var quote MintQuote
	err := hc.call(ctx, http.MethodPost, "/v1/mint/quote/bolt11",
		&postMintQuoteRequest{Amount: amount, Unit: "sat"}, &quote)
	if err != nil {
		return nil, err
	}
	if quote.Amount == 0 {
		quote.Amount = amount
	}
	return &quote, nil
}

func (hc *HTTPClient) CheckMintQuote(ctx context.Context, quote string) (*MintQuote, error) {
	var out MintQuote
	err := hc.call(ctx, http.MethodGet, "/v1/mint/quote/bolt11/"+quote, nil, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (hc *HTTPClient) CreateMeltQuote(ctx context.Context, invoice string) (*MeltQuote, error) {
	var quote MeltQuote
	err := hc.call(ctx, http.MethodPost, "/v1/melt/quote/bolt11",
		&postMeltQuoteRequest{Request: invoice, Unit: "sat"}, &quote)
	if err != nil {
		return nil, err
	}
	return &quote, nil
}

func (hc *HTTPClient) Info(ctx context.Context) (*MintInfo, error) {
	var info MintInfo
	if err := hc.call(ctx, http.MethodGet, "/v1/info", nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func (hc *HTTPClient) MintProofs(ctx context.Context, amount uint64, quote string) (Proofs, error) {
	return nil, ErrBlindSigningUnsupported
}

func (hc *HTTPClient) MeltProofs(ctx context.Context, quote *MeltQuote, proofs Proofs) (*MeltResult, error) {
	return nil, ErrBlindSigningUnsupported
}

func (hc *HTTPClient) Send(ctx context.Context, amount uint64, proofs Proofs) (*SendResult, error) {
	return nil, ErrBlindSigningUnsupported
}

func (hc *HTTPClient) CreateToken(proofs Proofs) (string, error) {
	return EncodeToken(hc.url, proofs)
}

func (hc *HTTPClient) Receive(ctx context.Context, token string) (Proofs, error) {
	return nil, ErrBlindSigningUnsupported
}

func (hc *HTTPClient) call(ctx context.Context, method, route string, payload any, out any) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, hc.url+route, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := hc.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK {
		logger.WithFields(logger.Fields{
			"mint":   hc.url,
			"route":  route,
			"status": resp.StatusCode,
		}).Error("mint REST call failed")
		return fmt.Errorf("mint %s returned %d: %s", route, resp.StatusCode, string(raw))
	}

	return json.Unmarshal(raw, out)
}
