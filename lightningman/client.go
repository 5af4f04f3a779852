package lightningman

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	logger "github.com/sirupsen/logrus"
)

type Config struct {
	// URL of the node's REST endpoint, e.g. https://localhost:8080
	URL string

	// MacaroonHex is the hex-encoded admin macaroon
	MacaroonHex string

	// InsecureSkipVerify disables TLS certificate verification, for
	// nodes running with self-signed certs
	InsecureSkipVerify bool

	// Timeout per REST call
	Timeout time.Duration
}

// Client talks to an LND node over its REST API.
type Client struct {
	cfg        *Config
	httpClient *http.Client
}

func NewClient(cfg *Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}

	transport := &http.Transport{}
	if cfg.InsecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
	}
}

type lndInvoiceResponse struct {
	PaymentRequest string `json:"payment_request"`
	RHash          string `json:"r_hash"` // base64
}

type lndPaymentResponse struct {
	PaymentError    string `json:"payment_error"`
	PaymentPreimage string `json:"payment_preimage"` // base64
	PaymentHash     string `json:"payment_hash"`     // base64
}

// CreateInvoice asks the node for a fresh invoice of amountMsat.
func (c *Client) CreateInvoice(ctx context.Context, amountMsat uint64, memo string) (*InvoiceInfo, error) {
	payload := map[string]string{
		"value_msat": fmt.Sprintf("%d", amountMsat),
		"memo":       memo,
		"expiry":     "3600",
	}

	var resp lndInvoiceResponse
	if err := c.call(ctx, http.MethodPost, "/v1/invoices", payload, &resp); err != nil {
		return nil, err
	}

	hash, err := base64ToHash(resp.RHash)
	if err != nil {
		return nil, fmt.Errorf("node returned malformed payment hash: %v", err)
	}

	return &InvoiceInfo{
		Invoice:     resp.PaymentRequest,
		PaymentHash: hash,
		AmountMsat:  amountMsat,
		Expiry:      3600,
		Timestamp:   time.Now().Unix(),
		Memo:        memo,
	}, nil
}

// PayInvoice pays invoice and blocks until the node reports settlement
// or failure.
func (c *Client) PayInvoice(ctx context.Context, invoice string) (*Payment, error) {
	payload := map[string]string{"payment_request": invoice}

	var resp lndPaymentResponse
	if err := c.call(ctx, http.MethodPost, "/v1/channels/transactions", payload, &resp); err != nil {
		return nil, err
	}

	hash, _ := base64ToHash(resp.PaymentHash)

	if resp.PaymentError != "" {
		return &Payment{
			PaymentHash: hash,
			Status:      PaymentFailed,
			FailureMsg:  resp.PaymentError,
		}, nil
	}

	preimage, err := base64.StdEncoding.DecodeString(resp.PaymentPreimage)
	if err != nil {
		return nil, fmt.Errorf("node returned malformed preimage: %v", err)
	}

	return &Payment{
		PaymentHash: hash,
		Preimage:    hex.EncodeToString(preimage),
		Status:      PaymentSucceeded,
	}, nil
}

// DecodeInvoice parses the invoice locally, no node round trip.
func (c *Client) DecodeInvoice(ctx context.Context, invoice string) (*InvoiceInfo, error) {
	return DecodeInvoice(invoice)
}

func (c *Client) call(ctx context.Context, method, route string, payload any, out any) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.URL+route, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.MacaroonHex != "" {
		req.Header.Set("Grpc-Metadata-macaroon", c.cfg.MacaroonHex)
	}

	resp, err := c.httpClient.Do(req)
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
			"route":  route,
			"status": resp.StatusCode,
		}).Error("lnd REST call failed")
		return fmt.Errorf("lnd REST %s returned %d: %s", route, resp.StatusCode, string(raw))
	}

	return json.Unmarshal(raw, out)
}

func base64ToHash(s string) (chainhash.Hash, error) {
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return chainhash.Hash{}, err
	}
	hash, err := chainhash.NewHash(raw)
	if err != nil {
		return chainhash.Hash{}, err
	}
	return *hash, nil
}
