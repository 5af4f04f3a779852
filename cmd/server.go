// Server = chain custody + lightning + mints + swap gateway + mix
// history db + http reporter.
// All components are configured via environment variables (strings!).

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	logger "github.com/sirupsen/logrus"

	"github.com/veilmix/mixer-go/cashuman"
	"github.com/veilmix/mixer-go/chainman"
	"github.com/veilmix/mixer-go/lightningman"
	"github.com/veilmix/mixer-go/mixer"
	"github.com/veilmix/mixer-go/mixrecord"
	"github.com/veilmix/mixer-go/reporter"
	"github.com/veilmix/mixer-go/swapman"
)

// Default params for server.
// More often we don't recommend users to tweak those.
// So we list them here.
const (
	DefaultFallbackSatsRate = swapman.DefaultFallbackSatsRate
	DefaultMintURL          = "https://mint.local"

	mintHTTPTimeout = 30 * time.Second
)

// Keep the configuration's fields as "text" as possible.
// Its easier to load it from env vars or a config file.
type MixerServerConfig struct {
	// simulated mode wires every collaborator in-process
	Simulated bool

	// chain side
	ChainRpcUrl          string // json rpc url
	CustodyContractAddr  string // custody contract address
	ChainCoreAccountPriv string // private key of the pipeline controlled account
	ChainID              int64

	// lightning side
	LndRestUrl     string // LND REST endpoint
	LndMacaroonHex string // hex encoded admin macaroon

	// mint side
	MintUrls []string // first entry is the origin mint

	// swap side
	SwapSignerPriv   string  // key authorizing swap commits and claims
	FallbackSatsRate float64 // static rate when live quotes fail

	// history db
	DbFilePath string // db file path

	// Http side
	HttpIp   string // eg. 0.0.0.0
	HttpPort string // eg. 8080
}

// Validate checks the configuration before any funds can move.
// Errors abort startup; warnings are logged and startup continues.
func (c *MixerServerConfig) Validate() (errs []string, warnings []string) {
	if !c.Simulated {
		if c.ChainRpcUrl == "" {
			errs = append(errs, "CHAIN_RPC_URL is required")
		}
		if c.CustodyContractAddr == "" {
			errs = append(errs, "CUSTODY_CONTRACT_ADDR is required")
		}
		if c.ChainCoreAccountPriv == "" {
			errs = append(errs, "CHAIN_CORE_ACCOUNT_PRIV is required")
		}
		if c.SwapSignerPriv == "" {
			errs = append(errs, "SWAP_SIGNER_PRIV is required")
		}
		if c.LndRestUrl == "" {
			warnings = append(warnings, "LND_REST_URL not set; invoice decoding is local only")
		}
		warnings = append(warnings, "no external swap provider integration; swap legs run against the simulated gateway")
	}
	if len(c.MintUrls) == 0 {
		warnings = append(warnings, fmt.Sprintf("MINT_URLS not set; using %s", DefaultMintURL))
	}
	if len(c.MintUrls) == 1 {
		warnings = append(warnings, "a single mint is configured; randomized-mint routing will be skipped")
	}
	if c.FallbackSatsRate <= 0 {
		warnings = append(warnings, fmt.Sprintf("FALLBACK_SATS_RATE not set; using %d", DefaultFallbackSatsRate))
	}
	if c.DbFilePath == "" {
		errs = append(errs, "DB_FILE_PATH is required")
	}
	return errs, warnings
}

// MixerServer holds the objects that consists of the mixer server.
type MixerServer struct {
	MyCustody   mixer.CustodyClient
	MyLightning mixer.LightningClient
	MyMints     []cashuman.Client
	MyRouter    *cashuman.Router
	MyGateway   swapman.Gateway
	MySigner    *swapman.Signer
	MyMixer     *mixer.Mixer
	MyStorage   *mixrecord.SQLiteMixStorage
	MyReporter  *reporter.HttpReporter

	// one run in flight per signer
	runMu sync.Mutex
}

func NewMixerServer(cfg *MixerServerConfig) (*MixerServer, error) {
	errs, warnings := cfg.Validate()
	for _, w := range warnings {
		logger.Warn(w)
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid configuration: %v", errs)
	}

	srv := &MixerServer{}

	// Simulated Lightning is needed even in live-chain mode while the
	// swap provider is in-process.
	node := lightningman.NewSimulatedNode()

	rate := cfg.FallbackSatsRate
	if rate <= 0 {
		rate = DefaultFallbackSatsRate
	}
	srv.MyGateway = swapman.NewSimulatedGateway(node, rate)

	if cfg.Simulated {
		srv.MyCustody = chainman.NewSimulatedCustody()
		srv.MyLightning = node
		mintURLs := cfg.MintUrls
		if len(mintURLs) == 0 {
			mintURLs = []string{DefaultMintURL}
		}
		for _, u := range mintURLs {
			srv.MyMints = append(srv.MyMints, cashuman.NewSimulatedMint(u, node))
		}
		srv.MySigner = swapman.NewRandomSigner()
	} else {
		custody, err := chainman.NewCustodyman(&chainman.Config{
			URL:                    cfg.ChainRpcUrl,
			CustodyContractAddress: cfg.CustodyContractAddr,
			PrivateKey:             cfg.ChainCoreAccountPriv,
			ChainID:                cfg.ChainID,
		})
		if err != nil {
			return nil, err
		}
		srv.MyCustody = custody
		srv.MyLightning = lightningman.NewClient(&lightningman.Config{
			URL:         cfg.LndRestUrl,
			MacaroonHex: cfg.LndMacaroonHex,
		})
		for _, u := range cfg.MintUrls {
			srv.MyMints = append(srv.MyMints, cashuman.NewHTTPClient(u, mintHTTPTimeout))
		}
		signer, err := swapman.NewSigner(cfg.SwapSignerPriv)
		if err != nil {
			return nil, err
		}
		srv.MySigner = signer
	}

	if len(srv.MyMints) >= 2 {
		srv.MyRouter = cashuman.NewRouter(srv.MyMints)
	}

	storage, err := mixrecord.NewSQLiteMixStorage(cfg.DbFilePath)
	if err != nil {
		return nil, err
	}
	srv.MyStorage = storage

	m, err := mixer.New(mixer.Deps{
		Custody:   srv.MyCustody,
		Lightning: srv.MyLightning,
		Ecash:     srv.MyMints[0],
		Gateway:   srv.MyGateway,
		Signer:    srv.MySigner,
		Estimator: swapman.NewFallbackEstimator(srv.MyGateway, srv.MySigner.Address(), rate),
		Router:    srv.MyRouter,
	})
	if err != nil {
		return nil, err
	}
	srv.MyMixer = m

	srv.MyReporter = reporter.NewHttpReporter(cfg.HttpIp, cfg.HttpPort, srv.MyStorage, srv)
	return srv, nil
}

// Launch starts one mix run in the background, recording its progress.
// Runs are serialized: the signer supports one run in flight.
func (s *MixerServer) Launch(req *mixer.MixRequest) (string, error) {
	rec, err := mixrecord.NewEventRecorder(s.MyStorage, req)
	if err != nil {
		return "", err
	}

	go func() {
		s.runMu.Lock()
		defer s.runMu.Unlock()

		res, err := s.MyMixer.Run(context.Background(), req, rec)
		if err != nil {
			logger.WithFields(logger.Fields{
				"id":  rec.MixID(),
				"err": err,
			}).Error("mix run failed")
			return
		}
		rec.RecordResult(res)
		logger.WithField("id", rec.MixID()).Info("mix run complete")
	}()

	return rec.MixID(), nil
}

// StartMixerServerAndWait starts the reporter and blocks until SIGINT
// or SIGTERM.
func StartMixerServerAndWait(cfg *MixerServerConfig) error {
	srv, err := NewMixerServer(cfg)
	if err != nil {
		return err
	}
	defer srv.MyStorage.Close()

	go srv.MyReporter.Run()
	logger.WithFields(logger.Fields{
		"ip":   cfg.HttpIp,
		"port": cfg.HttpPort,
	}).Info("mixer server started")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Info("mixer server shutting down")
	return nil
}
