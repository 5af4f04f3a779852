// This is a http type of reporter.
// It fetches data from the mix history storage
// and publishes it on the http routes.

package reporter

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/veilmix/mixer-go/mixer"
	"github.com/veilmix/mixer-go/mixrecord"
)

// MixLauncher starts a mix run in the background and returns its record
// id. The reporter stays read-only without one.
type MixLauncher interface {
	Launch(req *mixer.MixRequest) (string, error)
}

const (
	ROUTE_HELLO   = "/hello"
	ROUTE_MIXES   = "/mixes"
	ROUTE_MIX     = "/mix"
	ROUTE_PAYOUTS = "/payouts"
)

type HttpReporter struct {
	serverIP   string // listen ip
	serverPort string // listen port

	// upstream data source
	mixdb mixrecord.Storage // this is an interface

	// optional; POST /mix answers 503 without it
	launcher MixLauncher
}

func NewHttpReporter(serverIP string, serverPort string, mixdb mixrecord.Storage, launcher MixLauncher) *HttpReporter {
	return &HttpReporter{
		serverIP:   serverIP,
		serverPort: serverPort,
		mixdb:      mixdb,
		launcher:   launcher,
	}
}

// Hook up routes & handlers
func (h *HttpReporter) SetupRouter() *gin.Engine {
	router := gin.Default()

	// Define routes & handlers
	router.GET(ROUTE_HELLO, Hello)
	router.GET(ROUTE_MIXES, h.Mixes)
	router.GET(ROUTE_MIX, h.Mix)
	router.GET(ROUTE_PAYOUTS, h.Payouts)
	router.POST(ROUTE_MIX, h.StartMix)

	return router
}

// Hook up router & ip:port
func (h *HttpReporter) Run() {
	router := h.SetupRouter()
	address := h.serverIP + ":" + h.serverPort
	if err := router.Run(address); err != nil {
		panic(err)
	}
}

// Example route.
func Hello(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "world",
	})
}

// Fetch recent mixes from mixdb
// Publish on the route
func (h *HttpReporter) Mixes(c *gin.Context) {
	recs, err := h.mixdb.ListMixes(100)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": recs})
}

// Fetch one mix by id
func (h *HttpReporter) Mix(c *gin.Context) {
	id := c.Query("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id must be provided"})
		return
	}

	rec, err := h.mixdb.GetMix(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if rec == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No mix found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": rec})
}

// Fetch the payouts of one mix
func (h *HttpReporter) Payouts(c *gin.Context) {
	mixID := c.Query("mix_id")
	if mixID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "mix_id must be provided"})
		return
	}

	payouts, err := h.mixdb.GetPayouts(mixID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if len(payouts) > 0 {
		c.JSON(http.StatusOK, gin.H{"data": payouts})
	} else {
		c.JSON(http.StatusNotFound, gin.H{"error": "No payouts found"})
	}
}

// StartMixBody is the POST /mix request payload.
type StartMixBody struct {
	Amount                  float64  `json:"amount"`
	Destinations            []string `json:"destinations"`
	PrivacyLevel            string   `json:"privacy_level"`
	EnableTimeDelays        bool     `json:"enable_time_delays"`
	EnableSplitOutputs      bool     `json:"enable_split_outputs"`
	EnableRandomizedMints   bool     `json:"enable_randomized_mints"`
	EnableAmountObfuscation bool     `json:"enable_amount_obfuscation"`
	EnableDecoyTx           bool     `json:"enable_decoy_tx"`
	SplitCount              int      `json:"split_count"`
}

// Accept a mix request and hand it to the launcher
func (h *HttpReporter) StartMix(c *gin.Context) {
	if h.launcher == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "mix launching not configured"})
		return
	}

	var body StartMixBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	req := &mixer.MixRequest{
		Amount:                  body.Amount,
		Destinations:            body.Destinations,
		PrivacyLevel:            mixer.PrivacyLevel(body.PrivacyLevel),
		EnableTimeDelays:        body.EnableTimeDelays,
		EnableSplitOutputs:      body.EnableSplitOutputs,
		EnableRandomizedMints:   body.EnableRandomizedMints,
		EnableAmountObfuscation: body.EnableAmountObfuscation,
		EnableDecoyTx:           body.EnableDecoyTx,
		SplitCount:              body.SplitCount,
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id, err := h.launcher.Launch(req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"mix_id": id})
}
