// One-shot demo: runs a single mix against fully simulated
// collaborators and prints the event stream.

package main

import (
	"context"
	"fmt"

	"github.com/veilmix/mixer-go/cashuman"
	"github.com/veilmix/mixer-go/chainman"
	"github.com/veilmix/mixer-go/lightningman"
	"github.com/veilmix/mixer-go/logconfig"
	"github.com/veilmix/mixer-go/mixer"
	"github.com/veilmix/mixer-go/swapman"
)

func main() {
	logconfig.ConfigInfoLogger()

	node := lightningman.NewSimulatedNode()
	mintA := cashuman.NewSimulatedMint("https://mint-a.local", node)
	mintB := cashuman.NewSimulatedMint("https://mint-b.local", node)
	gateway := swapman.NewSimulatedGateway(node, 125)
	signer := swapman.NewRandomSigner()

	m, err := mixer.New(mixer.Deps{
		Custody:   chainman.NewSimulatedCustody(),
		Lightning: node,
		Ecash:     mintA,
		Gateway:   gateway,
		Signer:    signer,
		Estimator: swapman.NewFallbackEstimator(gateway, signer.Address(), 0),
		Router:    cashuman.NewRouter([]cashuman.Client{mintA, mintB}),
	})
	if err != nil {
		fmt.Printf("setup failed: %s\n", err)
		return
	}

	req := &mixer.MixRequest{
		Amount:                10,
		Destinations:          []string{"0xA11ce00000000000000000000000000000000001", "0xB0b0000000000000000000000000000000000002"},
		PrivacyLevel:          mixer.PrivacyEnhanced,
		EnableRandomizedMints: true,
		EnableSplitOutputs:    true,
		SplitCount:            3,
	}

	sink := mixer.NewChannelSink(32)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for e := range sink.Events() {
			if e.Error != "" {
				fmt.Printf("[%3d%%] %-28s %s (%s)\n", e.Progress, e.Type, e.Message, e.Error)
				continue
			}
			fmt.Printf("[%3d%%] %-28s %s\n", e.Progress, e.Type, e.Message)
		}
	}()

	res, err := m.Run(context.Background(), req, sink)
	sink.Close()
	<-done

	if err != nil {
		fmt.Printf("mix failed: %s\n", err)
		return
	}
	fmt.Printf("\nmix complete: anonymity set %d, privacy score %d\n",
		res.AnonymitySetSize, res.PrivacyScore)
	for _, d := range res.Distributions {
		fmt.Printf("  %s received %.4f units (tx %s)\n",
			d.Destination, d.SourceUnitsRedeemed, d.TxID)
	}
}
