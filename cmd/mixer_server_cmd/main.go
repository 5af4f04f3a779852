package main

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/veilmix/mixer-go/cmd"
)

const (
	ENV_CONFIG_FILE_PATH = "MIXER_CONFIG"
)

func main() {
	// Tool to read environment variables
	viper.AutomaticEnv()

	// Accessing an environment variable of configuration file location.
	_config_file := viper.GetString(ENV_CONFIG_FILE_PATH)
	fmt.Printf("Mixer server configuration file = %s\n", _config_file)

	// See if file exists
	if !cmd.FileExists(_config_file) {
		fmt.Printf("Mixer server configuration file not found: %s\n", _config_file)
		return
	}

	// Read from config file.
	if !initializeViper(_config_file) {
		return
	}

	// Make the configuration
	msc := PrepareMixerServerConfig()

	fmt.Println("Starting mixer server... press Ctrl+C to kill the server")
	// Start server and block.
	if err := cmd.StartMixerServerAndWait(msc); err != nil {
		fmt.Printf("Error starting mixer server: %s\n", err)
	}
}

func initializeViper(filePath string) bool {
	viper.SetConfigFile(filePath)
	if err := viper.ReadInConfig(); err != nil {
		fmt.Printf("Error reading configuration file, %s", err)
		return false
	}
	return true
}

// PrepareMixerServerConfig reads configuration variables and returns a MixerServerConfig.
func PrepareMixerServerConfig() *cmd.MixerServerConfig {
	viper.SetDefault("FALLBACK_SATS_RATE", cmd.DefaultFallbackSatsRate)
	viper.SetDefault("HTTP_IP", "0.0.0.0")
	viper.SetDefault("HTTP_PORT", "8080")

	return &cmd.MixerServerConfig{
		Simulated: viper.GetBool("SIMULATED"),
		// chain side
		ChainRpcUrl:          viper.GetString("CHAIN_RPC_URL"),
		CustodyContractAddr:  viper.GetString("CUSTODY_CONTRACT_ADDR"),
		ChainCoreAccountPriv: viper.GetString("CHAIN_CORE_ACCOUNT_PRIV"),
		ChainID:              viper.GetInt64("CHAIN_ID"),
		// lightning side
		LndRestUrl:     viper.GetString("LND_REST_URL"),
		LndMacaroonHex: viper.GetString("LND_MACAROON_HEX"),
		// mint side
		MintUrls: cmd.SplitList(viper.GetString("MINT_URLS")),
		// swap side
		SwapSignerPriv:   viper.GetString("SWAP_SIGNER_PRIV"),
		FallbackSatsRate: viper.GetFloat64("FALLBACK_SATS_RATE"),
		// history db
		DbFilePath: viper.GetString("DB_FILE_PATH"),
		// Http side
		HttpIp:   viper.GetString("HTTP_IP"),
		HttpPort: viper.GetString("HTTP_PORT"),
	}
}
