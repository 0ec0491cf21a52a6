package main

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/blindly-cash/relay-go/cmd"
	"github.com/blindly-cash/relay-go/logconfig"
)

const (
	ENV_CONFIG_FILE_PATH = "RELAY_CONFIG"
)

func main() {
	// Tool to read environment variables
	viper.AutomaticEnv()
	setDefaults()

	// Accessing an environment variable of configuration file location.
	// Without one, env vars alone configure the server.
	_config_file := viper.GetString(ENV_CONFIG_FILE_PATH)
	if _config_file != "" {
		fmt.Printf("Relay server configuration file = %s\n", _config_file)
		if !cmd.FileExists(_config_file) {
			fmt.Printf("Relay server configuration file not found: %s\n", _config_file)
			return
		}
		if !initializeViper(_config_file) {
			return
		}
	}

	logconfig.ConfigLogger(viper.GetString("LOG_LEVEL"))

	rsc := PrepareRelayServerConfig()

	fmt.Println("Starting relay server... press Ctrl+C to kill the server")
	// Start server and block.
	cmd.StartRelayServerAndWait(rsc)
}

func setDefaults() {
	viper.SetDefault("HTTP_IP", "0.0.0.0")
	viper.SetDefault("HTTP_PORT", "8080")
	viper.SetDefault("TRACKER_BACKEND", cmd.TRACKER_BACKEND_MEMORY)
	viper.SetDefault("WATCHER_WORKERS", 16)
	viper.SetDefault("LOG_LEVEL", "production")
}

func initializeViper(filePath string) bool {
	viper.SetConfigFile(filePath)
	if err := viper.ReadInConfig(); err != nil {
		fmt.Printf("Error reading configuration file, %s", err)
		return false
	}
	return true
}

// PrepareRelayServerConfig reads configuration variables and returns a RelayServerConfig.
func PrepareRelayServerConfig() *cmd.RelayServerConfig {
	return &cmd.RelayServerConfig{
		// suave side
		SuaveRpcUrl:       viper.GetString("SUAVE_RPC_URL"),
		SuaveWsUrl:        viper.GetString("SUAVE_WS_URL"),
		ChainId:           viper.GetString("CHAIN_ID"),
		RelayAccountPriv:  viper.GetString("PRIVATE_KEY"),
		MixerContractAddr: viper.GetString("MIXER_CONTRACT_ADDR"),
		KettleAddr:        viper.GetString("KETTLE_ADDR"),
		// encryption key
		RsaModulusHex: viper.GetString("RSA_MODULUS_HEX"),
		RsaExponent:   viper.GetInt("RSA_EXPONENT"),
		// tracker side
		TrackerBackend:   viper.GetString("TRACKER_BACKEND"),
		DbFilePath:       viper.GetString("DB_FILE_PATH"),
		TrackerCacheSize: viper.GetInt("TRACKER_CACHE_SIZE"),
		// relay
		RejectInFlightDuplicates: viper.GetBool("REJECT_INFLIGHT_DUPLICATES"),
		SubmitTimeout:            viper.GetDuration("SUBMIT_TIMEOUT"),
		// watcher side
		NatsUrl:        viper.GetString("NATS_URL"),
		WatcherWorkers: viper.GetInt("WATCHER_WORKERS"),
		// Http side
		HttpIp:   viper.GetString("HTTP_IP"),
		HttpPort: viper.GetString("HTTP_PORT"),
	}
}
