package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/viper"

	"github.com/blindly-cash/relay-go/cmd"
	"github.com/blindly-cash/relay-go/logconfig"
)

const (
	ENV_CONFIG_FILE_PATH = "MIXER_USER_CONFIG"
)

func main() {
	logconfig.ConfigInfoLogger()

	// Tool to read environment variables
	viper.AutomaticEnv()

	_config_file := viper.GetString(ENV_CONFIG_FILE_PATH)
	if _config_file != "" {
		fmt.Printf("Mixer user configuration file = %s\n", _config_file)
		if !cmd.FileExists(_config_file) {
			fmt.Printf("Mixer user configuration file not found: %s\n", _config_file)
			return
		}
		if !initializeViper(_config_file) {
			return
		}
	}

	muc := PrepareMixerUserConfig()
	mu, err := cmd.NewMixerUser(muc)
	if err != nil {
		fmt.Printf("Error creating mixer user: %s\n", err)
		return
	}
	defer mu.Close()

	fmt.Println(strings.Repeat("=", 30))
	fmt.Println("Welcome to the mixer user command line tool.")
	fmt.Printf("Relay: %s\n", muc.RelayUrl)
	if mu.Account != nil {
		fmt.Printf("ChainId: %d\n", mu.ChainId.Int64())
		fmt.Printf("Your address: %s\n", mu.Account.From.Hex())
		fmt.Printf("Mixer contract address: %s\n", muc.MixerContractAddr)
	}

	// Create a cancelable context and signal handler for graceful shutdown.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		_captured := <-sig
		fmt.Printf("\nReceived interrupt signal, shutting down... %v\n", _captured)
		cancel()
		os.Exit(0)
	}()

	// gather user inputs
	scanner := bufio.NewScanner(os.Stdin)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		fmt.Println(strings.Repeat("-", 30))
		fmt.Println("1) deposit")
		fmt.Println("2) redeem")
		fmt.Println("3) redeem status")
		fmt.Println("4) exit")
		fmt.Print("Select: ")
		if !scanner.Scan() {
			return
		}

		switch strings.TrimSpace(scanner.Text()) {
		case "1":
			note, receipt, err := mu.Deposit(ctx)
			if err != nil {
				fmt.Printf("Deposit failed: %s\n", err)
				continue
			}
			fmt.Printf("Deposit tx: %s (status %d)\n", receipt.TxHash.Hex(), receipt.Status)
			fmt.Printf("Your redeem note, keep it secret: %s\n", note.String())
		case "2":
			noteHex := prompt(scanner, "Redeem note: ")
			redeemTo := prompt(scanner, "Redeem to address: ")
			tip, err := strconv.ParseInt(prompt(scanner, "Tip (basis points): "), 10, 64)
			if err != nil {
				fmt.Printf("Invalid tip: %s\n", err)
				continue
			}
			id, out, err := mu.Redeem(ctx, noteHex, redeemTo, tip)
			if err != nil {
				fmt.Printf("Redeem failed: %s\n", err)
				continue
			}
			fmt.Printf("Request id: %s\n", id.Hex())
			fmt.Println(out.Message)
		case "3":
			st, err := mu.Status(ctx, prompt(scanner, "Request id: "))
			if err != nil {
				fmt.Printf("Status failed: %s\n", err)
				continue
			}
			fmt.Printf("Status: %s, tx hash: %s\n", st.Status, st.TxHash)
		case "4":
			return
		default:
			fmt.Println("Unknown option")
		}
	}
}

func prompt(scanner *bufio.Scanner, msg string) string {
	fmt.Print(msg)
	if !scanner.Scan() {
		return ""
	}
	return strings.TrimSpace(scanner.Text())
}

func initializeViper(filePath string) bool {
	viper.SetConfigFile(filePath)
	if err := viper.ReadInConfig(); err != nil {
		fmt.Printf("Error reading configuration file, %s", err)
		return false
	}
	return true
}

// PrepareMixerUserConfig reads configuration variables and returns a MixerUserConfig.
func PrepareMixerUserConfig() *cmd.MixerUserConfig {
	viper.SetDefault("RELAY_URL", "http://127.0.0.1:8080")
	return &cmd.MixerUserConfig{
		EthRpcUrl:         viper.GetString("ETH_RPC_URL"),
		EthAccountPriv:    viper.GetString("PRIVATE_KEY"),
		MixerContractAddr: viper.GetString("MIXER_CONTRACT_ADDR"),
		RelayUrl:          viper.GetString("RELAY_URL"),
		RsaModulusHex:     viper.GetString("RSA_MODULUS_HEX"),
		RsaExponent:       viper.GetInt("RSA_EXPONENT"),
		ClaimFormat:       viper.GetString("CLAIM_FORMAT"),
	}
}
