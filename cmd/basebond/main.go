package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"basebond/internal/config"
	"basebond/internal/failure"
	"basebond/internal/session"
)

func main() {
	root := newRootCommand()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "basebond",
		Short:         "BaseBond event ticketing chain client",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().String("config", "", "config file path")
	addConnectionFlags(root.PersistentFlags())

	root.AddCommand(newConfigCommand())
	addReadCommands(root)
	addWriteCommands(root)
	root.AddCommand(newQRCommand())
	return root
}

func addConnectionFlags(fs *pflag.FlagSet) {
	fs.String("rpc", "", "Base RPC URL")
	fs.Uint64("chain-id", 0, "chain id, 0 asks the node")
	fs.String("explorer-url", "https://sepolia.basescan.org", "block explorer base URL")
	fs.String("event-factory-address", "", "EventFactory contract address")
	fs.String("ticket-nft-address", "", "TicketNFT contract address")
	fs.String("event-poap-address", "", "EventPOAP contract address")
	fs.String("loyalty-staking-address", "", "LoyaltyStaking contract address")
	fs.String("event-treasury-address", "", "EventTreasury contract address")
	fs.String("idrx-address", "", "IDRX token address")
	fs.Int("max-batch", 100, "calls per JSON-RPC batch request")
	fs.Int("max-retries", 3, "maximum retry attempts")
	fs.Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	fs.String("locale", "id", "number locale (id, en)")
	fs.Int("fraction-digits", 2, "decimals shown in amounts")
	fs.Uint("token-decimals", 18, "payment token decimals")
	fs.Int64("reward-rate-scale", 100, "divisor of staked*rate in the daily reward projection")
	fs.String("store", config.StoreFile, "operation history store (none, file, postgres, redis)")
	fs.String("store-path", "./data/operations.json", "operation history file")
	fs.String("pg-dsn", "", "Postgres DSN")
	fs.String("redis-url", "", "Redis URL")
	fs.String("nats-url", "", "NATS URL for invalidation fan-out, empty disables")
	fs.String("log-level", "info", "log level (debug, info, warn, error)")
}

func addSigningFlags(fs *pflag.FlagSet) {
	fs.String("private-key", "", "hex private key used to sign")
	fs.String("from", "", "node-managed account used to sign")
	fs.Bool("yes", false, "sign without asking")
	fs.Duration("confirm-timeout", 2*time.Minute, "how long to wait for confirmation")
	fs.Duration("poll-interval", 2*time.Second, "receipt polling interval")
	fs.Uint64("confirmations", 1, "blocks required to confirm")
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	return config.Load(cfgFile, cmd.Flags())
}

// withSession loads config, opens a session and runs fn. Cancellation and
// signer rejections end the command quietly; other failures become one
// human-readable line.
func withSession(cmd *cobra.Command, fn func(ctx context.Context, s *session.Session) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := session.Open(ctx, cfg, logger)
	if err != nil {
		return errors.New(failure.Message(err, cfg.ExplorerURL))
	}
	defer s.Close()

	err = fn(ctx, s)
	switch {
	case err == nil:
		return nil
	case failure.IsSilent(err):
		return nil
	case errors.Is(err, context.Canceled):
		logger.Debug("cancelled", zap.Error(err))
		return nil
	default:
		logger.Debug("command failed", zap.Error(err))
		return errors.New(failure.Message(err, cfg.ExplorerURL))
	}
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseID(text, what string) (uint64, error) {
	id, err := strconv.ParseUint(text, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", what, text)
	}
	return id, nil
}

func parseAddress(text string) (common.Address, error) {
	if !common.IsHexAddress(text) {
		return common.Address{}, fmt.Errorf("invalid address %q", text)
	}
	return common.HexToAddress(text), nil
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
