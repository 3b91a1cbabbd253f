package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/polyterm/polyterm/clob/client"
	"github.com/polyterm/polyterm/clob/gamma"
	"github.com/polyterm/polyterm/clob/types"
	"github.com/polyterm/polyterm/clob/wallet"
	"github.com/polyterm/polyterm/pkg/config"
	"github.com/polyterm/polyterm/pkg/journal"
	"github.com/polyterm/polyterm/pkg/logger"
	"github.com/polyterm/polyterm/pkg/secretstore"
)

func usage() {
	fmt.Fprintln(os.Stderr, `usage: polyterm <command> [flags]

commands:
  connect       import a signing key (or mnemonic) and derive API credentials
  place         place a limit order
  cancel        cancel one order by id
  cancel-all    cancel every open order
  cancel-market cancel all open orders on one token
  orders        list open orders
  trades        list recent trade history`)
	os.Exit(2)
}

func main() {
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		usage()
	}

	cfg, err := config.Load(os.Getenv("POLYTERM_CONFIG"))
	if err != nil {
		fatal(err)
	}
	if err := logger.Init(logger.Config{Level: cfg.LogLevel, OutputFile: cfg.LogFile}); err != nil {
		fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch os.Args[1] {
	case "connect":
		err = runConnect(cfg, os.Args[2:])
	case "place":
		err = runPlace(ctx, cfg, os.Args[2:])
	case "cancel":
		err = runCancel(ctx, cfg, os.Args[2:])
	case "cancel-all":
		err = runCancelAll(ctx, cfg)
	case "cancel-market":
		err = runCancelMarket(ctx, cfg, os.Args[2:])
	case "orders":
		err = runOrders(ctx, cfg)
	case "trades":
		err = runTrades(ctx, cfg)
	default:
		usage()
	}
	if err != nil {
		fatal(err)
	}
}

func runConnect(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("connect", flag.ExitOnError)
	var (
		key      = fs.String("key", "", "hex signing key (with or without 0x)")
		mnemonic = fs.String("mnemonic", "", "BIP-39 mnemonic phrase")
		path     = fs.String("path", wallet.DefaultDerivationPath, "derivation path for -mnemonic")
		vaultKey = fs.String("vault-key", "", "read the signing key from the vault under this name")
	)
	_ = fs.Parse(args)

	var (
		id  *wallet.Identity
		err error
	)
	switch {
	case *vaultKey != "":
		raw, found, verr := vaultGet(cfg, *vaultKey)
		if verr != nil {
			return verr
		}
		if !found {
			return fmt.Errorf("vault has no entry %q", *vaultKey)
		}
		id, err = wallet.Validate(raw)
	case *mnemonic != "":
		id, err = wallet.FromMnemonic(*mnemonic, *path)
	case *key != "":
		id, err = wallet.Validate(*key)
	default:
		return fmt.Errorf("one of -key, -mnemonic or -vault-key is required")
	}
	if err != nil {
		return err
	}

	store := wallet.NewStore(cfg.WalletFile)
	if err := store.SaveIdentity(id); err != nil {
		return err
	}

	cli, err := newClient(cfg, id, store)
	if err != nil {
		return err
	}
	creds, err := cli.Broker().FetchOrCreate(context.Background())
	if err != nil {
		return err
	}
	fmt.Printf("connected %s (api key %s…)\n", id.Address.Hex(), shorten(creds.Key))
	return nil
}

func runPlace(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("place", flag.ExitOnError)
	var (
		token = fs.String("token", "", "CLOB token id to trade")
		slug  = fs.String("slug", "", "gamma market slug (resolves display titles)")
		side  = fs.String("side", "BUY", "BUY or SELL")
		price = fs.Float64("price", 0, "limit price in (0,1)")
		size  = fs.Float64("size", 0, "number of shares")
		tif   = fs.String("tif", "GTC", "time in force: GTC, FOK or GTD")
		post  = fs.Bool("post-only", false, "reject instead of crossing the book")
	)
	_ = fs.Parse(args)

	if *token == "" {
		return fmt.Errorf("-token is required")
	}

	req := types.OrderRequest{
		TokenID:     *token,
		Side:        types.Side(strings.ToUpper(*side)),
		Price:       *price,
		Size:        *size,
		TimeInForce: types.OrderType(strings.ToUpper(*tif)),
		PostOnly:    *post,
	}
	if *slug != "" {
		if m, err := gamma.NewClient("").MarketBySlug(ctx, *slug); err != nil {
			logger.Logger.WithError(err).Warn("gamma lookup failed")
		} else {
			req.DisplayMarketTitle = m.Question
			req.DisplayOutcomeTitle = m.OutcomeForToken(*token)
		}
	}

	cli, cleanup, err := connectedClient(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	placed, err := cli.PlaceOrder(ctx, &req)
	if err != nil {
		return err
	}
	fmt.Printf("order %s %s  %s %.4f x %.2f  matched=%.2f remaining=%.2f\n",
		placed.OrderID, placed.Status, placed.Side, placed.Price, placed.OriginalSize,
		placed.SizeMatched, placed.SizeRemaining)
	return nil
}

func runCancel(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("cancel", flag.ExitOnError)
	id := fs.String("id", "", "order id to cancel")
	_ = fs.Parse(args)
	if *id == "" {
		return fmt.Errorf("-id is required")
	}

	cli, cleanup, err := connectedClient(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := cli.CancelOrder(ctx, *id); err != nil {
		return err
	}
	fmt.Printf("cancelled %s\n", *id)
	return nil
}

func runCancelAll(ctx context.Context, cfg *config.Config) error {
	cli, cleanup, err := connectedClient(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	res, err := cli.CancelAll(ctx)
	if err != nil {
		return err
	}
	printCancelResult(res)
	return nil
}

func runCancelMarket(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("cancel-market", flag.ExitOnError)
	token := fs.String("token", "", "CLOB token id")
	_ = fs.Parse(args)
	if *token == "" {
		return fmt.Errorf("-token is required")
	}

	cli, cleanup, err := connectedClient(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	res, err := cli.CancelMarketOrders(ctx, []string{*token})
	if err != nil {
		return err
	}
	printCancelResult(res)
	return nil
}

func runOrders(ctx context.Context, cfg *config.Config) error {
	cli, cleanup, err := connectedClient(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	for _, o := range cli.ListOpenOrders(ctx) {
		fmt.Printf("%s  %-9s %s %.4f  %.2f/%.2f  %s\n",
			o.OrderID, o.Status, o.Side, o.Price, o.SizeMatched, o.OriginalSize, o.TokenID)
	}
	return nil
}

func runTrades(ctx context.Context, cfg *config.Config) error {
	cli, cleanup, err := connectedClient(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	for _, t := range cli.ListTradeHistory(ctx) {
		fmt.Printf("%s  %-9s %s %.4f x %.2f  %s\n",
			t.CreatedAt.Format("01-02 15:04:05"), t.Status, t.Side, t.Price, t.OriginalSize, t.TokenID)
	}
	return nil
}

func connectedClient(cfg *config.Config) (*client.Client, func(), error) {
	store := wallet.NewStore(cfg.WalletFile)
	rec, err := store.Load()
	if err != nil {
		return nil, nil, err
	}
	if rec == nil {
		return nil, nil, fmt.Errorf("no wallet connected; run polyterm connect first")
	}
	id, err := wallet.Validate(rec.SigningKey)
	if err != nil {
		return nil, nil, err
	}

	jnl, err := journal.Open(cfg.JournalFile)
	if err != nil {
		logger.Logger.WithError(err).Warn("order journal unavailable")
		jnl = nil
	}

	cli, err := client.NewClient(cfg.Host, cfg.Chain(), id, store, &client.Options{
		Timeout: cfg.RequestTimeout(),
		Journal: jnl,
	})
	if err != nil {
		if jnl != nil {
			jnl.Close()
		}
		return nil, nil, err
	}
	cleanup := func() {
		if jnl != nil {
			jnl.Close()
		}
	}
	return cli, cleanup, nil
}

func newClient(cfg *config.Config, id *wallet.Identity, store *wallet.Store) (*client.Client, error) {
	return client.NewClient(cfg.Host, cfg.Chain(), id, store, &client.Options{
		Timeout: cfg.RequestTimeout(),
	})
}

func vaultGet(cfg *config.Config, name string) (string, bool, error) {
	keyBytes, err := secretstore.ParseKey(os.Getenv("POLYTERM_VAULT_SECRET"))
	if err != nil {
		return "", false, err
	}
	ss, err := secretstore.Open(secretstore.OpenOptions{
		Path:          cfg.VaultDir,
		EncryptionKey: keyBytes,
		ReadOnly:      true,
	})
	if err != nil {
		return "", false, err
	}
	defer ss.Close()
	return ss.GetString(name)
}

func printCancelResult(res *types.CancelResult) {
	for _, id := range res.Canceled {
		fmt.Printf("cancelled %s\n", id)
	}
	for id, reason := range res.NotCanceled {
		fmt.Printf("not cancelled %s: %s\n", id, reason)
	}
}

func shorten(s string) string {
	if len(s) <= 8 {
		return s
	}
	return s[:8]
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "error:", err.Error())
	os.Exit(1)
}
