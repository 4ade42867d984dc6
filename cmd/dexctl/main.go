package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/shopspring/decimal"

	"github.com/unchain-tech/icp-basic-dex/internal/app"
	"github.com/unchain-tech/icp-basic-dex/internal/infra/bookfeed"
)

const usage = `Usage: dexctl [-config path] <command> [args]

Commands:
  snapshot                       print wallet and custody balances
  orders                         print the open order book
  deposit  <symbol> [amount]     approve and deposit into exchange custody
  withdraw <symbol> [amount]     withdraw from exchange custody
  faucet   <symbol>              request test tokens
  place    <sell> <amt> <buy> <amt>   place a sell order
  buy      <buy> <amt> <sell> <amt>   accept terms by placing the inverse order
  accept   <order-id>            accept a listed order (submit its mirror)
  cancel   <order-id>            cancel an open order
  history  [limit]               print recent local activity
  watch                          follow the order stream, resyncing the book
`

func main() {
	configPath := flag.String("config", "configs/config.yaml", "configuration file")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	bootstrap := app.NewBootstrap()
	if err := bootstrap.Initialize(*configPath); err != nil {
		slog.Error("bootstrapping failed", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	session, err := bootstrap.OpenSession()
	if err != nil {
		slog.Error("session unavailable", slog.Any("error", err))
		os.Exit(1)
	}

	core := app.NewCore(bootstrap.Registry, bootstrap.Storage, bootstrap.Config.Exchange.Address)
	if err := core.OpenSession(session); err != nil {
		slog.Error("session wiring failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer core.CloseSession()

	if err := run(ctx, bootstrap, core, args[0], args[1:]); err != nil {
		slog.Error("command failed", slog.String("command", args[0]), slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, bootstrap *app.Bootstrap, core *app.Core, command string, args []string) error {
	switch command {
	case "snapshot":
		return cmdSnapshot(ctx, core)
	case "orders":
		return cmdOrders(ctx, core)
	case "deposit":
		return cmdTransfer(ctx, bootstrap, core, core.Deposit, args)
	case "withdraw":
		return cmdTransfer(ctx, bootstrap, core, core.Withdraw, args)
	case "faucet":
		return cmdFaucet(ctx, bootstrap, core, args)
	case "place":
		return cmdPlace(ctx, core, args, false)
	case "buy":
		return cmdPlace(ctx, core, args, true)
	case "accept":
		return cmdAccept(ctx, core, args)
	case "cancel":
		return cmdCancel(ctx, core, args)
	case "history":
		return cmdHistory(bootstrap, core, args)
	case "watch":
		return cmdWatch(ctx, bootstrap, core)
	default:
		return fmt.Errorf("unknown command %q", command)
	}
}

func cmdSnapshot(ctx context.Context, core *app.Core) error {
	syncBestEffort(ctx, core)
	snap, err := core.Snapshot()
	if err != nil {
		return err
	}

	fmt.Printf("principal: %s\n", snap.Principal)
	fmt.Printf("%-8s %14s %14s %8s\n", "SYMBOL", "WALLET", "CUSTODY", "FEE")
	for _, rec := range snap.Tokens {
		if rec.Unavailable {
			fmt.Printf("%-8s %14s %14s %8s  (unavailable)\n", rec.Symbol, "-", "-", rec.Fee)
			continue
		}
		fmt.Printf("%-8s %14s %14s %8s\n", rec.Symbol, rec.WalletBalance, rec.CustodyBalance, rec.Fee)
	}
	return nil
}

func cmdOrders(ctx context.Context, core *app.Core) error {
	syncBestEffort(ctx, core)
	book, err := core.Book()
	if err != nil {
		return err
	}

	if len(book.Orders) == 0 {
		fmt.Println("no open orders")
		return nil
	}
	fmt.Printf("%-6s %-8s %14s %-8s %14s\n", "ID", "SELL", "AMOUNT", "BUY", "AMOUNT")
	for _, o := range book.Orders {
		fmt.Printf("%-6d %-8s %14s %-8s %14s\n", o.ID, o.FromSymbol, o.FromAmount, o.ToSymbol, o.ToAmount)
	}
	return nil
}

func cmdTransfer(ctx context.Context, bootstrap *app.Bootstrap, core *app.Core, op func(context.Context, int, decimal.Decimal) error, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("symbol is required")
	}
	index, err := assetIndex(bootstrap, args[0])
	if err != nil {
		return err
	}

	amount := bootstrap.Config.DefaultTransferAmount()
	if len(args) > 1 {
		amount, err = decimal.NewFromString(args[1])
		if err != nil {
			return fmt.Errorf("invalid amount %q: %w", args[1], err)
		}
	}

	syncBestEffort(ctx, core)
	if err := op(ctx, index, amount); err != nil {
		return err
	}
	return cmdSnapshot(ctx, core)
}

func cmdFaucet(ctx context.Context, bootstrap *app.Bootstrap, core *app.Core, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("symbol is required")
	}
	index, err := assetIndex(bootstrap, args[0])
	if err != nil {
		return err
	}

	syncBestEffort(ctx, core)
	if err := core.FaucetIssue(ctx, index); err != nil {
		return err
	}
	return cmdSnapshot(ctx, core)
}

// cmdPlace places a sell order. In buy mode the arguments come in buy-first
// order and the sides are swapped before submission: buying is placing the
// inverse sell.
func cmdPlace(ctx context.Context, core *app.Core, args []string, buy bool) error {
	if len(args) < 4 {
		return fmt.Errorf("expected <symbol> <amount> <symbol> <amount>")
	}

	firstSym, secondSym := args[0], args[2]
	firstAmt, err := decimal.NewFromString(args[1])
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", args[1], err)
	}
	secondAmt, err := decimal.NewFromString(args[3])
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", args[3], err)
	}

	fromSym, fromAmt, toSym, toAmt := firstSym, firstAmt, secondSym, secondAmt
	if buy {
		fromSym, fromAmt, toSym, toAmt = secondSym, secondAmt, firstSym, firstAmt
	}

	id, err := core.Place(ctx, fromSym, fromAmt, toSym, toAmt)
	if err != nil {
		return err
	}
	fmt.Printf("order %d placed: %s %s -> %s %s\n", id, fromAmt, fromSym, toAmt, toSym)
	return cmdOrders(ctx, core)
}

func cmdAccept(ctx context.Context, core *app.Core, args []string) error {
	id, err := orderID(args)
	if err != nil {
		return err
	}
	syncBestEffort(ctx, core)
	if err := core.Accept(ctx, id); err != nil {
		return err
	}
	fmt.Printf("order %d accepted\n", id)
	return cmdOrders(ctx, core)
}

func cmdCancel(ctx context.Context, core *app.Core, args []string) error {
	id, err := orderID(args)
	if err != nil {
		return err
	}
	if err := core.Cancel(ctx, id); err != nil {
		return err
	}
	fmt.Printf("order %d cancelled\n", id)
	return cmdOrders(ctx, core)
}

func cmdHistory(bootstrap *app.Bootstrap, core *app.Core, args []string) error {
	limit := 20
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid limit %q", args[0])
		}
		limit = n
	}

	principal, err := core.Principal()
	if err != nil {
		return err
	}
	recs, err := bootstrap.Storage.Recent(principal, limit)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		fmt.Println("no local activity")
		return nil
	}
	for _, rec := range recs {
		fmt.Printf("%s  %-8s %-6s %s", rec.CreatedAt.Format(time.RFC3339), rec.Kind, rec.Symbol, rec.Amount)
		if rec.OrderID != 0 {
			fmt.Printf("  order=%d", rec.OrderID)
		}
		fmt.Println()
	}
	return nil
}

// cmdWatch follows the gateway's order stream. Every event triggers a full
// resync; the stream only signals that the book changed, it is never the
// source of the book itself.
func cmdWatch(ctx context.Context, bootstrap *app.Bootstrap, core *app.Core) error {
	wsURL := bootstrap.Config.Gateway.WSURL
	if wsURL == "" {
		return fmt.Errorf("gateway ws_url is not configured")
	}

	syncBestEffort(ctx, core)
	if err := cmdOrders(ctx, core); err != nil {
		return err
	}

	inbox := make(chan bookfeed.Event, 64)
	worker := bookfeed.NewWorker(wsURL, inbox)
	if err := worker.Connect(ctx); err != nil {
		return err
	}
	defer worker.Disconnect()

	slog.Info("watching order stream", slog.String("url", wsURL))
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-inbox:
			slog.Info("order event", slog.String("action", ev.Action), slog.Uint64("order_id", ev.OrderID))
			syncBestEffort(ctx, core)
			if err := cmdOrders(ctx, core); err != nil {
				slog.Warn("print failed", slog.Any("error", err))
			}
		}
	}
}

func assetIndex(bootstrap *app.Bootstrap, symbol string) (int, error) {
	asset, err := bootstrap.Registry.BySymbol(symbol)
	if err != nil {
		return 0, err
	}
	return bootstrap.Registry.IndexOf(asset.Address)
}

func orderID(args []string) (uint64, error) {
	if len(args) < 1 {
		return 0, fmt.Errorf("order id is required")
	}
	id, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid order id %q", args[0])
	}
	return id, nil
}

// syncBestEffort resyncs both projections, logging degradation instead of
// failing: the core keeps prior valid projections where a refetch failed and
// flags unavailable assets in the snapshot, so there is always something
// worth printing.
func syncBestEffort(ctx context.Context, core *app.Core) {
	if err := core.SyncAll(ctx); err != nil {
		slog.Warn("sync degraded", slog.Any("error", err))
	}
}
