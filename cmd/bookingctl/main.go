package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"tradepost/internal/cache"
	"tradepost/internal/config"
	"tradepost/internal/export"
	"tradepost/internal/hooks"
	"tradepost/internal/httpclient"
	"tradepost/internal/logging"
	"tradepost/internal/models"
	"tradepost/internal/service"
	"tradepost/internal/status"

	"github.com/rs/zerolog"
)

const usage = `usage: bookingctl [-config path] <command> [flags]

commands:
  list    -entity T (-buyer ID | -listing ID | -seller ID) [-role buyer|seller]
  thread  -entity T -id BOOKING -context ID [-role buyer|seller]
  send    -entity T -id BOOKING -sender USER -message TEXT
  create  -entity T -listing ID -buyer USER [-message TEXT] [-date YYYY-MM-DD]
  export  -entity T (-buyer ID | -listing ID | -seller ID) [-role buyer|seller]
`

var errUsage = errors.New("invalid usage")

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprint(os.Stderr, usage)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type app struct {
	cfg      *config.Config
	logger   *zerolog.Logger
	source   hooks.AdapterSource
	out      io.Writer
	exporter *export.Exporter
}

func run(ctx context.Context, args []string, out io.Writer) error {
	global := flag.NewFlagSet("bookingctl", flag.ContinueOnError)
	global.SetOutput(io.Discard)
	configPath := global.String("config", envOr("CONFIG_PATH", "configs/config.yaml"), "path to config.yaml")
	if err := global.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if global.NArg() == 0 {
		return fmt.Errorf("%w: missing command", errUsage)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}

	store, cacheCloser := cache.FromConfig(ctx, cfg.Cache, cfg.App.Name, logger)
	defer (func() { _ = cacheCloser.Close() })()

	transport := httpclient.NewFromConfig(cfg.Backend, store, cfg.Cache.TTL, logger)
	a := &app{
		cfg:      cfg,
		logger:   logger,
		source:   service.NewBookingService(transport, nil, logger),
		out:      out,
		exporter: export.NewExporter(cfg.Exports.Path, logger),
	}

	ctx, cancel := context.WithTimeout(httpclient.WithFreshRead(ctx), 2*cfg.Backend.Timeout)
	defer cancel()

	cmd, rest := global.Arg(0), global.Args()[1:]
	switch cmd {
	case "list":
		return a.list(ctx, rest, false)
	case "export":
		return a.list(ctx, rest, true)
	case "thread":
		return a.thread(ctx, rest)
	case "send":
		return a.send(ctx, rest)
	case "create":
		return a.create(ctx, rest)
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

type commonFlags struct {
	fs     *flag.FlagSet
	entity *string
	role   *string
}

func newFlags(name string) commonFlags {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return commonFlags{
		fs:     fs,
		entity: fs.String("entity", "", "entity type: "+entityList()),
		role:   fs.String("role", "buyer", "viewer role: buyer or seller"),
	}
}

func (c commonFlags) parse(args []string) (models.EntityType, status.Role, error) {
	if err := c.fs.Parse(args); err != nil {
		return "", "", fmt.Errorf("%w: %v", errUsage, err)
	}
	t, err := models.ParseEntityType(*c.entity)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", errUsage, err)
	}
	return t, status.ParseRole(*c.role), nil
}

func entityList() string {
	names := make([]string, 0, 3)
	for _, t := range models.AllEntityTypes() {
		names = append(names, t.String())
	}
	return strings.Join(names, ", ")
}

func (a *app) list(ctx context.Context, args []string, toExcel bool) error {
	f := newFlags("list")
	buyer := f.fs.Int64("buyer", 0, "buyer user id")
	listing := f.fs.Int64("listing", 0, "listing id")
	seller := f.fs.Int64("seller", 0, "seller user id")
	t, role, err := f.parse(args)
	if err != nil {
		return err
	}

	var bookings []models.Booking
	switch {
	case *buyer > 0:
		st := hooks.NewBuyerBookings(a.source).Sync(ctx, hooks.Deps{EntityType: t, ID: *buyer, Enabled: true})
		if st.Err != "" {
			return errors.New(st.Err)
		}
		bookings = st.Data
	case *listing > 0:
		st := hooks.NewEntityBookings(a.source).Sync(ctx, hooks.Deps{EntityType: t, ID: *listing, Enabled: true})
		if st.Err != "" {
			return errors.New(st.Err)
		}
		bookings = st.Data
	case *seller > 0:
		adapter, err := a.source.AdapterFor(t)
		if err != nil {
			return err
		}
		if bookings, err = adapter.GetSellerBookings(ctx, *seller); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: one of -buyer, -listing or -seller is required", errUsage)
	}

	if toExcel {
		path, err := a.exporter.Write(t, role, bookings)
		if err != nil {
			return err
		}
		fmt.Fprintln(a.out, path)
		return nil
	}
	return printBookings(a.out, role, bookings)
}

func printBookings(out io.Writer, role status.Role, bookings []models.Booking) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tLISTING\tSTATUS\tMESSAGES\tLAST MESSAGE")
	for _, b := range bookings {
		fmt.Fprintf(w, "%d\t%d\t%s\t%d\t%s\n", b.BookingID, b.EntityID, status.For(role, b.Status).Label, b.MessageCount, b.LastMessage)
	}
	return w.Flush()
}

func (a *app) thread(ctx context.Context, args []string) error {
	f := newFlags("thread")
	id := f.fs.Int64("id", 0, "booking id")
	contextID := f.fs.Int64("context", 0, "listing id (seller) or buyer id (buyer)")
	t, role, err := f.parse(args)
	if err != nil {
		return err
	}

	st := hooks.NewBookingDetail(a.source).Sync(ctx, hooks.Deps{EntityType: t, ID: *id, ContextID: *contextID, Enabled: true})
	if st.Err != "" {
		return errors.New(st.Err)
	}
	if !st.Fetched {
		return fmt.Errorf("%w: -id and -context are required", errUsage)
	}

	view := status.ViewOf(role, st.Data)
	fmt.Fprintf(a.out, "Booking %d on %s %d: %s\n", view.Booking.BookingID, t, view.Booking.EntityID, view.Status.Label)
	for _, m := range view.Booking.Conversation {
		ts := ""
		if !m.Timestamp.IsZero() {
			ts = m.Timestamp.Format(time.DateTime) + " "
		}
		fmt.Fprintf(a.out, "  %s[%s] %s\n", ts, m.SenderType, m.Message)
	}
	if view.ChatDisabled {
		fmt.Fprintln(a.out, "  (chat closed)")
	}
	return nil
}

func (a *app) send(ctx context.Context, args []string) error {
	f := newFlags("send")
	id := f.fs.Int64("id", 0, "booking id")
	sender := f.fs.Int64("sender", 0, "sender user id")
	message := f.fs.String("message", "", "message text")
	t, _, err := f.parse(args)
	if err != nil {
		return err
	}
	if *id <= 0 || *sender <= 0 || strings.TrimSpace(*message) == "" {
		return fmt.Errorf("%w: -id, -sender and -message are required", errUsage)
	}

	b, err := hooks.NewSendMessage(a.source, t).Run(ctx, models.SendMessageRequest{
		BookingID:    *id,
		SenderUserID: *sender,
		Message:      strings.TrimSpace(*message),
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Booking %d now has %d messages\n", b.BookingID, b.MessageCount)
	return nil
}

func (a *app) create(ctx context.Context, args []string) error {
	f := newFlags("create")
	listing := f.fs.Int64("listing", 0, "listing id")
	buyer := f.fs.Int64("buyer", 0, "buyer user id")
	message := f.fs.String("message", "", "opening message")
	date := f.fs.String("date", "", "booking date, YYYY-MM-DD (laptop only)")
	t, _, err := f.parse(args)
	if err != nil {
		return err
	}
	if *listing <= 0 || *buyer <= 0 {
		return fmt.Errorf("%w: -listing and -buyer are required", errUsage)
	}

	b, err := hooks.NewCreateBooking(a.source, t).Run(ctx, models.CreateBookingRequest{
		EntityID:    *listing,
		EntityType:  t,
		BuyerUserID: *buyer,
		Message:     strings.TrimSpace(*message),
		BookingDate: *date,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Created booking %d (%s)\n", b.BookingID, status.ForBuyer(b.Status).Label)
	return nil
}
