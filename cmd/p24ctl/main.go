// Command p24ctl talks to the Przelewy24 API with the merchant credentials
// from the service config. It also signs and checks notification bodies for
// sandbox testing.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"p24-gateway/internal/config"
	"p24-gateway/internal/infra/adapters/payment/p24"
	"p24-gateway/internal/infra/adapters/payment/p24/request"
	"p24-gateway/internal/infra/logging"
)

var errNotVerified = errors.New("notification signature does not verify")

const usage = `usage: p24ctl [-config config.yaml] [-dev] <command> [flags]

commands:
  test-access           check the API credentials
  methods               list payment methods (-lang, -amount, -currency)
  register              register a transaction and print the redirect URL
  verify-notification   verify a notification body read from -file or stdin
  sign-notification     print a notification signed with the configured crc
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := run(ctx, os.Args[1:], os.Stdin, os.Stdout)
	switch {
	case err == nil:
	case errors.Is(err, errNotVerified):
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	case errors.Is(err, flag.ErrHelp):
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "p24ctl: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer) error {
	fs := flag.NewFlagSet("p24ctl", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	cfgPath := fs.String("config", "config.yaml", "path to YAML config file")
	devMode := fs.Bool("dev", false, "print secrets unredacted")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		fmt.Fprint(stdout, usage)
		return flag.ErrHelp
	}

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	logger := zerolog.Nop()
	if cfg.Gateway.Debug {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(zerolog.DebugLevel)
	}
	client := p24.New(cfg.Gateway.User, cfg.Gateway.SecretID, cfg.Gateway.CRC,
		p24.WithBaseURL(cfg.Gateway.BaseURL),
		p24.WithTimeout(cfg.Gateway.Timeout),
		p24.WithEncoding(cfg.Gateway.Encoding),
		p24.WithDebug(cfg.Gateway.Debug),
		p24.WithLogger(&logger),
	)

	cmd, rest := fs.Arg(0), fs.Args()[1:]
	switch cmd {
	case "test-access":
		return testAccess(ctx, client, cfg, stdout)
	case "methods":
		return methods(ctx, client, rest, stdout)
	case "register":
		return register(ctx, client, cfg, rest, stdout)
	case "verify-notification":
		return verifyNotification(client, rest, stdin, stdout)
	case "sign-notification":
		return signNotification(cfg, rest, stdout)
	default:
		fmt.Fprint(stdout, usage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func testAccess(ctx context.Context, c *p24.Client, cfg *config.Config, w io.Writer) error {
	out, err := c.TestAccess(ctx)
	if err != nil {
		return err
	}
	return printJSON(w, map[string]any{
		"base_url":  c.BaseURL(),
		"user":      cfg.Gateway.User,
		"secret_id": logging.Redact(cfg.Gateway.SecretID, cfg.Runtime.Dev),
		"granted":   out.Granted(),
		"response":  out,
	})
}

func methods(ctx context.Context, c *p24.Client, args []string, w io.Writer) error {
	fs := flag.NewFlagSet("methods", flag.ContinueOnError)
	lang := fs.String("lang", "pl", "language of method names")
	amount := fs.String("amount", "", "filter by amount in minor units")
	currency := fs.String("currency", "", "filter by currency; comma separated for several")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var q p24.PaymentMethodsQuery
	if *amount != "" {
		q.Amount = p24.Scalar(*amount)
	}
	if *currency != "" {
		q.Currency = p24.List(strings.Split(*currency, ",")...)
	}
	out, err := c.PaymentMethodsAll(ctx, *lang, q)
	if err != nil {
		return err
	}
	return printJSON(w, out)
}

func register(ctx context.Context, c *p24.Client, cfg *config.Config, args []string, w io.Writer) error {
	fs := flag.NewFlagSet("register", flag.ContinueOnError)
	session := fs.String("session", "", "session id; a fresh ULID when empty")
	amount := fs.Int64("amount", 0, "amount in minor units")
	currency := fs.String("currency", "PLN", "currency")
	description := fs.String("description", "", "transaction description")
	email := fs.String("email", "", "buyer email")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *session == "" {
		*session = ulid.Make().String()
	}

	r := request.TransactionRegister{
		MerchantID:  cfg.Gateway.MerchantID,
		PosID:       cfg.Gateway.PosID,
		SessionID:   *session,
		Amount:      *amount,
		Currency:    strings.ToUpper(*currency),
		Description: *description,
		Email:       *email,
		Country:     cfg.Gateway.Country,
		Language:    cfg.Gateway.Language,
		URLReturn:   cfg.HTTP.ReturnURL,
	}
	if cfg.HTTP.StatusURL != "" {
		r.URLStatus = &cfg.HTTP.StatusURL
	}
	out, err := c.RegisterTransaction(ctx, r)
	if err != nil {
		return err
	}
	return printJSON(w, map[string]string{
		"session_id":   *session,
		"token":        out.Token(),
		"redirect_url": c.RedirectURL(out.Token()),
	})
}

func verifyNotification(c *p24.Client, args []string, stdin io.Reader, w io.Writer) error {
	fs := flag.NewFlagSet("verify-notification", flag.ContinueOnError)
	file := fs.String("file", "", "notification body; stdin when empty")
	if err := fs.Parse(args); err != nil {
		return err
	}
	body, err := readBody(*file, stdin)
	if err != nil {
		return err
	}
	n, ok, err := c.VerifyNotification(body)
	if err != nil {
		return err
	}
	if err := printJSON(w, map[string]any{"verified": ok, "notification": n}); err != nil {
		return err
	}
	if !ok {
		return errNotVerified
	}
	return nil
}

func signNotification(cfg *config.Config, args []string, w io.Writer) error {
	fs := flag.NewFlagSet("sign-notification", flag.ContinueOnError)
	session := fs.String("session", "", "session id of the registered transaction")
	amount := fs.Int64("amount", 0, "amount in minor units")
	currency := fs.String("currency", "PLN", "currency")
	orderID := fs.Int64("order", 1, "gateway order id")
	methodID := fs.Int64("method", 25, "payment method id")
	statement := fs.String("statement", "", "bank statement title")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *session == "" || *amount <= 0 {
		return errors.New("sign-notification needs -session and -amount")
	}
	if *statement == "" {
		*statement = "p24-" + *session
	}

	cur := strings.ToUpper(*currency)
	n := p24.TransactionNotification{
		MerchantID:   &cfg.Gateway.MerchantID,
		PosID:        &cfg.Gateway.PosID,
		SessionID:    session,
		Amount:       amount,
		OriginAmount: amount,
		Currency:     &cur,
		OrderID:      orderID,
		MethodID:     methodID,
		Statement:    statement,
	}.Signed(cfg.Gateway.CRC)
	b, err := n.Wire()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}

func readBody(path string, stdin io.Reader) ([]byte, error) {
	if path == "" {
		return io.ReadAll(io.LimitReader(stdin, 64<<10))
	}
	return os.ReadFile(path)
}
