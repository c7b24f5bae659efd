package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	flag "github.com/spf13/pflag"

	"github.com/ajayykmr/ghasedak-sms-go/internal/config"
	"github.com/ajayykmr/ghasedak-sms-go/internal/logger"
	"github.com/ajayykmr/ghasedak-sms-go/internal/providers/sms/ghasedak"
	"github.com/ajayykmr/ghasedak-sms-go/internal/util"
)

type options struct {
	kind     string
	to       []string
	template string
	params   []string
	inputs   []string
	message  string
	sender   string
	code     string
	refID    string
	sendAt   string
	timeout  time.Duration
	verbose  bool
}

func main() {
	opts := parseFlags(os.Args[1:])

	level := "warn"
	if opts.verbose {
		level = "debug"
	}
	// stdout carries the result, so logs go to stderr
	log, err := logger.New("development", level, zerolog.ConsoleWriter{Out: os.Stderr})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	cfg, err := config.LoadGhasedak()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load ghasedak config")
	}

	client, err := ghasedak.NewClient(cfg, logger.Component(*log, "ghasedak-send"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create ghasedak client")
	}

	ctx, cancel := context.WithTimeout(context.Background(), opts.timeout)
	defer cancel()

	if err := run(ctx, client, opts); err != nil {
		var derr *ghasedak.DeliveryError
		if errors.As(err, &derr) {
			fmt.Fprintf(os.Stderr, "%s: %s\n", derr.Code, derr.Message)
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func parseFlags(args []string) options {
	var opts options
	fs := flag.NewFlagSet("ghasedak-send", flag.ExitOnError)
	fs.StringVar(&opts.kind, "kind", "simple", "send kind: template, simple, otp, verify or account")
	fs.StringSliceVar(&opts.to, "to", nil, "recipient mobile number(s)")
	fs.StringVar(&opts.template, "template", "", "template key for template and otp sends")
	fs.StringSliceVar(&opts.params, "params", nil, "positional template parameters")
	fs.StringSliceVar(&opts.inputs, "inputs", nil, "otp inputs as param=value pairs")
	fs.StringVar(&opts.message, "message", "", "message text for simple sends")
	fs.StringVar(&opts.sender, "sender", "", "sender line, defaults to the configured line")
	fs.StringVar(&opts.code, "code", "", "verification code for verify sends")
	fs.StringVar(&opts.refID, "ref", "", "client reference id for otp sends")
	fs.StringVar(&opts.sendAt, "at", "", "RFC3339 time to schedule a simple send")
	fs.DurationVar(&opts.timeout, "timeout", 30*time.Second, "overall request timeout")
	fs.BoolVarP(&opts.verbose, "verbose", "v", false, "log gateway traffic")
	_ = fs.Parse(args)
	return opts
}

func run(ctx context.Context, client *ghasedak.Client, opts options) error {
	switch strings.ToLower(opts.kind) {
	case "account":
		account, err := client.AccountInfo(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("credit=%.0f plan=%s expires=%s lines=%s\n",
			account.Credit, account.PlanName, account.ExpireDate, strings.Join(account.Lines, ","))
		return nil
	case "template":
		phone, err := single(opts.to)
		if err != nil {
			return err
		}
		return printResponse(client.SendTemplate(ctx, phone, opts.template, opts.params...))
	case "simple":
		phone, err := single(opts.to)
		if err != nil {
			return err
		}
		if opts.sendAt == "" {
			return printResponse(client.SendSimple(ctx, phone, opts.message, opts.sender))
		}
		at, err := util.ParseRFC3339(opts.sendAt)
		if err != nil {
			return fmt.Errorf("-at: %w", err)
		}
		return printResponse(client.SendScheduled(ctx, phone, opts.message, at, opts.sender))
	case "otp":
		inputs, err := parseInputs(opts.inputs)
		if err != nil {
			return err
		}
		return printResponse(client.SendOTP(ctx, opts.template, inputs, opts.refID, opts.to...))
	case "verify":
		phone, err := single(opts.to)
		if err != nil {
			return err
		}
		return printResponse(client.SendVerificationCode(ctx, phone, opts.code))
	default:
		return fmt.Errorf("unknown -kind %q", opts.kind)
	}
}

func printResponse(resp *ghasedak.Response, err error) error {
	if err != nil {
		return err
	}
	fmt.Println(resp.MessageID)
	return nil
}

func single(to []string) (string, error) {
	if len(to) != 1 {
		return "", fmt.Errorf("expected exactly one -to number, got %d", len(to))
	}
	return to[0], nil
}

func parseInputs(pairs []string) ([]ghasedak.Input, error) {
	inputs := make([]ghasedak.Input, 0, len(pairs))
	for _, pair := range pairs {
		param, value, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(param) == "" {
			return nil, fmt.Errorf("input %q must be param=value", pair)
		}
		inputs = append(inputs, ghasedak.Input{Param: strings.TrimSpace(param), Value: value})
	}
	return inputs, nil
}
