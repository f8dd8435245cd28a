package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/pflag"

	"BehindThePicture/pkg/config"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

var (
	// Color printers
	infoColor    = color.New(color.FgBlue).SprintFunc()
	successColor = color.New(color.FgGreen).SprintFunc()
	warningColor = color.New(color.FgYellow).SprintFunc()
	errorColor   = color.New(color.FgRed).SprintFunc()
	alertColor   = color.New(color.FgRed, color.Bold).SprintFunc()

	// out receives the coloured status lines; detect --json moves them to stderr
	out io.Writer = os.Stdout
)

func printInfo(format string, args ...interface{}) {
	fmt.Fprintf(out, "%s %s\n", infoColor("[*]"), fmt.Sprintf(format, args...))
}

func printSuccess(format string, args ...interface{}) {
	fmt.Fprintf(out, "%s %s\n", successColor("[+]"), fmt.Sprintf(format, args...))
}

func printWarning(format string, args ...interface{}) {
	fmt.Fprintf(out, "%s %s\n", warningColor("[!]"), fmt.Sprintf(format, args...))
}

func printError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "%s %s\n", errorColor("[-]"), fmt.Sprintf(format, args...))
}

func printAlert(format string, args ...interface{}) {
	fmt.Fprintf(out, "%s %s\n", alertColor("[!!!]"), fmt.Sprintf(format, args...))
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "embed":
		err = embedCmd(args)
	case "extract":
		err = extractCmd(args)
	case "detect":
		err = detectCmd(args)
	case "serve":
		err = serveCmd(args)
	case "version", "--version":
		fmt.Printf("btp %s\n", version)
		return
	case "help", "--help", "-h":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		printError("%v", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprint(os.Stderr, `BehindThePicture: keyed LSB steganography and steganalysis

Usage:
  btp <command> [flags]

Commands:
  embed     Hide a message in an image (output is always PNG)
  extract   Recover a hidden message with its password
  detect    Score images for LSB steganography
  serve     Run the HTTP gateway
  version   Print the version

Every command accepts --config <file>; BTP_CONFIG is used otherwise.
Run "btp <command> --help" for the flags of a command.
`)
}

func printBanner() {
	fmt.Fprintf(out, "BehindThePicture %s\n", version)
	fmt.Fprintln(out, "Keyed LSB steganography and steganalysis")
	fmt.Fprintln(out, "---------------------------------")
}

// environment holds what every command needs after flag parsing
type environment struct {
	cfg    *config.Config
	logger *slog.Logger
}

// newFlagSet creates the flag set of a command with the shared --config flag
func newFlagSet(name string) (*pflag.FlagSet, *string) {
	flagSet := pflag.NewFlagSet(name, pflag.ContinueOnError)
	configPath := flagSet.String("config", "", "path to a YAML config file (default: $"+config.EnvVar+")")
	return flagSet, configPath
}

// loadEnvironment reads the configuration and installs the logger it describes
func loadEnvironment(configPath string) (*environment, error) {
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	logger, err := newLogger(cfg.Log, os.Stderr)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)

	return &environment{cfg: cfg, logger: logger}, nil
}

// newLogger builds a text or JSON slog logger at the configured level
func newLogger(cfg config.LogConfig, w io.Writer) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}
