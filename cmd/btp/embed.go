package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"

	"BehindThePicture/pkg/cipher"
	"BehindThePicture/pkg/embedder"
	embedlsb "BehindThePicture/pkg/embedder/image/lsb"
	"BehindThePicture/pkg/filehandler"
	"BehindThePicture/pkg/models"
)

func embedCmd(args []string) error {
	flagSet, configPath := newFlagSet("embed")
	input := flagSet.StringP("input", "i", "", "cover image to hide the message in")
	output := flagSet.StringP("output", "o", "", "output PNG (default: <input>_stego.png)")
	password := flagSet.StringP("password", "p", "", "password that keys the pixel order and the cipher")
	message := flagSet.StringP("message", "m", "", "message to hide (at most 500 characters)")
	messageFile := flagSet.String("message-file", "", "read the message from this file instead of --message")
	modeName := flagSet.String("mode", string(cipher.ModeA), "encryption mode: AES (AES-256) or RSA (RSA-2048)")

	if err := flagSet.Parse(args); err != nil {
		return err
	}
	env, err := loadEnvironment(*configPath)
	if err != nil {
		return err
	}

	if *input == "" {
		return errors.New("--input is required")
	}
	mode, err := cipher.ParseMode(*modeName)
	if err != nil {
		return err
	}

	text := *message
	if *messageFile != "" {
		data, err := os.ReadFile(*messageFile)
		if err != nil {
			return fmt.Errorf("failed to read message file: %w", err)
		}
		text = string(data)
	}

	e := embedlsb.NewLSBEmbedder()
	format, err := filehandler.DetectFileFormat(*input)
	if err != nil {
		return err
	}
	if !e.CanEmbed(format) {
		return fmt.Errorf("%s cannot read %s images", e.Name(), format)
	}

	printBanner()
	printInfo("Hiding %d characters in %s with %s", len([]rune(text)), *input, mode.Label())

	result, err := e.Embed(*input, *output, embedder.EmbedOptions{
		Password:  *password,
		Mode:      mode,
		Message:   text,
		ScanLimit: env.cfg.Extraction.MaxBits,
		Logger:    env.logger,
	})
	if err != nil {
		if errors.Is(err, models.ErrCapacityExceeded) {
			printWarning("Use a larger image or a shorter message")
		}
		return err
	}

	printSuccess("%s", result.Status)
	printInfo("Used %s of %s available bits (%.2f%%)",
		humanize.Comma(int64(result.EnvelopeBits)), humanize.Comma(int64(result.CapacityBits)), result.UsagePercent)
	if format == "jpeg" {
		printWarning("Input was JPEG; the output is PNG and must not be re-compressed")
	}
	printSuccess("Saved %s", result.OutputFile)

	return nil
}
