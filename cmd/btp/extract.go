package main

import (
	"errors"
	"fmt"

	"BehindThePicture/pkg/extractor"
	extractlsb "BehindThePicture/pkg/extractor/image/lsb"
	"BehindThePicture/pkg/filehandler"
	"BehindThePicture/pkg/models"
)

func extractCmd(args []string) error {
	flagSet, configPath := newFlagSet("extract")
	input := flagSet.StringP("input", "i", "", "image to read the message from")
	password := flagSet.StringP("password", "p", "", "password used when embedding")
	maxBits := flagSet.Int("max-bits", 0, "bits to scan for the terminator (default from config)")
	outFile := flagSet.StringP("output", "o", "", "also write the message to this file")

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
	if *maxBits <= 0 {
		*maxBits = env.cfg.Extraction.MaxBits
	}

	registry := extractor.NewRegistry()
	registry.Register(extractlsb.NewLSBExtractor())

	format, err := filehandler.DetectFileFormat(*input)
	if err != nil {
		return err
	}
	extractors := registry.GetExtractorsForFormat(format)
	if len(extractors) == 0 {
		return fmt.Errorf("no extractor for %s images (supported: %v)", format, registry.GetSupportedFormats())
	}

	printBanner()
	printInfo("Reading up to %d bits from %s", *maxBits, *input)

	var lastErr error
	for _, e := range extractors {
		result, err := e.Extract(*input, extractor.ExtractionOptions{
			Password: *password,
			MaxBits:  *maxBits,
		})
		if err != nil {
			env.logger.Debug("extraction failed", "extractor", e.Name(), "error", err)
			lastErr = err
			continue
		}

		printSuccess("Recovered %d characters (%v)", result.DataSize, result.Details["label"])
		fmt.Println(result.Message)

		if *outFile != "" {
			if err := filehandler.SaveFile([]byte(result.Message), *outFile); err != nil {
				return err
			}
			printSuccess("Saved message to %s", *outFile)
		}
		return nil
	}

	switch {
	case errors.Is(lastErr, models.ErrNoMessageFound):
		printWarning("No hidden message found. Check the password, or raise --max-bits for long messages")
	case errors.Is(lastErr, models.ErrDecryptionFailed), errors.Is(lastErr, models.ErrInvalidEnvelope):
		printWarning("A message was found but could not be decoded. Check the password")
	}
	return lastErr
}
