package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"BehindThePicture/pkg/analyzer"
	"BehindThePicture/pkg/analyzer/image/raster"
	"BehindThePicture/pkg/config"
	"BehindThePicture/pkg/filehandler"
	"BehindThePicture/pkg/models"
)

// detectOptions are the per-file settings of a detect run
type detectOptions struct {
	format   string
	verbose  bool
	password string
	maxBits  int
}

// outcome is the analysis of one input file
type outcome struct {
	path   string
	result *models.AnalysisResult
	err    error
}

func detectCmd(args []string) error {
	flagSet, configPath := newFlagSet("detect")
	filePath := flagSet.String("file", "", "Path to a single file for analysis")
	dirPath := flagSet.String("dir", "", "Path to directory of files for analysis")
	urlPath := flagSet.String("url", "", "URL to download and analyze")
	urlFilePath := flagSet.String("urlfile", "", "Path to file containing URLs to download and analyze")
	outputDir := flagSet.String("outdir", "", "Directory to store downloaded files (default from config)")
	format := flagSet.String("format", "auto", "Force specific format analysis (png, jpeg, gif, bmp, tiff, webp)")
	verbose := flagSet.BoolP("verbose", "v", false, "Enable verbose output")
	listFormats := flagSet.Bool("listformats", false, "List all supported file formats")
	recursive := flagSet.BoolP("recursive", "r", false, "Descend into subdirectories of --dir")
	workers := flagSet.IntP("workers", "w", 0, "Files analyzed concurrently (default from config)")
	password := flagSet.StringP("password", "p", "", "Attempt keyed extraction with this password")
	jsonOutput := flagSet.Bool("json", false, "Print results as JSON on stdout")

	if err := flagSet.Parse(args); err != nil {
		return err
	}
	env, err := loadEnvironment(*configPath)
	if err != nil {
		return err
	}

	if *jsonOutput {
		out = os.Stderr
	}
	printBanner()

	registry := analyzer.NewRegistry()
	registerAnalyzers(registry, env.cfg)

	if *listFormats {
		fmt.Fprintln(out, "Supported file formats:")
		for _, format := range registry.GetSupportedFormats() {
			analyzers := registry.GetAnalyzersForFormat(format)
			names := make([]string, 0, len(analyzers))
			for _, a := range analyzers {
				names = append(names, a.Name())
			}
			fmt.Fprintf(out, "- %s: %s\n", format, strings.Join(names, ", "))
		}
		return nil
	}

	// Ensure we have at least one input method
	if *filePath == "" && *dirPath == "" && *urlPath == "" && *urlFilePath == "" {
		fmt.Fprintln(os.Stderr, "Usage:")
		fmt.Fprintln(os.Stderr, "  btp detect --file <filepath>")
		fmt.Fprintln(os.Stderr, "  btp detect --dir <directory> [--recursive] [--workers N]")
		fmt.Fprintln(os.Stderr, "  btp detect --url <url>")
		fmt.Fprintln(os.Stderr, "  btp detect --urlfile <file-with-urls>")
		flagSet.PrintDefaults()
		return errors.New("no input given")
	}

	downloadDir := *outputDir
	if downloadDir == "" {
		downloadDir = env.cfg.Scan.DownloadDir
	}
	if *workers <= 0 {
		*workers = env.cfg.Scan.Workers
	}

	files, err := collectInputs(*filePath, *dirPath, *urlPath, *urlFilePath, downloadDir, *recursive)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		printWarning("No image files to analyze")
		return nil
	}

	opts := detectOptions{
		format:   *format,
		verbose:  *verbose,
		password: *password,
		maxBits:  env.cfg.Extraction.MaxBits,
	}

	printInfo("Analyzing %s files with %d workers", humanize.Comma(int64(len(files))), min(*workers, len(files)))
	startTime := time.Now()
	var tracker *progress
	if len(files) > 1 {
		tracker = newProgress(out, len(files))
	}
	outcomes := analyzeFiles(files, registry, opts, *workers, tracker)

	var results []*models.AnalysisResult
	for _, o := range outcomes {
		if o.err != nil {
			printError("%s: %v", o.path, o.err)
			continue
		}
		results = append(results, o.result)
		if !*jsonOutput {
			displayAnalysisResult(o.result, *verbose)
		}
	}
	printInfo("Analysis completed in %v", time.Since(startTime).Round(time.Millisecond))

	if *jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(results); err != nil {
			return fmt.Errorf("failed to write JSON: %w", err)
		}
	}
	if len(files) > 1 {
		printSummary(summarize(results))
	}

	return nil
}

func registerAnalyzers(registry *analyzer.Registry, cfg *config.Config) {
	registry.Register(raster.NewRasterAnalyzerWithThresholds(cfg.Detection))
}

// collectInputs resolves every input flag to a list of local files, downloading URLs first
func collectInputs(filePath, dirPath, urlPath, urlFilePath, downloadDir string, recursive bool) ([]string, error) {
	var files, urls []string

	if urlFilePath != "" {
		printInfo("Processing URLs from file: %s", urlFilePath)
		lines, err := filehandler.ReadLines(urlFilePath)
		if err != nil {
			return nil, fmt.Errorf("failed to read URL file: %w", err)
		}
		urls = append(urls, lines...)
	}
	if urlPath != "" {
		urls = append(urls, urlPath)
	}

	for _, url := range urls {
		if !filehandler.IsURL(url) {
			printWarning("Skipping %q: not an http(s) URL", url)
			continue
		}
		printInfo("Downloading from %s", url)
		path, err := filehandler.DownloadFromURL(url, downloadDir)
		if err != nil {
			printError("Failed to download from %s: %v", url, err)
			continue
		}
		printSuccess("Downloaded to %s", path)
		files = append(files, path)
	}

	if filePath != "" {
		files = append(files, filePath)
	}

	if dirPath != "" {
		printInfo("Scanning directory: %s", dirPath)
		var (
			found []string
			err   error
		)
		if recursive {
			found, err = filehandler.FilesInDirectory(dirPath, filehandler.ImageExtensions())
		} else {
			found, err = filehandler.GatherFiles(dirPath)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read directory: %w", err)
		}
		printInfo("Found %s files to analyze", humanize.Comma(int64(len(found))))
		files = append(files, found...)
	}

	return files, nil
}

// analyzeFiles runs analyzeFile over files on a bounded pool of workers.
// Outcomes keep the order of files. tracker may be nil.
func analyzeFiles(files []string, registry *analyzer.Registry, opts detectOptions, workers int, tracker *progress) []outcome {
	outcomes := make([]outcome, len(files))
	if workers < 1 {
		workers = 1
	}
	workers = min(workers, len(files))

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				result, err := analyzeFile(files[i], registry, opts)
				outcomes[i] = outcome{path: files[i], result: result, err: err}
				tracker.fileDone(files[i])
			}
		}()
	}

	for i := range files {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return outcomes
}

// analyzeFile runs every analyzer registered for the file's format and keeps the highest score
func analyzeFile(filePath string, registry *analyzer.Registry, opts detectOptions) (*models.AnalysisResult, error) {
	// Detect file format
	format := opts.format
	if format == "auto" {
		detectedFormat, err := filehandler.DetectFileFormat(filePath)
		if err != nil {
			return nil, err
		}
		format = detectedFormat
	}

	// Get appropriate analyzers
	analyzers := registry.GetAnalyzersForFormat(format)
	if len(analyzers) == 0 {
		return nil, fmt.Errorf("no analyzers available for format: %s", format)
	}

	options := analyzer.AnalysisOptions{
		Verbose:  opts.verbose,
		Format:   format,
		Extract:  opts.password != "",
		Password: opts.password,
		MaxBits:  opts.maxBits,
	}

	var finalResult *models.AnalysisResult
	var errs []error
	for _, a := range analyzers {
		result, err := a.Analyze(filePath, options)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", a.Name(), err))
			continue
		}

		// Keep the result with highest detection score
		if finalResult == nil || result.DetectionScore > finalResult.DetectionScore {
			finalResult = result
		}
	}

	if finalResult == nil {
		return nil, errors.Join(errs...)
	}
	return finalResult, nil
}

func displayAnalysisResult(result *models.AnalysisResult, verbose bool) {
	fmt.Fprintln(out, "\n--- Analysis Results ---")

	// Basic info
	fmt.Fprintf(out, "File: %s\n", result.Filename)
	fmt.Fprintf(out, "Format: %s\n", result.FileType)
	if result.Image != nil {
		fmt.Fprintf(out, "Size: %s, %dx%d\n", result.Image.HumanSize, result.Image.Width, result.Image.Height)
	}

	report := result.Report
	if report != nil {
		switch report.Likelihood {
		case models.VeryLikely:
			printAlert("Steganography %s (score %d, %s confidence)", report.Likelihood, report.SuspicionScore, report.Confidence)
		case models.Likely:
			printWarning("Steganography %s (score %d, %s confidence)", report.Likelihood, report.SuspicionScore, report.Confidence)
		case models.Possible:
			printInfo("Steganography %s (score %d, %s confidence)", report.Likelihood, report.SuspicionScore, report.Confidence)
		default:
			printSuccess("%s (score %d, %s confidence)", report.Likelihood, report.SuspicionScore, report.Confidence)
		}

		fmt.Fprintf(out, "LSB ratio: %.2f%% (deviation %.2f%%)\n", report.LSBOnesRatioPercent, report.LSBDeviationPercent)
		fmt.Fprintf(out, "Sequential patterns: %s\n", humanize.Comma(int64(report.SequentialPatterns)))
		fmt.Fprintf(out, "Channel variance: %.2f\n", report.ChannelVarianceAvg)
		fmt.Fprintf(out, "Pixels analyzed: %s\n", humanize.Comma(int64(report.TotalPixels)))
	}

	// Algorithm detection
	if result.PossibleAlgorithm != "" {
		fmt.Fprintf(out, "Possible algorithm: %s\n", result.PossibleAlgorithm)
	}

	// Findings
	if len(result.Findings) > 0 {
		fmt.Fprintln(out, "\nFindings:")
		for i, finding := range result.Findings {
			fmt.Fprintf(out, "%d. %s (Confidence: %.2f)\n", i+1, finding.Description, finding.Confidence)
			if verbose && finding.Details != "" {
				fmt.Fprintf(out, "   Details: %s\n", finding.Details)
			}
		}
	}

	if message, ok := result.Details["extracted_message"]; ok {
		printAlert("Hidden message: %v", message)
	} else if reason, ok := result.Details["extraction_error"]; ok && verbose {
		printInfo("Extraction failed: %v", reason)
	}

	// Recommendations
	if len(result.Recommendations) > 0 {
		fmt.Fprintln(out, "\nRecommendations:")
		for i, rec := range result.Recommendations {
			fmt.Fprintf(out, "%d. %s\n", i+1, rec)
		}
	}

	fmt.Fprintln(out, "-------------------------")
}

// summary buckets the results of a batch run
type summary struct {
	total      int
	clean      int
	suspicious int
	likely     int
	confirmed  int
	flagged    []*models.AnalysisResult
}

// summarize buckets results by likelihood. A recovered message counts as confirmed.
func summarize(results []*models.AnalysisResult) summary {
	s := summary{total: len(results)}

	for _, result := range results {
		if _, ok := result.Details["extracted_message"]; ok {
			s.confirmed++
			s.flagged = append(s.flagged, result)
			continue
		}
		if result.Report == nil {
			continue
		}

		switch result.Report.Likelihood {
		case models.VeryLikely:
			s.likely++
			s.flagged = append(s.flagged, result)
		case models.Likely, models.Possible:
			s.suspicious++
		default:
			s.clean++
		}
	}

	return s
}

func printSummary(s summary) {
	fmt.Fprintln(out, "\n=== Analysis Summary ===")
	fmt.Fprintf(out, "Total files analyzed: %s\n", humanize.Comma(int64(s.total)))
	fmt.Fprintf(out, "%s Clean files: %d\n", successColor("[+]"), s.clean)

	if s.suspicious > 0 {
		fmt.Fprintf(out, "%s Suspicious files: %d\n", warningColor("[!]"), s.suspicious)
	}
	if s.likely > 0 {
		fmt.Fprintf(out, "%s Very likely steganography: %d\n", alertColor("[!!!]"), s.likely)
	}
	if s.confirmed > 0 {
		fmt.Fprintf(out, "%s Messages recovered: %d\n", alertColor("[!!!]"), s.confirmed)
	}

	if len(s.flagged) > 0 {
		fmt.Fprintln(out, "\nFiles with high probability of steganography:")
		for _, result := range s.flagged {
			fmt.Fprintf(out, "- %s (Score: %.2f)\n", result.Filename, result.DetectionScore)
		}
	}
}
