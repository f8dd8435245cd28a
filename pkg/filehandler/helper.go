package filehandler

import (
	"bufio"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// GatherFiles collects the image files in a directory (non-recursive)
func GatherFiles(dirPath string) ([]string, error) {
	var files []string

	entries, err := os.ReadDir(dirPath)
	if err != nil {
		return nil, err
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		filePath := filepath.Join(dirPath, entry.Name())
		if IsImageFile(filePath) {
			files = append(files, filePath)
		}
	}

	return files, nil
}

// ReadLines reads a file and returns its lines, skipping blanks and # comments
func ReadLines(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}

	return lines, scanner.Err()
}

var downloadClient = &http.Client{
	Timeout: 60 * time.Second,
}

// DownloadFromURL downloads a file from a URL to the specified directory
func DownloadFromURL(rawURL, outputDir string) (string, error) {
	resp, err := downloadClient.Get(rawURL)
	if err != nil {
		return "", fmt.Errorf("failed to download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("bad status: %s", resp.Status)
	}
	if resp.ContentLength > MaxFileSize {
		return "", fmt.Errorf("file too large (max 100MB)")
	}

	// Extract filename from URL path, ignoring any query string
	filename := "downloaded_file"
	if u, err := url.Parse(rawURL); err == nil {
		if base := path.Base(u.Path); base != "." && base != "/" && base != "" {
			filename = base
		}
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", err
	}

	outputPath := filepath.Join(outputDir, filename)
	out, err := os.Create(outputPath)
	if err != nil {
		return "", err
	}
	defer out.Close()

	// Copy at most MaxFileSize+1 bytes so an unannounced oversize body is caught
	n, err := io.Copy(out, io.LimitReader(resp.Body, MaxFileSize+1))
	if err != nil {
		return "", fmt.Errorf("failed to save downloaded file: %w", err)
	}
	if n > MaxFileSize {
		return "", fmt.Errorf("file too large (max 100MB)")
	}

	return outputPath, nil
}

// IsImageFile checks if a file is an image based on extension
func IsImageFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	_, ok := SupportedImageFormats[ext]
	return ok
}
