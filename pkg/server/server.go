// Package server exposes encode, decode and detect over HTTP.
//
// Every endpoint takes a multipart form with the image in the "image" field.
// Encoded images are always returned as PNG.
package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin"

	"BehindThePicture/pkg/analyzer"
	"BehindThePicture/pkg/analyzer/image/raster"
	"BehindThePicture/pkg/cipher"
	"BehindThePicture/pkg/config"
	"BehindThePicture/pkg/embedder"
	embedlsb "BehindThePicture/pkg/embedder/image/lsb"
	"BehindThePicture/pkg/extractor"
	extractlsb "BehindThePicture/pkg/extractor/image/lsb"
	"BehindThePicture/pkg/filehandler"
	"BehindThePicture/pkg/models"
)

var (
	errInvalidImage   = errors.New("invalid image upload")
	errInvalidMode    = errors.New("invalid encryption mode")
	errUploadTooLarge = errors.New("upload too large")
)

const shutdownTimeout = 10 * time.Second

// Server is the HTTP gateway
type Server struct {
	addr      string
	maxUpload int64
	maxBits   int
	logger    *slog.Logger
	engine    *gin.Engine

	analyzer  *raster.RasterAnalyzer
	embedder  *embedlsb.LSBEmbedder
	extractor *extractlsb.LSBExtractor
}

// ModeInfo describes one selectable encryption mode
type ModeInfo struct {
	Mode  string `json:"mode"`
	Label string `json:"label"`
}

// New builds a server from cfg. A nil logger selects slog.Default().
func New(cfg *config.Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	gin.SetMode(cfg.Server.Mode)

	s := &Server{
		addr:      cfg.Server.Addr,
		maxUpload: cfg.Server.MaxUploadBytes,
		maxBits:   cfg.Extraction.MaxBits,
		logger:    logger,
		analyzer:  raster.NewRasterAnalyzerWithThresholds(cfg.Detection),
		embedder:  embedlsb.NewLSBEmbedder(),
		extractor: extractlsb.NewLSBExtractor(),
	}

	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger(logger))

	engine.GET("/healthz", s.handleHealth)

	api := engine.Group("/api")
	api.GET("/modes", s.handleModes)

	uploads := api.Group("", limitUpload(s.maxUpload))
	uploads.POST("/encode", s.handleEncode)
	uploads.POST("/decode", s.handleDecode)
	uploads.POST("/detect", s.handleDetect)

	s.engine = engine
	return s
}

// Handler returns the HTTP handler of the server
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	s.logger.Info("http gateway listening", "addr", s.addr, "max_upload", humanize.IBytes(uint64(s.maxUpload)))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http gateway failed: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down http gateway")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleModes(c *gin.Context) {
	modes := make([]ModeInfo, 0, len(cipher.Modes()))
	for _, m := range cipher.Modes() {
		modes = append(modes, ModeInfo{Mode: string(m), Label: m.Label()})
	}
	c.JSON(http.StatusOK, gin.H{"modes": modes})
}

// handleEncode hides the message in the uploaded image and returns the PNG
func (s *Server) handleEncode(c *gin.Context) {
	img, info, err := s.readImage(c)
	if err != nil {
		s.fail(c, err)
		return
	}

	mode, err := cipher.ParseMode(c.DefaultPostForm("encryption", string(cipher.ModeA)))
	if err != nil {
		s.fail(c, fmt.Errorf("%w: %v", errInvalidMode, err))
		return
	}

	out, result, err := s.embedder.EmbedImage(img, embedder.EmbedOptions{
		Password:  c.PostForm("password"),
		Mode:      mode,
		Message:   c.PostForm("message"),
		ScanLimit: s.maxBits,
		Logger:    s.logger,
	})
	if err != nil {
		s.fail(c, err)
		return
	}

	var body bytes.Buffer
	if err := filehandler.EncodePNG(&body, out); err != nil {
		s.fail(c, err)
		return
	}

	name := filepath.Base(filehandler.StegoOutputPath(info.Name))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Header("X-Stego-Status", result.Status)
	c.Header("X-Stego-Usage", fmt.Sprintf("%.2f", result.UsagePercent))
	c.Data(http.StatusOK, "image/png", body.Bytes())
}

// handleDecode recovers the message hidden in the uploaded image
func (s *Server) handleDecode(c *gin.Context) {
	img, info, err := s.readImage(c)
	if err != nil {
		s.fail(c, err)
		return
	}

	result, err := s.extractor.ExtractFromImage(img, extractor.ExtractionOptions{
		Password: c.PostForm("password"),
		MaxBits:  s.maxBits,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	result.Filename = info.Name
	result.FileType = info.Format

	c.JSON(http.StatusOK, result)
}

// handleDetect scores the uploaded image. A password also attempts extraction.
func (s *Server) handleDetect(c *gin.Context) {
	img, info, err := s.readImage(c)
	if err != nil {
		s.fail(c, err)
		return
	}

	password := c.PostForm("password")
	result, err := s.analyzer.AnalyzeImage(img, analyzer.AnalysisOptions{
		Format:   info.Format,
		Extract:  password != "",
		Password: password,
		MaxBits:  s.maxBits,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	result.Filename = info.Name
	result.Image = info

	c.JSON(http.StatusOK, result)
}

// readImage decodes the "image" form file
func (s *Server) readImage(c *gin.Context) (image.Image, *models.ImageInfo, error) {
	header, err := c.FormFile("image")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, nil, fmt.Errorf("%w: limit is %s", errUploadTooLarge, humanize.IBytes(uint64(s.maxUpload)))
		}
		return nil, nil, fmt.Errorf("%w: image field: %v", models.ErrMissingInput, err)
	}

	img, format, err := decodeUpload(header)
	if err != nil {
		return nil, nil, err
	}
	return img, filehandler.DescribeImage(header.Filename, header.Size, format, img), nil
}

func decodeUpload(header *multipart.FileHeader) (image.Image, string, error) {
	file, err := header.Open()
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", errInvalidImage, err)
	}
	defer file.Close()

	img, format, err := filehandler.DecodeImage(file)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", errInvalidImage, err)
	}
	return img, format, nil
}

// fail writes err as a JSON body with the status it maps to
func (s *Server) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", c.Request.URL.Path, "error", err)
	} else {
		s.logger.Debug("request rejected", "path", c.Request.URL.Path, "status", status, "error", err)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

// statusFor maps pipeline errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrMissingInput),
		errors.Is(err, models.ErrUnsupportedCharacter),
		errors.Is(err, errInvalidImage),
		errors.Is(err, errInvalidMode):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrMessageTooLong),
		errors.Is(err, models.ErrCapacityExceeded),
		errors.Is(err, errUploadTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, models.ErrInvalidEnvelope),
		errors.Is(err, models.ErrDecryptionFailed),
		errors.Is(err, models.ErrNoMessageFound):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// limitUpload rejects bodies larger than limit before they are parsed
func limitUpload(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > limit {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{
				"error": fmt.Sprintf("%v: limit is %s", errUploadTooLarge, humanize.IBytes(uint64(limit))),
			})
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		c.Next()
	}
}

// requestLogger logs one line per request
func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
			"client", c.ClientIP(),
		)
	}
}
