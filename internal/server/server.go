package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/rezonia/einvoice-codec/internal/config"
	"github.com/rezonia/einvoice-codec/internal/logger"
	"github.com/rezonia/einvoice-codec/internal/model"
	xmlparser "github.com/rezonia/einvoice-codec/internal/parser/xml"
	"github.com/rezonia/einvoice-codec/internal/pdfa"
	"github.com/rezonia/einvoice-codec/internal/processor"
)

// Response headers of the export and embed endpoints
const (
	HeaderRequestID   = "X-Request-ID"
	HeaderDiagnostics = "X-Diagnostics"
	HeaderDigest      = "X-Document-Digest"
)

const loggerKey = "logger"

// Config holds server configuration
type Config struct {
	Address      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	MaxBodyBytes int64
	Debug        bool
	Codec        config.Codec
	Logger       zerolog.Logger
}

// Server represents the HTTP API server
type Server struct {
	config   *Config
	router   *gin.Engine
	pipeline *processor.Pipeline
	http     *http.Server
}

// NewServer creates a new API server
func NewServer(config *Config) *Server {
	if !config.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())

	s := &Server{
		config: config,
		router: router,
		pipeline: processor.NewPipeline(
			processor.WithConfig(config.Codec),
			processor.WithLogger(config.Logger),
		),
	}
	router.Use(s.requestContext)

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)

	v1 := s.router.Group("/api/v1")
	{
		v1.POST("/export/facturx", s.handleExport(model.FormatFacturX))
		v1.POST("/export/ubl", s.handleExport(model.FormatUBL))
		v1.POST("/embed", s.handleEmbed)
		v1.POST("/import", s.handleImport)
		v1.POST("/detect", s.handleDetect)
		v1.POST("/validate", s.handleValidate)
	}
}

// Run starts the HTTP server
func (s *Server) Run() error {
	s.http = &http.Server{
		Addr:         s.config.Address,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}
	err := s.http.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops a running server, waiting for in-flight requests
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

// Handler returns the http.Handler for use with custom servers
func (s *Server) Handler() http.Handler {
	return s.router
}

// requestContext assigns a request id, bounds the body size and logs the
// request once it is served
func (s *Server) requestContext(c *gin.Context) {
	start := time.Now()

	requestID := c.GetHeader(HeaderRequestID)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Header(HeaderRequestID, requestID)

	log := logger.WithRequestID(s.config.Logger, requestID)
	c.Set(loggerKey, log)

	if s.config.MaxBodyBytes > 0 && c.Request.Body != nil {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.config.MaxBodyBytes)
	}

	c.Next()

	log.Info().
		Str("method", c.Request.Method).
		Str("path", c.Request.URL.Path).
		Int("status", c.Writer.Status()).
		Dur("latency", time.Since(start)).
		Msg("Request served")
}

func requestLogger(c *gin.Context) zerolog.Logger {
	if v, ok := c.Get(loggerKey); ok {
		if l, ok := v.(zerolog.Logger); ok {
			return l
		}
	}
	return zerolog.Nop()
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleExport(format model.Format) gin.HandlerFunc {
	return func(c *gin.Context) {
		var inv model.Invoice
		if err := c.ShouldBindJSON(&inv); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid invoice JSON", Details: err.Error()})
			return
		}

		result, err := s.pipeline.Export(&inv, format)
		if err != nil {
			requestLogger(c).Error().Err(err).Str("format", format.String()).Msg("Export failed")
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "export failed", Details: err.Error()})
			return
		}
		if result.Blocked() {
			c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
				Error:       model.NewValidationFailure(result.Diagnostics).Error(),
				Diagnostics: result.Diagnostics,
			})
			return
		}

		setDiagnostics(c, result.Diagnostics)
		c.Header(HeaderDigest, result.Digest)
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
		c.Data(http.StatusOK, "application/xml; charset=utf-8", result.XML)
	}
}

func (s *Server) handleEmbed(c *gin.Context) {
	pdf, err := formFile(c, "pdf")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing pdf part", Details: err.Error()})
		return
	}
	xml, err := formFile(c, "xml")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing xml part", Details: err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Minute)
	defer cancel()

	result, err := s.pipeline.Embed(ctx, pdf, xml, c.PostForm("level"))
	if err != nil {
		var pkgErr *pdfa.PackageError
		if errors.As(err, &pkgErr) && (pkgErr.Code == pdfa.ErrCodeNotPDF || pkgErr.Code == pdfa.ErrCodeInvalidLevel) {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid embed request", Details: err.Error()})
			return
		}
		requestLogger(c).Error().Err(err).Msg("Embedding failed")
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: "embedding failed", Details: err.Error()})
		return
	}

	setDiagnostics(c, result.Diagnostics)
	c.Header("Content-Disposition", `attachment; filename="factur-x.pdf"`)
	c.Data(http.StatusOK, "application/pdf", result.PDF)
}

func (s *Server) handleImport(c *gin.Context) {
	body, ok := readBody(c)
	if !ok {
		return
	}

	direction := xmlparser.DirectionPurchase
	switch strings.ToLower(c.Query("direction")) {
	case "", string(xmlparser.DirectionPurchase):
	case string(xmlparser.DirectionSale):
		direction = xmlparser.DirectionSale
	default:
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "direction must be purchase or sale"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	result, err := s.pipeline.Import(ctx, body, xmlparser.Resolvers{}, direction)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: "import failed", Details: err.Error()})
		return
	}

	c.JSON(http.StatusOK, ImportResponse{
		Invoice:    result.Invoice,
		Format:     result.Format.String(),
		Container:  result.Container.String(),
		Attachment: result.Attachment,
		Logs:       result.Logs,
	})
}

func (s *Server) handleDetect(c *gin.Context) {
	body, ok := readBody(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, DetectResponse{
		Format:    s.pipeline.DocumentFormat(body).String(),
		Container: processor.DetectFormat(body).String(),
		Size:      len(body),
	})
}

func (s *Server) handleValidate(c *gin.Context) {
	format, err := parseFormat(c.DefaultQuery("format", "facturx"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	var inv model.Invoice
	if err := c.ShouldBindJSON(&inv); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid invoice JSON", Details: err.Error()})
		return
	}

	diags, err := s.pipeline.Validate(&inv, format)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	if diags == nil {
		diags = model.Diagnostics{}
	}

	c.JSON(http.StatusOK, ValidationResponse{
		Valid:       !diags.HasBlocking(),
		Format:      format.String(),
		Diagnostics: diags,
	})
}

// Helper functions

func readBody(c *gin.Context) ([]byte, bool) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "failed to read request body", Details: err.Error()})
		return nil, false
	}
	if len(body) == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "empty request body"})
		return nil, false
	}
	return body, true
}

func formFile(c *gin.Context, field string) ([]byte, error) {
	header, err := c.FormFile(field)
	if err != nil {
		return nil, err
	}
	return readPart(header)
}

func readPart(header *multipart.FileHeader) ([]byte, error) {
	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func setDiagnostics(c *gin.Context, diags model.Diagnostics) {
	if diags == nil {
		diags = model.Diagnostics{}
	}
	encoded, err := json.Marshal(diags)
	if err != nil {
		return
	}
	c.Header(HeaderDiagnostics, string(encoded))
}

func parseFormat(s string) (model.Format, error) {
	switch strings.ToLower(s) {
	case "facturx", "factur-x", "cii":
		return model.FormatFacturX, nil
	case "ubl", "ubl_bis3":
		return model.FormatUBL, nil
	default:
		return model.FormatUnknown, fmt.Errorf("unsupported format %q, expected facturx or ubl", s)
	}
}
