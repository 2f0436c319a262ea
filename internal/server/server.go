// Package server exposes the clearance engine's local operations over HTTP.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/rezonia/einvoice-clearance/internal/codec"
	"github.com/rezonia/einvoice-clearance/internal/model"
	"github.com/rezonia/einvoice-clearance/internal/sdk"
	"github.com/rezonia/einvoice-clearance/internal/ubl"
)

// Config holds server configuration
type Config struct {
	Address      string
	SDKPath      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	Debug        bool
}

// Server represents the HTTP API server
type Server struct {
	config  *Config
	router  *gin.Engine
	gateway *sdk.Gateway
	log     zerolog.Logger
}

// NewServer creates a new API server. The validate endpoint requires a
// configured SDK binary; everything else is local.
func NewServer(config *Config, log zerolog.Logger) *Server {
	if !config.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	if config.Debug {
		router.Use(gin.Logger())
	}

	s := &Server{
		config: config,
		router: router,
		log:    log,
	}
	if config.SDKPath != "" {
		s.gateway = sdk.NewGateway(config.SDKPath, sdk.WithLogger(log))
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)

	v1 := s.router.Group("/api/v1")
	{
		v1.POST("/invoices/build", s.handleBuild)
		v1.POST("/invoices/parse", s.handleParse)
		v1.POST("/invoices/qr", s.handleExtractQR)
		v1.POST("/invoices/validate", s.handleValidate)

		v1.POST("/envelope/encode", s.handleEncode)
		v1.POST("/envelope/decode", s.handleDecode)
		v1.POST("/envelope/verify", s.handleVerifyHash)
	}
}

// Run starts the HTTP server
func (s *Server) Run() error {
	srv := &http.Server{
		Addr:         s.config.Address,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}
	return srv.ListenAndServe()
}

// Handler returns the http.Handler for use with custom servers
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleBuild(c *gin.Context) {
	var spec model.InvoiceSpec
	if err := c.ShouldBindJSON(&spec); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid invoice spec: " + err.Error()})
		return
	}

	inv, err := model.New(spec)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	doc, err := ubl.Build(inv)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, BuildResponse{
		Invoice:  inv,
		Document: string(doc),
	})
}

func (s *Server) handleParse(c *gin.Context) {
	body, ok := rawBody(c)
	if !ok {
		return
	}

	inv, err := ubl.Parse(body)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, inv)
}

func (s *Server) handleExtractQR(c *gin.Context) {
	body, ok := rawBody(c)
	if !ok {
		return
	}

	qr, found, err := ubl.ExtractQR(body)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, QRResponse{Found: found, Payload: string(qr)})
}

func (s *Server) handleValidate(c *gin.Context) {
	if s.gateway == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no SDK binary configured"})
		return
	}

	body, ok := rawBody(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Minute)
	defer cancel()

	outcome, err := s.gateway.Validate(ctx, body)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, ValidateResponse{
		Passed:      outcome.Passed,
		Diagnostics: outcome.Diagnostics,
	})
}

func (s *Server) handleEncode(c *gin.Context) {
	body, ok := rawBody(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, EnvelopeResponse{
		Invoice:     codec.EncodeEnvelope(body),
		InvoiceHash: codec.ComputeHash(body),
	})
}

func (s *Server) handleDecode(c *gin.Context) {
	var req EnvelopeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	raw, err := codec.DecodeEnvelope(req.Invoice)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "application/xml", raw)
}

func (s *Server) handleVerifyHash(c *gin.Context) {
	var req EnvelopeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.InvoiceHash == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invoiceHash is required"})
		return
	}

	raw, err := codec.DecodeEnvelope(req.Invoice)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	match := codec.VerifyHash(raw, req.InvoiceHash)
	c.JSON(http.StatusOK, VerifyHashResponse{
		Match:    match,
		Computed: codec.ComputeHash(raw),
		Claimed:  req.InvoiceHash,
	})
}

func rawBody(c *gin.Context) ([]byte, bool) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
		return nil, false
	}
	if len(body) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "empty request body"})
		return nil, false
	}
	return body, true
}
