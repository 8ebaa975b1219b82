package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"CryptoGraph/internal/advisor"
	"CryptoGraph/internal/collector"
	"CryptoGraph/internal/dashboard"
	"CryptoGraph/internal/restclient"
	"CryptoGraph/internal/search"
	"CryptoGraph/internal/selection"
)

// Server exposes the dashboard over a JSON HTTP API.
type Server struct {
	dash *dashboard.Dashboard
	log  logrus.FieldLogger
}

func New(d *dashboard.Dashboard, log logrus.FieldLogger) *Server {
	return &Server{dash: d, log: log}
}

func (s *Server) Router() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLog())

	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })

	api := r.Group("/api")

	api.GET("/coins", s.handleCoinsList)
	api.PUT("/search", s.handleSearchSet)
	api.DELETE("/search", s.handleSearchClear)

	coin := api.Group("/coins/:id")
	coin.GET("", s.handleCoinDetails)
	coin.GET("/price", s.handleCoinPrice)
	coin.GET("/ohlc", s.handleCoinOHLC)

	sel := api.Group("/selection")
	sel.GET("", s.handleSelectionList)
	sel.DELETE("", s.handleSelectionClear)
	sel.POST("/:id/toggle", s.handleSelectionToggle)
	sel.DELETE("/:id", s.handleSelectionRemove)

	api.GET("/series/:id", s.handleSeries)
	api.GET("/series/:id/history", s.handleSeriesHistory)
	api.GET("/reports", s.handleReports)

	api.GET("/recommendations/:id", s.handleRecommend)
	api.GET("/recommendations/:id/history", s.handleRecommendationHistory)

	return r
}

// Run serves the API on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", addr).Info("http api listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.FullPath(),
			"status":  c.Writer.Status(),
			"elapsed": time.Since(start),
		}).Debug("http request")
	}
}

func (s *Server) handleCoinsList(c *gin.Context) {
	query, explicit := c.GetQuery("search")
	if !explicit {
		c.JSON(http.StatusOK, gin.H{"query": s.dash.Search().Query(), "coins": s.dash.FilteredCoins()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"query": query, "coins": search.Match(s.dash.Coins(), query)})
}

type searchRequest struct {
	Query string `json:"query"`
}

func (s *Server) handleSearchSet(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	s.dash.Search().Set(req.Query)
	c.JSON(http.StatusOK, gin.H{"query": req.Query})
}

func (s *Server) handleSearchClear(c *gin.Context) {
	s.dash.Search().Clear()
	c.JSON(http.StatusOK, gin.H{"query": ""})
}

func (s *Server) handleCoinDetails(c *gin.Context) {
	d, err := s.dash.Details(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.upstreamError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (s *Server) handleCoinPrice(c *gin.Context) {
	p, err := s.dash.Price(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.upstreamError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) handleCoinOHLC(c *gin.Context) {
	days, err := strconv.Atoi(c.DefaultQuery("days", "1"))
	if err != nil || days <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "days must be a positive integer"})
		return
	}
	bars, err := s.dash.OHLC(c.Request.Context(), c.Param("id"), days)
	if err != nil {
		s.upstreamError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"coin_id": c.Param("id"), "days": days, "samples": bars})
}

func (s *Server) selectionBody() gin.H {
	return gin.H{"selected": s.dash.Selection(), "max": selection.MaxSelected}
}

func (s *Server) handleSelectionList(c *gin.Context) {
	c.JSON(http.StatusOK, s.selectionBody())
}

func (s *Server) handleSelectionToggle(c *gin.Context) {
	added, err := s.dash.Toggle(c.Param("id"))
	switch {
	case errors.Is(err, selection.ErrOverflow):
		body := s.selectionBody()
		body["error"] = "selection is full, remove a coin first"
		c.JSON(http.StatusConflict, body)
		return
	case errors.Is(err, selection.ErrEmptyID):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	body := s.selectionBody()
	body["added"] = added
	c.JSON(http.StatusOK, body)
}

func (s *Server) handleSelectionRemove(c *gin.Context) {
	if !s.dash.Remove(c.Param("id")) {
		c.JSON(http.StatusNotFound, gin.H{"error": "coin is not selected"})
		return
	}
	c.JSON(http.StatusOK, s.selectionBody())
}

func (s *Server) handleSelectionClear(c *gin.Context) {
	removed := s.dash.Clear()
	body := s.selectionBody()
	body["removed"] = removed
	c.JSON(http.StatusOK, body)
}

func (s *Server) handleSeries(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"coin_id": c.Param("id"), "samples": s.dash.Series(c.Param("id"))})
}

func (s *Server) handleSeriesHistory(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	samples, err := s.dash.History(c.Param("id"), limit)
	if err != nil {
		s.log.WithError(err).Error("read sample history")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "history unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"coin_id": c.Param("id"), "samples": samples})
}

func (s *Server) handleReports(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"reports": s.dash.Reports()})
}

func (s *Server) handleRecommend(c *gin.Context) {
	data, rec, err := s.dash.Recommend(c.Request.Context(), c.Param("id"))
	switch {
	case errors.Is(err, advisor.ErrNotConfigured):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "recommendations are not configured"})
		return
	case errors.Is(err, advisor.ErrInvalidResponse):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	case err != nil:
		s.upstreamError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": data, "recommendation": rec})
}

func (s *Server) handleRecommendationHistory(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	recs, err := s.dash.RecommendationHistory(c.Param("id"), limit)
	if err != nil {
		s.log.WithError(err).Error("read recommendation history")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "history unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"coin_id": c.Param("id"), "recommendations": recs})
}

// upstreamError maps collector failures onto HTTP statuses.
func (s *Server) upstreamError(c *gin.Context, err error) {
	var se *restclient.StatusError
	switch {
	case errors.Is(err, collector.ErrEmptyID):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, collector.ErrNoMarketData), errors.Is(err, collector.ErrNoPrice):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.As(err, &se) && se.Status == http.StatusNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": "coin not found"})
	default:
		s.log.WithError(err).WithField("path", c.FullPath()).Warn("upstream request failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "upstream request failed"})
	}
}
