// Package web exposes the analysis engine over HTTP: market data, technical
// and scientific reports, anomaly summaries, portfolio analytics and chart
// pages.
package web

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/vadiminshakov/coinlens/internal/analysis"
	"github.com/vadiminshakov/coinlens/internal/domain"
	seriesstore "github.com/vadiminshakov/coinlens/internal/storage/series"
	usersstore "github.com/vadiminshakov/coinlens/internal/storage/users"
)

// SeriesReader provides stored price history.
type SeriesReader interface {
	Get(coinID string) (domain.PriceSeries, error)
	Coins() []string
}

// UserReader provides stored exchange accounts.
type UserReader interface {
	Get(username string) (domain.User, error)
	All() ([]domain.User, error)
}

// coinAliases maps base currency symbols to the common coin names used in
// portfolio trades, so "bitcoin" resolves against the BTC_USDT series.
var coinAliases = map[string]string{
	"BTC":  "bitcoin",
	"ETH":  "ethereum",
	"SOL":  "solana",
	"BNB":  "binancecoin",
	"XRP":  "ripple",
	"ADA":  "cardano",
	"DOGE": "dogecoin",
}

// Server is the HTTP API over the stores and the analysis engine.
type Server struct {
	addr   string
	engine *analysis.Engine
	series SeriesReader
	users  UserReader
	logger *zap.Logger
	router *gin.Engine
}

// NewServer wires the routes.
func NewServer(addr string, engine *analysis.Engine, series SeriesReader, users UserReader, logger *zap.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	s := &Server{
		addr:   addr,
		engine: engine,
		series: series,
		users:  users,
		logger: logger,
		router: router,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.router.GET("/", s.handleIndex)

	api := s.router.Group("/api")
	api.GET("/market/:coin", s.handleMarket)
	api.GET("/analysis/:coin", s.handleAnalysis)
	api.GET("/anomalies/:coin", s.handleAnomalies)
	api.GET("/report/:coin", s.handleReport)
	api.GET("/correlation", s.handleCorrelation)
	api.GET("/users", s.handleUsers)
	api.GET("/users/:name/performance", s.handleUserPerformance)
	api.GET("/exchange/overview", s.handleExchangeOverview)

	s.router.GET("/charts/:coin", s.handleChart)
}

// Start runs the HTTP server and shuts it down when ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleIndex(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": "coinlens",
		"coins":   s.series.Coins(),
		"endpoints": []string{
			"/api/market/:coin",
			"/api/analysis/:coin",
			"/api/anomalies/:coin",
			"/api/report/:coin",
			"/api/correlation?coins=a,b",
			"/api/users",
			"/api/users/:name/performance",
			"/api/exchange/overview",
			"/charts/:coin",
		},
	})
}

func (s *Server) handleMarket(c *gin.Context) {
	series, ok := s.loadSeries(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, series)
}

func (s *Server) handleAnalysis(c *gin.Context) {
	series, ok := s.loadSeries(c)
	if !ok {
		return
	}

	report, err := s.engine.FullAnalysis(series)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) handleAnomalies(c *gin.Context) {
	series, ok := s.loadSeries(c)
	if !ok {
		return
	}

	report, err := s.engine.AnomalySummary(series)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) handleReport(c *gin.Context) {
	series, ok := s.loadSeries(c)
	if !ok {
		return
	}

	report, err := s.engine.GenerateScientificReport(series)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) handleCorrelation(c *gin.Context) {
	coins := s.series.Coins()
	if param := c.Query("coins"); param != "" {
		coins = strings.Split(param, ",")
	}

	loaded := make(map[string]domain.PriceSeries, len(coins))
	for _, coin := range coins {
		coin = strings.TrimSpace(coin)
		if coin == "" {
			continue
		}
		series, err := s.series.Get(coin)
		if err != nil {
			s.fail(c, err)
			return
		}
		loaded[coin] = series
	}

	matrix, err := analysis.CorrelationMatrix(loaded)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"correlation": matrix})
}

func (s *Server) handleUsers(c *gin.Context) {
	all, err := s.users.All()
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": all})
}

func (s *Server) handleUserPerformance(c *gin.Context) {
	user, err := s.users.Get(c.Param("name"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, analysis.AnalyzeUserPerformance(user, s.currentPrices()))
}

func (s *Server) handleExchangeOverview(c *gin.Context) {
	all, err := s.users.All()
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, analysis.CalculateExchangeOverview(all, s.currentPrices()))
}

// currentPrices indexes the latest stored price under every name a trade may
// use: the pair string, the base symbol and its common coin name.
func (s *Server) currentPrices() map[string]float64 {
	prices := make(map[string]float64)
	for _, coin := range s.series.Coins() {
		series, err := s.series.Get(coin)
		if err != nil {
			continue
		}
		last := series.LastPrice()
		prices[coin] = last

		base := coin
		if idx := strings.Index(coin, "_"); idx > 0 {
			base = coin[:idx]
		}
		prices[strings.ToLower(base)] = last
		if alias, ok := coinAliases[base]; ok {
			prices[alias] = last
		}
	}
	return prices
}

func (s *Server) loadSeries(c *gin.Context) (domain.PriceSeries, bool) {
	series, err := s.series.Get(c.Param("coin"))
	if err != nil {
		s.fail(c, err)
		return domain.PriceSeries{}, false
	}
	return series, true
}

// fail maps engine and store errors onto HTTP statuses: missing data is 404,
// precondition violations are 422, everything else is 500.
func (s *Server) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, seriesstore.ErrNotFound) || errors.Is(err, usersstore.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, analysis.ErrInsufficientData) ||
		errors.Is(err, analysis.ErrEmptySeriesSet) ||
		errors.Is(err, domain.ErrEmptySeries):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		s.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
