package analysis

import (
	"time"

	"github.com/pkg/errors"

	"github.com/vadiminshakov/coinlens/internal/domain"
)

// minReportRows is the minimum series length for the scientific report.
const minReportRows = 30

// Config holds the engine parameters. Zero fields are filled from defaults
// by NewEngine.
type Config struct {
	ShortPeriod     int
	LongPeriod      int
	RSIPeriod       int
	MACDFast        int
	MACDSlow        int
	MACDSignal      int
	BollingerPeriod int
	BollingerK      float64
	RiskFreeRate    float64
	SharpePeriod    int
	LevelsPeriod    int
	Confidence      float64
	Anomaly         AnomalyConfig
}

// DefaultConfig returns the standard parameter set: SMA/EMA 7 and 30, RSI 14,
// MACD 12/26/9, Bollinger 20 at 2 sigmas, Sharpe over 30 days at a 2% annual
// risk-free rate, 95% VaR confidence.
func DefaultConfig() Config {
	return Config{
		ShortPeriod:     7,
		LongPeriod:      30,
		RSIPeriod:       14,
		MACDFast:        12,
		MACDSlow:        26,
		MACDSignal:      9,
		BollingerPeriod: 20,
		BollingerK:      2,
		RiskFreeRate:    0.02,
		SharpePeriod:    30,
		LevelsPeriod:    30,
		Confidence:      0.95,
		Anomaly:         DefaultAnomalyConfig(),
	}
}

// Engine computes analysis reports over price series. It is stateless and
// safe for concurrent use across distinct series.
type Engine struct {
	cfg Config
}

// NewEngine creates an engine, filling unset config fields from defaults.
func NewEngine(cfg Config) *Engine {
	def := DefaultConfig()
	if cfg.ShortPeriod == 0 {
		cfg.ShortPeriod = def.ShortPeriod
	}
	if cfg.LongPeriod == 0 {
		cfg.LongPeriod = def.LongPeriod
	}
	if cfg.RSIPeriod == 0 {
		cfg.RSIPeriod = def.RSIPeriod
	}
	if cfg.MACDFast == 0 {
		cfg.MACDFast = def.MACDFast
	}
	if cfg.MACDSlow == 0 {
		cfg.MACDSlow = def.MACDSlow
	}
	if cfg.MACDSignal == 0 {
		cfg.MACDSignal = def.MACDSignal
	}
	if cfg.BollingerPeriod == 0 {
		cfg.BollingerPeriod = def.BollingerPeriod
	}
	if cfg.BollingerK == 0 {
		cfg.BollingerK = def.BollingerK
	}
	if cfg.RiskFreeRate == 0 {
		cfg.RiskFreeRate = def.RiskFreeRate
	}
	if cfg.SharpePeriod == 0 {
		cfg.SharpePeriod = def.SharpePeriod
	}
	if cfg.LevelsPeriod == 0 {
		cfg.LevelsPeriod = def.LevelsPeriod
	}
	if cfg.Confidence == 0 {
		cfg.Confidence = def.Confidence
	}
	if cfg.Anomaly == (AnomalyConfig{}) {
		cfg.Anomaly = def.Anomaly
	}
	return &Engine{cfg: cfg}
}

// IndicatorBlock is the last-row snapshot of the indicator columns.
type IndicatorBlock struct {
	SMA7           Value  `json:"sma_7"`
	SMA30          Value  `json:"sma_30"`
	EMA7           Value  `json:"ema_7"`
	EMA30          Value  `json:"ema_30"`
	RSI            Value  `json:"rsi"`
	RSISignal      string `json:"rsi_signal"`
	MACD           Value  `json:"macd"`
	MACDSignalLine Value  `json:"macd_signal_line"`
	MACDHistogram  Value  `json:"macd_histogram"`
	MACDTrend      string `json:"macd_trend"`
	BBUpper        Value  `json:"bb_upper"`
	BBMiddle       Value  `json:"bb_middle"`
	BBLower        Value  `json:"bb_lower"`
	BBWidth        Value  `json:"bb_width"`
	BBPosition     string `json:"bb_position"`
}

// RiskMetricsBlock is the last-row snapshot of the rolling risk columns.
type RiskMetricsBlock struct {
	Volatility7d  Value `json:"volatility_7d"`
	Volatility30d Value `json:"volatility_30d"`
	MaxDrawdown   Value `json:"max_drawdown"`
	SharpeRatio   Value `json:"sharpe_ratio"`
}

// TrendBlock is the last-row trend classification.
type TrendBlock struct {
	Direction string `json:"direction"`
	SMAShort  Value  `json:"sma_short"`
	SMALong   Value  `json:"sma_long"`
}

// Report is the full technical snapshot at the last row of a series.
type Report struct {
	CurrentPrice float64          `json:"current_price"`
	Indicators   IndicatorBlock   `json:"indicators"`
	RiskMetrics  RiskMetricsBlock `json:"risk_metrics"`
	Trend        TrendBlock       `json:"trend"`
	Levels       Levels           `json:"levels"`

	// Columns carries the derived per-row columns for chart rendering.
	Columns *Frame `json:"-"`
}

// Frame bundles the per-row derived columns keyed by indicator name.
type Frame struct {
	Timestamps []time.Time
	Columns    map[string]Column
	Trend      []string
}

// FullAnalysis runs the whole indicator and risk pipeline over the series and
// snapshots the last row, with support/resistance over the trailing window.
func (e *Engine) FullAnalysis(series domain.PriceSeries) (Report, error) {
	if series.Len() < 2 {
		return Report{}, errors.Wrapf(ErrInsufficientData,
			"full analysis needs at least 2 points, got %d", series.Len())
	}

	prices := FromFloats(series.Prices())

	sma7 := SMA(prices, e.cfg.ShortPeriod)
	sma30 := SMA(prices, e.cfg.LongPeriod)
	ema7 := EMA(prices, e.cfg.ShortPeriod)
	ema30 := EMA(prices, e.cfg.LongPeriod)
	rsi := RSI(prices, e.cfg.RSIPeriod)
	macd, macdSignal, macdHist := MACD(prices, e.cfg.MACDFast, e.cfg.MACDSlow, e.cfg.MACDSignal)
	bbUpper, bbMiddle, bbLower, bbWidth := Bollinger(prices, e.cfg.BollingerPeriod, e.cfg.BollingerK)
	vol7 := Volatility(prices, e.cfg.ShortPeriod)
	vol30 := Volatility(prices, e.cfg.LongPeriod)
	drawdown, maxDrawdown := Drawdown(prices)
	sharpe := SharpeRatio(prices, e.cfg.RiskFreeRate, e.cfg.SharpePeriod)
	trend := TrendLabels(prices, e.cfg.ShortPeriod, e.cfg.LongPeriod)

	currentPrice := series.LastPrice()

	frame := &Frame{
		Timestamps: series.Timestamps(),
		Columns: map[string]Column{
			"price":          prices,
			"sma_7":          sma7,
			"sma_30":         sma30,
			"ema_7":          ema7,
			"ema_30":         ema30,
			"rsi":            rsi,
			"macd":           macd,
			"macd_signal":    macdSignal,
			"macd_histogram": macdHist,
			"bb_upper":       bbUpper,
			"bb_middle":      bbMiddle,
			"bb_lower":       bbLower,
			"bb_width":       bbWidth,
			"volatility_7d":  vol7,
			"volatility_30d": vol30,
			"drawdown":       drawdown,
			"max_drawdown":   maxDrawdown,
			"sharpe_ratio":   sharpe,
		},
		Trend: trend,
	}

	return Report{
		CurrentPrice: currentPrice,
		Indicators: IndicatorBlock{
			SMA7:           sma7.Last(),
			SMA30:          sma30.Last(),
			EMA7:           ema7.Last(),
			EMA30:          ema30.Last(),
			RSI:            rsi.Last(),
			RSISignal:      RSISignal(rsi.Last()),
			MACD:           macd.Last(),
			MACDSignalLine: macdSignal.Last(),
			MACDHistogram:  macdHist.Last(),
			MACDTrend:      MACDTrend(macdHist.Last()),
			BBUpper:        bbUpper.Last(),
			BBMiddle:       bbMiddle.Last(),
			BBLower:        bbLower.Last(),
			BBWidth:        bbWidth.Last(),
			BBPosition:     BollingerPosition(currentPrice, bbUpper.Last(), bbMiddle.Last(), bbLower.Last()),
		},
		RiskMetrics: RiskMetricsBlock{
			Volatility7d:  vol7.Last(),
			Volatility30d: vol30.Last(),
			MaxDrawdown:   maxDrawdown.Last(),
			SharpeRatio:   sharpe.Last(),
		},
		Trend: TrendBlock{
			Direction: trend[len(trend)-1],
			SMAShort:  sma7.Last(),
			SMALong:   sma30.Last(),
		},
		Levels:  SupportResistance(prices, e.cfg.LevelsPeriod),
		Columns: frame,
	}, nil
}

// AnomalySummary runs the four anomaly detectors with the engine's config.
func (e *Engine) AnomalySummary(series domain.PriceSeries) (AnomalyReport, error) {
	return AnomalySummary(series, e.cfg.Anomaly)
}

// AnalysisPeriod bounds the rows the scientific report covers.
type AnalysisPeriod struct {
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	TotalDays int       `json:"total_days"`
}

// AnomalyDetectionBlock is the condensed anomaly section of the report.
type AnomalyDetectionBlock struct {
	TotalAnomalies    int           `json:"total_anomalies"`
	AnomalyPercentage float64       `json:"anomaly_percentage"`
	ByMethod          AnomalyCounts `json:"by_method"`
}

// TrendAnalysisBlock is the trend distribution over the whole history.
type TrendAnalysisBlock struct {
	CurrentTrend      string         `json:"current_trend"`
	TrendDistribution map[string]int `json:"trend_distribution"`
}

// DataQualityBlock reports how much of the raw input survived normalization.
type DataQualityBlock struct {
	MissingValues    int     `json:"missing_values"`
	DataCompleteness float64 `json:"data_completeness"`
}

// ScientificReport is the full statistical report over a series history.
type ScientificReport struct {
	Coin                  string                `json:"coin"`
	AnalysisPeriod        AnalysisPeriod        `json:"analysis_period"`
	DescriptiveStatistics DescriptiveStats      `json:"descriptive_statistics"`
	ReturnsAnalysis       ReturnsBlock          `json:"returns_analysis"`
	RiskAnalysis          RiskBlock             `json:"risk_analysis"`
	AnomalyDetection      AnomalyDetectionBlock `json:"anomaly_detection"`
	TrendAnalysis         TrendAnalysisBlock    `json:"trend_analysis"`
	DataQuality           DataQualityBlock      `json:"data_quality"`
}

// GenerateScientificReport assembles descriptive statistics, returns and risk
// analysis, the anomaly summary and the trend distribution into one report.
func (e *Engine) GenerateScientificReport(series domain.PriceSeries) (ScientificReport, error) {
	if series.Len() < minReportRows {
		return ScientificReport{}, errors.Wrapf(ErrInsufficientData,
			"scientific report needs at least %d points, got %d", minReportRows, series.Len())
	}

	prices := FromFloats(series.Prices())

	returns, err := ReturnsAnalysis(prices)
	if err != nil {
		return ScientificReport{}, err
	}
	risk, err := RiskAnalysis(prices, e.cfg.Confidence)
	if err != nil {
		return ScientificReport{}, err
	}
	anomalies, err := AnomalySummary(series, e.cfg.Anomaly)
	if err != nil {
		return ScientificReport{}, err
	}

	trend := TrendLabels(prices, e.cfg.ShortPeriod, e.cfg.LongPeriod)
	distribution := make(map[string]int)
	for _, label := range trend {
		distribution[label]++
	}

	timestamps := series.Timestamps()
	retained := series.Len()

	return ScientificReport{
		Coin:                  series.CoinID,
		AnalysisPeriod:        AnalysisPeriod{Start: timestamps[0], End: timestamps[retained-1], TotalDays: retained},
		DescriptiveStatistics: DescribeFull(prices),
		ReturnsAnalysis:       returns,
		RiskAnalysis:          risk,
		AnomalyDetection: AnomalyDetectionBlock{
			TotalAnomalies:    anomalies.Counts.AnyMethod,
			AnomalyPercentage: anomalies.AnomalyPercentage,
			ByMethod:          anomalies.Counts,
		},
		TrendAnalysis: TrendAnalysisBlock{
			CurrentTrend:      trend[len(trend)-1],
			TrendDistribution: distribution,
		},
		DataQuality: DataQualityBlock{
			MissingValues:    series.Dropped,
			DataCompleteness: float64(retained) / float64(retained+series.Dropped) * 100,
		},
	}, nil
}
