package web

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/vadiminshakov/coinlens/internal/analysis"
)

// handleChart renders an HTML page with the price/indicator overlays and an
// RSI pane for one coin.
func (s *Server) handleChart(c *gin.Context) {
	series, ok := s.loadSeries(c)
	if !ok {
		return
	}

	report, err := s.engine.FullAnalysis(series)
	if err != nil {
		s.fail(c, err)
		return
	}
	frame := report.Columns

	xAxis := make([]string, len(frame.Timestamps))
	for i, ts := range frame.Timestamps {
		xAxis[i] = ts.UTC().Format("2006-01-02")
	}

	page := components.NewPage()
	page.PageTitle = series.CoinID
	page.AddCharts(
		priceChart(series.CoinID, xAxis, frame),
		rsiChart(xAxis, frame.Columns["rsi"]),
	)

	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := page.Render(c.Writer); err != nil {
		c.AbortWithStatus(http.StatusInternalServerError)
	}
}

func priceChart(coin string, xAxis []string, frame *analysis.Frame) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: coin, Subtitle: "price, moving averages and Bollinger bands"}),
	)

	line.SetXAxis(xAxis).
		AddSeries("price", lineData(frame.Columns["price"])).
		AddSeries("sma_7", lineData(frame.Columns["sma_7"])).
		AddSeries("sma_30", lineData(frame.Columns["sma_30"])).
		AddSeries("bb_upper", lineData(frame.Columns["bb_upper"])).
		AddSeries("bb_lower", lineData(frame.Columns["bb_lower"]))
	return line
}

func rsiChart(xAxis []string, rsi analysis.Column) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "RSI", Subtitle: "overbought above 70, oversold below 30"}),
	)

	line.SetXAxis(xAxis).AddSeries("rsi", lineData(rsi))
	return line
}

// lineData converts a derived column to chart points; undefined cells become
// gaps instead of zeros.
func lineData(col analysis.Column) []opts.LineData {
	out := make([]opts.LineData, len(col))
	for i, cell := range col {
		if cell.Valid {
			out[i] = opts.LineData{Value: cell.V}
		} else {
			out[i] = opts.LineData{Value: nil}
		}
	}
	return out
}
