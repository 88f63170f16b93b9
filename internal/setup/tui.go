// Package setup implements the terminal configuration wizard that writes the
// service yaml config.
package setup

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	"github.com/vadiminshakov/coinlens/config"
)

var (
	subtle    = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#383838"}
	highlight = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}
	special   = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Background(highlight).
			Padding(1, 2).
			Bold(true).
			MarginBottom(1)

	stepStyle = lipgloss.NewStyle().
			Foreground(special).
			Bold(true).
			MarginTop(1).
			MarginBottom(0)
)

// RunTUI launches the terminal configuration wizard.
func RunTUI() error {
	var (
		platform    string
		pairsStr    string
		interval    string
		lookbackStr string
		refreshStr  string
		listenAddr  string
		confirm     bool
	)

	// defaults
	pairsStr = "BTC_USDT,ETH_USDT"
	interval = "1d"
	lookbackStr = "90"
	refreshStr = "1h"
	listenAddr = ":8080"

	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("COINLENS CONFIG WIZARD"))
	fmt.Println(lipgloss.NewStyle().Foreground(subtle).Render("Let's point the analyzer at some markets.\n"))

	fmt.Println(stepStyle.Render("STEP 1: PLATFORM"))
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Select kline source").
				Options(
					huh.NewOption("Binance", "binance"),
					huh.NewOption("Bybit", "bybit"),
				).
				Value(&platform),
		),
	).Run()
	if err != nil {
		return err
	}

	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("COINLENS CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("STEP 2: ASSETS"))
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Trading pairs").
				Description("Comma-separated, BASE_QUOTE format (e.g. BTC_USDT,ETH_USDT)").
				Value(&pairsStr).
				Validate(validatePairs),
		),
	).Run()
	if err != nil {
		return err
	}

	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("COINLENS CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("STEP 3: HISTORY"))
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Kline interval").
				Options(
					huh.NewOption("1 hour", "1h"),
					huh.NewOption("4 hours", "4h"),
					huh.NewOption("1 day", "1d"),
				).
				Value(&interval),
			huh.NewInput().
				Title("Lookback periods").
				Description("How many klines to fetch per refresh").
				Value(&lookbackStr).
				Validate(func(s string) error {
					n, err := strconv.Atoi(strings.TrimSpace(s))
					if err != nil || n < 2 {
						return fmt.Errorf("must be a number >= 2")
					}
					return nil
				}),
			huh.NewInput().
				Title("Refresh interval").
				Description("How often to re-fetch history (e.g. 30m, 1h)").
				Value(&refreshStr).
				Validate(func(s string) error {
					_, err := time.ParseDuration(strings.TrimSpace(s))
					return err
				}),
		),
	).Run()
	if err != nil {
		return err
	}

	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("COINLENS CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("STEP 4: HTTP"))
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Listen address").
				Description("Where the API serves (e.g. :8080)").
				Value(&listenAddr),
		),
	).Run()
	if err != nil {
		return err
	}

	lookback, _ := strconv.Atoi(strings.TrimSpace(lookbackStr))
	refresh, _ := time.ParseDuration(strings.TrimSpace(refreshStr))

	cfg := config.ConfigTmp{
		Platform:        platform,
		Pairs:           splitPairs(pairsStr),
		Interval:        interval,
		LookbackPeriods: lookback,
		RefreshInterval: refresh,
		ListenAddr:      listenAddr,
	}

	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("COINLENS CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("STEP 5: CONFIRM"))
	fmt.Printf("\nplatform: %s\npairs: %s\ninterval: %s\nlookback: %d\nrefresh: %s\nlisten: %s\n\n",
		cfg.Platform, strings.Join(cfg.Pairs, ", "), cfg.Interval, cfg.LookbackPeriods, cfg.RefreshInterval, cfg.ListenAddr)

	err = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Write config.yaml?").
				Value(&confirm),
		),
	).Run()
	if err != nil {
		return err
	}
	if !confirm {
		fmt.Println("Aborted, nothing written.")
		return nil
	}

	out, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile("config.yaml", out, 0o644); err != nil {
		return fmt.Errorf("write config.yaml: %w", err)
	}

	fmt.Println(lipgloss.NewStyle().Foreground(special).Render("config.yaml written. Start the service with --config config.yaml"))
	return nil
}

func splitPairs(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(strings.ToUpper(p))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func validatePairs(s string) error {
	pairs := splitPairs(s)
	if len(pairs) == 0 {
		return fmt.Errorf("at least one pair is required")
	}
	for _, p := range pairs {
		if !strings.Contains(p, "_") {
			return fmt.Errorf("invalid format %q: must be BASE_QUOTE (e.g. BTC_USDT)", p)
		}
	}
	return nil
}
