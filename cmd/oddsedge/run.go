package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/yourusername/oddsedge/internal/metrics"
	"github.com/yourusername/oddsedge/internal/service"
)

var (
	printSummary bool
	printLimit   int
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute one end-to-end run",
	Long: `Refreshes sports, fetches odds, events, scores and props, analyzes the
snapshot, replaces the latest and opportunity tables, appends history,
prunes old rows and deletes finished games.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := bootstrap(ctx); err != nil {
			return err
		}

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		res, runErr := a.pipeline.Run(ctx)
		pushMetrics()

		if runErr != nil {
			return runErr
		}
		if printSummary {
			return renderSummary(os.Stdout, res, printLimit)
		}
		return nil
	},
}

func init() {
	runCmd.Flags().BoolVar(&printSummary, "print", false, "Print the top EV candidates and arbitrage opportunities")
	runCmd.Flags().IntVar(&printLimit, "limit", 20, "Rows per table printed with --print")
}

// pushMetrics sends the registry to the Pushgateway after a one-shot run
func pushMetrics() {
	if cfg.Metrics.PushGatewayURL == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := metrics.Push(ctx, cfg.Metrics.PushGatewayURL, cfg.Metrics.JobName); err != nil {
		appLog.WithError(err).Warn("Failed to push metrics")
	}
}

func renderSummary(w io.Writer, res *service.RunResult, limit int) error {
	fmt.Fprintf(w, "\n%s\n\n", res.String())

	ev := tablewriter.NewWriter(w)
	ev.Header("#", "Game", "Market", "Outcome", "Line", "Bookie", "Odds", "Fair", "EV", "Source")
	for i, c := range res.Candidates {
		if i == limit {
			break
		}
		outcome := c.Selector
		if c.Participant != "" {
			outcome = c.Participant + " " + c.Selector
		}
		if err := ev.Append(
			strconv.Itoa(i+1),
			c.GameID,
			c.MarketKey,
			outcome,
			c.BettingPoint,
			c.Bookie,
			formatOdds(c.Odds),
			fmt.Sprintf("%.4f", c.FairProbability),
			fmt.Sprintf("%.2f", c.ExpectedValue),
			string(c.Source),
		); err != nil {
			return err
		}
	}
	fmt.Fprintf(w, "Expected value candidates: %d\n", len(res.Candidates))
	if err := ev.Render(); err != nil {
		return err
	}

	arb := tablewriter.NewWriter(w)
	arb.Header("#", "Game", "Market", "Line", "Side A", "Side B", "Profit %", "Stakes")
	for i, a := range res.Arbitrages {
		if i == limit {
			break
		}
		if err := arb.Append(
			strconv.Itoa(i+1),
			a.GameID,
			a.MarketKey,
			a.BettingPoint,
			fmt.Sprintf("%s %s @ %s", a.SelectorOne, formatOdds(a.OddsOne), a.BookieOne),
			fmt.Sprintf("%s %s @ %s", a.SelectorTwo, formatOdds(a.OddsTwo), a.BookieTwo),
			fmt.Sprintf("%.2f", a.ProfitPercentage),
			fmt.Sprintf("%.2f / %.2f", a.BetAmountOne, a.BetAmountTwo),
		); err != nil {
			return err
		}
	}
	fmt.Fprintf(w, "\nArbitrage opportunities: %d\n", len(res.Arbitrages))
	return arb.Render()
}

func formatOdds(odds int) string {
	if odds > 0 {
		return "+" + strconv.Itoa(odds)
	}
	return strconv.Itoa(odds)
}
