package reporting

import (
	"fmt"
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// ConsoleReporter renders a session report as terminal tables.
type ConsoleReporter struct {
	out io.Writer
}

// NewConsoleReporter writes to stdout unless another writer is given.
func NewConsoleReporter(out io.Writer) *ConsoleReporter {
	if out == nil {
		out = os.Stdout
	}
	return &ConsoleReporter{out: out}
}

// Print renders the whole report: session summary, risk pass, executions
// and alerts.
func (r *ConsoleReporter) Print(report *SessionReport) {
	r.printSummary(report)
	r.printRisk(report)
	r.printExecutions(report)
	r.printAlerts(report)
}

func (r *ConsoleReporter) printSummary(report *SessionReport) {
	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetTitle("TRADING SESSION")
	t.SetStyle(table.StyleRounded)

	regime := "n/a"
	if report.Regime != nil {
		regime = fmt.Sprintf("%s (%.0f%%)", report.Regime.Classification, report.Regime.Confidence*100)
	}

	t.AppendRows([]table.Row{
		{"🆔 Session", report.SessionID},
		{"👤 User", report.UserID},
		{"📍 Status", string(report.Status)},
		{"🔄 Iterations", report.Iterations},
		{"🌡 Regime", regime},
	})
	if report.Slippage != nil && report.Slippage.Orders > 0 {
		t.AppendRow(table.Row{"📉 Avg Slippage", fmt.Sprintf("%.1f bps", report.Slippage.AvgBps)})
	}

	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, WidthMin: 14, Align: text.AlignLeft},
		{Number: 2, WidthMin: 30, Align: text.AlignLeft},
	})
	t.Render()
	fmt.Fprintln(r.out)
}

func (r *ConsoleReporter) printRisk(report *SessionReport) {
	if report.Assessment == nil {
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetTitle("RISK PASS")
	t.SetStyle(table.StyleRounded)
	t.AppendRows([]table.Row{
		{"✅ Approved", len(report.Assessment.ApprovedTrades)},
		{"❌ Rejected", len(report.Assessment.RejectedTrades)},
		{"💰 Exposure", fmt.Sprintf("%.0f", report.Assessment.CurrentExposure)},
		{"💰 Budget Left", fmt.Sprintf("%.0f", report.Assessment.RiskBudgetRemaining)},
		{"📉 Drawdown Mode", string(report.Assessment.DrawdownMode)},
		{"📉 Daily Loss", string(report.Assessment.DailyLossCheck)},
	})
	t.Render()
	fmt.Fprintln(r.out)
}

func (r *ConsoleReporter) printExecutions(report *SessionReport) {
	if len(report.Executed) == 0 && len(report.Pending) == 0 {
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetTitle("EXECUTIONS")
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Code", "Side", "Strategy", "Qty", "Filled", "Fill Price", "Slippage", "Status"})

	for _, order := range append(report.Executed, report.Pending...) {
		t.AppendRow(table.Row{
			order.StockCode,
			string(order.Side),
			string(order.Strategy),
			order.Quantity,
			order.FilledQuantity,
			fmt.Sprintf("%.2f", order.FillPrice),
			fmt.Sprintf("%.1f bps", order.SlippageBps),
			string(order.Status),
		})
	}
	t.Render()
	fmt.Fprintln(r.out)
}

func (r *ConsoleReporter) printAlerts(report *SessionReport) {
	if len(report.Alerts) == 0 {
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetTitle("ALERTS")
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Level", "Source", "Message"})
	for _, alert := range report.Alerts {
		t.AppendRow(table.Row{string(alert.Level), alert.Source, alert.Message})
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, WidthMax: 70},
	})
	t.Render()
	fmt.Fprintln(r.out)
}
