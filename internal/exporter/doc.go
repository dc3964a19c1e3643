// Package exporter renders normalized employee records as reports.
//
// The payout report is built in two steps. BuildPayout computes gross pay
// for every record and keeps the outcome per row, so a record whose hours or
// rate cannot be parsed does not affect the others. WriteText then prints the
// fixed-width table, replacing failed rows with an inline error line.
//
// Example usage:
//
//	report := exporter.BuildPayout(records)
//	if err := report.WriteText(os.Stdout); err != nil {
//		return err
//	}
//	slog.Info("report written",
//		slog.Int("rendered", report.Rendered()),
//		slog.Int("failed", report.Failed()))
package exporter
