// Package services runs report generation over batches of input files.
//
// PayoutService reads each file, maps its columns onto employee records and
// writes the payout table. Files are processed one at a time and in order.
// Every outcome is classified as a FileStatus and printed next to the
// reports, so one unreadable or malformed file never hides the others:
//
//	svc := services.NewPayoutService(os.Stdout, logger,
//		services.WithTracer(providers.Tracer),
//		services.WithMetrics(metrics))
//	summary := svc.Run(ctx, paths)
//	logger.Info("done", slog.Int("failed", summary.Count(services.StatusFailed)))
package services
