// Package logging provides structured logging for answerd built on zap.
//
// The Logger wraps zap with context-aware methods that automatically attach
// trace correlation fields (trace_id, span_id) and the request ID when they
// are present in the context.
//
// Example:
//
//	logger, err := logging.NewLogger(logging.NewDefaultConfig())
//	if err != nil {
//	    return err
//	}
//	defer logger.Sync()
//
//	logger.Info(ctx, "ingestion started", zap.String("url", url))
package logging
