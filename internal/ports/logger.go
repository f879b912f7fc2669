package ports

import "context"

// Logger is the logging contract every component receives by injection.
// Structured context travels as an optional field map so call sites stay
// free of any concrete logging dependency.
type Logger interface {
	// Debug logs fine-grained diagnostic detail.
	Debug(ctx context.Context, msg string, fields ...map[string]interface{})
	// Info logs normal operational events.
	Info(ctx context.Context, msg string, fields ...map[string]interface{})
	// Warn logs recoverable anomalies.
	Warn(ctx context.Context, msg string, fields ...map[string]interface{})
	// Error logs a failure together with its cause.
	Error(ctx context.Context, err error, msg string, fields ...map[string]interface{})
}
