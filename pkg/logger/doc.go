// Package logger builds slog loggers and provides attribute helpers shared by
// the subscription packages.
//
// New creates a JSON or text logger configured through Option functions or from
// the environment through Config. Attributes attached to a context with
// ContextWith are appended to every record logged with that context, which is
// how queue workers tag everything a job handler logs with the job ID:
//
//	log := logger.New(cfg.Options()...)
//	logger.SetAsDefault(log)
//
//	ctx = logger.ContextWith(ctx, logger.JobID(task.ID))
//	log.LogAttrs(ctx, slog.LevelInfo, "delivery slice finished", logger.Recipient(42))
//
// Helpers such as Error, Recipient, Channel and Entity keep attribute keys
// consistent. Error and Errors return an empty attribute for nil errors, so
//
//	log.Info("operation finished", logger.Error(err))
//
// needs no nil check.
package logger
