package scheduler

import (
	"go.uber.org/zap"
)

// zapLogger adapts zap to cron.Logger. cron's routine info messages are
// demoted to debug; skips surface as warnings.
type zapLogger struct {
	sugar *zap.SugaredLogger
}

func (l zapLogger) Info(msg string, keysAndValues ...interface{}) {
	if msg == "skip" {
		l.sugar.Warnw("cron tick skipped, previous run still in progress", keysAndValues...)
		return
	}
	l.sugar.Debugw("cron: "+msg, keysAndValues...)
}

func (l zapLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.sugar.Errorw("cron: "+msg, append(keysAndValues, "error", err)...)
}
