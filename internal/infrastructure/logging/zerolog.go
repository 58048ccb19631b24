package logging

import (
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/stagelink/backend/internal/infrastructure/configs"
)

var zeroLevelMap = map[string]zerolog.Level{
	"debug": zerolog.DebugLevel,
	"info":  zerolog.InfoLevel,
	"warn":  zerolog.WarnLevel,
	"error": zerolog.ErrorLevel,
}

type zeroLogger struct {
	cfg    configs.LoggingConfig
	logger zerolog.Logger
}

func newZeroLogger(cfg configs.LoggingConfig) *zeroLogger {
	l := &zeroLogger{cfg: cfg}
	l.Init()
	return l
}

func (l *zeroLogger) Init() {
	level, ok := zeroLevelMap[l.cfg.Level]
	if !ok {
		level = zerolog.InfoLevel
	}

	out := os.Stdout
	if l.cfg.FilePath != "" {
		if f, err := os.OpenFile(
			filepath.Join(l.cfg.FilePath, "stagelink.log"),
			os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644,
		); err == nil {
			out = f
		}
	}

	l.logger = zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Str(string(AppName), "stagelink-live").
		Str(string(LoggerName), "zerolog").
		Logger()
}

func (l *zeroLogger) event(e *zerolog.Event, cat Category, sub SubCategory, msg string, extra map[ExtraKey]any) {
	fields := make(map[string]any, len(extra))
	for k, v := range extra {
		fields[string(k)] = v
	}
	e.Str("Category", string(cat)).
		Str("SubCategory", string(sub)).
		Fields(fields).
		Msg(msg)
}

func (l *zeroLogger) Debug(cat Category, sub SubCategory, msg string, extra map[ExtraKey]any) {
	l.event(l.logger.Debug(), cat, sub, msg, extra)
}

func (l *zeroLogger) Debugf(template string, args ...any) {
	l.logger.Debug().Msgf(template, args...)
}

func (l *zeroLogger) Info(cat Category, sub SubCategory, msg string, extra map[ExtraKey]any) {
	l.event(l.logger.Info(), cat, sub, msg, extra)
}

func (l *zeroLogger) Infof(template string, args ...any) {
	l.logger.Info().Msgf(template, args...)
}

func (l *zeroLogger) Warn(cat Category, sub SubCategory, msg string, extra map[ExtraKey]any) {
	l.event(l.logger.Warn(), cat, sub, msg, extra)
}

func (l *zeroLogger) Warnf(template string, args ...any) {
	l.logger.Warn().Msgf(template, args...)
}

func (l *zeroLogger) Error(cat Category, sub SubCategory, msg string, extra map[ExtraKey]any) {
	l.event(l.logger.Error(), cat, sub, msg, extra)
}

func (l *zeroLogger) Errorf(template string, args ...any) {
	l.logger.Error().Msgf(template, args...)
}

func (l *zeroLogger) Fatal(cat Category, sub SubCategory, msg string, extra map[ExtraKey]any) {
	l.event(l.logger.Fatal(), cat, sub, msg, extra)
}

func (l *zeroLogger) Fatalf(template string, args ...any) {
	l.logger.Fatal().Msgf(template, args...)
}
