package logging

import (
	"path/filepath"

	"github.com/stagelink/backend/internal/infrastructure/configs"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

var zapLevelMap = map[string]zapcore.Level{
	"debug": zapcore.DebugLevel,
	"info":  zapcore.InfoLevel,
	"warn":  zapcore.WarnLevel,
	"error": zapcore.ErrorLevel,
}

type zapLogger struct {
	cfg    configs.LoggingConfig
	logger *zap.SugaredLogger
}

func newZapLogger(cfg configs.LoggingConfig) *zapLogger {
	l := &zapLogger{cfg: cfg}
	l.Init()
	return l
}

func (l *zapLogger) level() zapcore.Level {
	if lvl, ok := zapLevelMap[l.cfg.Level]; ok {
		return lvl
	}
	return zapcore.InfoLevel
}

func (l *zapLogger) Init() {
	w := zapcore.AddSync(&lumberjack.Logger{
		Filename:   filepath.Join(l.cfg.FilePath, "stagelink.log"),
		MaxSize:    10, // megabytes
		MaxAge:     28, // days
		MaxBackups: 5,
		Compress:   true,
	})

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	if l.cfg.Encoding == "console" {
		encoder = zapcore.NewConsoleEncoder(encoderCfg)
	} else {
		encoder = zapcore.NewJSONEncoder(encoderCfg)
	}

	core := zapcore.NewCore(encoder, w, l.level())
	logger := zap.New(core,
		zap.AddCaller(),
		zap.AddCallerSkip(1),
		zap.AddStacktrace(zapcore.ErrorLevel),
	).Sugar()

	l.logger = logger.With(string(AppName), "stagelink-live", string(LoggerName), "zap")
}

func (l *zapLogger) args(cat Category, sub SubCategory, extra map[ExtraKey]any) []any {
	params := make([]any, 0, len(extra)*2+4)
	for k, v := range extra {
		params = append(params, string(k), v)
	}
	return append(params, "Category", string(cat), "SubCategory", string(sub))
}

func (l *zapLogger) Debug(cat Category, sub SubCategory, msg string, extra map[ExtraKey]any) {
	l.logger.Debugw(msg, l.args(cat, sub, extra)...)
}

func (l *zapLogger) Debugf(template string, args ...any) {
	l.logger.Debugf(template, args...)
}

func (l *zapLogger) Info(cat Category, sub SubCategory, msg string, extra map[ExtraKey]any) {
	l.logger.Infow(msg, l.args(cat, sub, extra)...)
}

func (l *zapLogger) Infof(template string, args ...any) {
	l.logger.Infof(template, args...)
}

func (l *zapLogger) Warn(cat Category, sub SubCategory, msg string, extra map[ExtraKey]any) {
	l.logger.Warnw(msg, l.args(cat, sub, extra)...)
}

func (l *zapLogger) Warnf(template string, args ...any) {
	l.logger.Warnf(template, args...)
}

func (l *zapLogger) Error(cat Category, sub SubCategory, msg string, extra map[ExtraKey]any) {
	l.logger.Errorw(msg, l.args(cat, sub, extra)...)
}

func (l *zapLogger) Errorf(template string, args ...any) {
	l.logger.Errorf(template, args...)
}

func (l *zapLogger) Fatal(cat Category, sub SubCategory, msg string, extra map[ExtraKey]any) {
	l.logger.Fatalw(msg, l.args(cat, sub, extra)...)
}

func (l *zapLogger) Fatalf(template string, args ...any) {
	l.logger.Fatalf(template, args...)
}
