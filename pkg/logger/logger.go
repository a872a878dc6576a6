package logger

import (
	"os"
	"strings"
	"time"

	"github.com/domain-cutover/pkg/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger 在 InitLogger 之前是一个空实现，测试中可以直接替换
var Logger = zap.NewNop()

// InitLogger 按配置初始化全局日志, service 会作为固定字段写入每条日志
func InitLogger(cfg *config.LoggerConfig, service string) error {
	Logger = New(cfg).With(zap.String("service", service))
	zap.ReplaceGlobals(Logger)
	return nil
}

// New 构造日志但不替换全局变量。
// dev 模式同时输出到终端和文件; 其他模式只写文件; path 为空时不写文件。
func New(cfg *config.LoggerConfig) *zap.Logger {
	level := parseLevel(cfg.Level)
	dev := strings.EqualFold(cfg.Mode, "dev")

	var cores []zapcore.Core
	if dev {
		console := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
		cores = append(cores, zapcore.NewCore(console, zapcore.AddSync(os.Stdout), level))
	}
	if cfg.Path != "" {
		cores = append(cores, zapcore.NewCore(fileEncoder(dev), rotating(cfg), level))
	}
	if len(cores) == 0 {
		return zap.NewNop()
	}
	return zap.New(zapcore.NewTee(cores...), zap.AddCaller())
}

// parseLevel 无法识别时使用 info
func parseLevel(s string) zapcore.Level {
	level := zapcore.InfoLevel
	if err := level.UnmarshalText([]byte(strings.ToLower(s))); err != nil {
		return zapcore.InfoLevel
	}
	return level
}

func fileEncoder(dev bool) zapcore.Encoder {
	encCfg := zap.NewProductionEncoderConfig()
	if dev {
		encCfg = zap.NewDevelopmentEncoderConfig()
	}
	encCfg.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(t.Format("2006-01-02 15:04:05"))
	}
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	encCfg.EncodeCaller = zapcore.ShortCallerEncoder
	return zapcore.NewConsoleEncoder(encCfg)
}

func rotating(cfg *config.LoggerConfig) zapcore.WriteSyncer {
	return zapcore.AddSync(&lumberjack.Logger{
		Filename:   cfg.Path,
		MaxSize:    cfg.MaxSize,    // MB
		MaxBackups: cfg.MaxBackups, // 保留的旧文件数
		MaxAge:     cfg.MaxAge,     // 天
		Compress:   cfg.Compress,
	})
}
