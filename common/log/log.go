package log

import (
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

var logger *log.Logger

// InitLog 初始化全局日志器
// appName 作为前缀（通常是节点 ID），logLevel 支持 debug/info/warn/error
func InitLog(appName string, logLevel string) {
	// 统一写 stdout，避免控制台把 stderr 渲染成红色
	logger = log.New(os.Stdout)
	logger.SetPrefix(appName)
	logger.SetReportTimestamp(true)
	logger.SetTimeFormat(time.DateTime)
	logger.SetReportCaller(true)

	switch strings.ToLower(logLevel) {
	case "debug":
		logger.SetLevel(log.DebugLevel)
	case "warn":
		logger.SetLevel(log.WarnLevel)
	case "error":
		logger.SetLevel(log.ErrorLevel)
	default:
		logger.SetLevel(log.InfoLevel)
	}
}

func ensure() *log.Logger {
	if logger == nil {
		// 未初始化时兜底，测试里可以直接使用
		logger = log.New(os.Stdout)
	}
	return logger
}

func Debug(format string, args ...any) {
	ensure().Debugf(format, args...)
}

func Info(format string, args ...any) {
	ensure().Infof(format, args...)
}

func Warn(format string, args ...any) {
	ensure().Warnf(format, args...)
}

func Error(format string, args ...any) {
	ensure().Errorf(format, args...)
}

func Fatal(format string, args ...any) {
	ensure().Fatalf(format, args...)
}
