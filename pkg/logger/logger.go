// Package logger 日志模块
package logger

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

// Options 日志初始化参数
type Options struct {
	Debug    bool
	Timezone string // 例如 Asia/Jakarta，为空时使用本地时区
	Dir      string // 日志目录，为空时只输出到控制台
	File     string
}

// Init 初始化日志
func Init(opts Options) {
	if opts.Timezone != "" {
		if loc, err := time.LoadLocation(opts.Timezone); err == nil {
			zerolog.TimestampFunc = func() time.Time {
				return time.Now().In(loc)
			}
		}
	}

	// 控制台输出
	consoleWriter := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: "2006-01-02 15:04:05",
	}

	writers := []io.Writer{consoleWriter}

	// 文件输出
	if opts.Dir != "" {
		name := opts.File
		if name == "" {
			name = "dramabox-web.log"
		}
		if err := os.MkdirAll(opts.Dir, 0755); err == nil {
			logFile, err := os.OpenFile(
				filepath.Join(opts.Dir, name),
				os.O_APPEND|os.O_CREATE|os.O_WRONLY,
				0644,
			)
			if err == nil {
				writers = append(writers, logFile)
			}
		}
	}

	level := zerolog.InfoLevel
	if opts.Debug {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	Logger = zerolog.New(zerolog.MultiLevelWriter(writers...)).With().Timestamp().Caller().Logger()
	log.Logger = Logger
}

// With 返回带组件字段的子日志
func With(component string) zerolog.Logger {
	return Logger.With().Str("component", component).Logger()
}

func Debug() *zerolog.Event {
	return Logger.Debug()
}

func Info() *zerolog.Event {
	return Logger.Info()
}

func Warn() *zerolog.Event {
	return Logger.Warn()
}

func Error() *zerolog.Event {
	return Logger.Error()
}

func Fatal() *zerolog.Event {
	return Logger.Fatal()
}
