package logutil

import (
    "io"
    "os"
    "path/filepath"
    "strings"

    "github.com/sirupsen/logrus"
    "github.com/sirupsen/logrus/hooks/writer"
    "gopkg.in/natefinch/lumberjack.v2"
)

// Options controls logger construction. Zero value gives info-level text logs
// split across stdout (info and below) and stderr (warn and above).
type Options struct {
    Level string `yaml:"level"`
    JSON  bool   `yaml:"json"`
    // File, when set, receives every entry through a size-rotated writer.
    File       string `yaml:"file"`
    MaxSizeMB  int    `yaml:"max_size_mb"`
    MaxBackups int    `yaml:"max_backups"`

    // Stdout and Stderr override the process streams (tests).
    Stdout io.Writer `yaml:"-"`
    Stderr io.Writer `yaml:"-"`
}

// FromEnv fills unset fields from SEEDCACHE_LOG_JSON, SEEDCACHE_LOG_FORMAT,
// SEEDCACHE_LOG_LEVEL and LOG_FILE.
func (o Options) FromEnv() Options {
    if os.Getenv("SEEDCACHE_LOG_JSON") == "1" || strings.EqualFold(os.Getenv("SEEDCACHE_LOG_FORMAT"), "json") {
        o.JSON = true
    }
    if o.Level == "" { o.Level = os.Getenv("SEEDCACHE_LOG_LEVEL") }
    if o.File == "" { o.File = os.Getenv("LOG_FILE") }
    return o
}

// New builds a logger from opts.
func New(opts Options) (*logrus.Logger, error) {
    stdout, stderr := opts.Stdout, opts.Stderr
    if stdout == nil { stdout = os.Stdout }
    if stderr == nil { stderr = os.Stderr }

    l := logrus.New()
    l.SetOutput(io.Discard)
    if opts.JSON {
        l.SetFormatter(&logrus.JSONFormatter{})
    } else {
        l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
    }

    level := logrus.InfoLevel
    if opts.Level != "" {
        lv, err := logrus.ParseLevel(opts.Level)
        if err != nil { return nil, err }
        level = lv
    }
    l.SetLevel(level)

    l.AddHook(&writer.Hook{
        Writer:    stderr,
        LogLevels: []logrus.Level{logrus.PanicLevel, logrus.FatalLevel, logrus.ErrorLevel, logrus.WarnLevel},
    })
    l.AddHook(&writer.Hook{
        Writer:    stdout,
        LogLevels: []logrus.Level{logrus.InfoLevel, logrus.DebugLevel, logrus.TraceLevel},
    })

    if opts.File != "" {
        if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil { return nil, err }
        maxSize := opts.MaxSizeMB
        if maxSize <= 0 { maxSize = 10 }
        l.AddHook(&writer.Hook{
            Writer:    &lumberjack.Logger{Filename: opts.File, MaxSize: maxSize, MaxBackups: opts.MaxBackups},
            LogLevels: logrus.AllLevels,
        })
    }
    return l, nil
}

// OrDefault returns l, or the logrus standard logger when l is nil.
func OrDefault(l logrus.FieldLogger) logrus.FieldLogger {
    if l == nil { return logrus.StandardLogger() }
    return l
}
