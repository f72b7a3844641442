package logsvc

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"

	"github.com/trezcool/ekklesia/core"
)

// reporter sends items to Rollbar. person may be nil.
type reporter interface {
	report(level string, person *rollbar.Person, err error, msg string, extras map[string]interface{})
	wait()
}

type rollbarReporter struct {
	client *rollbar.Client
}

func newRollbarReporter(conf *core.Config) *rollbarReporter {
	client := rollbar.New(conf.RollbarToken, conf.Env, conf.Build, conf.Server.Host, "")
	client.SetStackTracer(errors.StackTracer)
	client.SetEnabled(conf.RollbarToken != "" && !conf.TestMode)
	return &rollbarReporter{client: client}
}

func (r *rollbarReporter) report(level string, person *rollbar.Person, err error, msg string, extras map[string]interface{}) {
	ctx := context.Background()
	if person != nil {
		ctx = rollbar.NewPersonContext(ctx, person)
	}
	if err != nil {
		extras["message"] = msg
		r.client.ErrorWithExtrasAndContext(ctx, level, err, extras)
		return
	}
	r.client.MessageWithExtrasAndContext(ctx, level, msg, extras)
}

func (r *rollbarReporter) wait() {
	r.client.Wait()
}

// RollbarLogger writes every record to a local structured log.
// Warnings and above are also reported to Rollbar.
type RollbarLogger struct {
	std  *slog.Logger
	rb   reporter
	exit func(code int)
}

var _ core.Logger = (*RollbarLogger)(nil)

func NewRollbarLogger(w io.Writer, conf *core.Config) *RollbarLogger {
	level := slog.LevelInfo
	if conf.Debug {
		level = slog.LevelDebug
	}
	handler := tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.DateTime,
		NoColor:    !isTerminal(w),
	})
	return &RollbarLogger{
		std:  slog.New(handler).With("app", conf.AppName),
		rb:   newRollbarReporter(conf),
		exit: os.Exit,
	}
}

// entry is a log call split for both outputs.
type entry struct {
	person *rollbar.Person
	err    error
	extras map[string]interface{}
	attrs  []any
}

// expected fmt: msg | error, map[string]interface{}, core.Session
func (l RollbarLogger) prepare(args []interface{}) entry {
	e := entry{extras: make(map[string]interface{}), attrs: make([]any, 0, len(args))}
	var others []string
	for _, arg := range args {
		switch a := arg.(type) {
		case core.Session:
			// only keep one Session
			if e.person == nil {
				e.person = &rollbar.Person{Id: a.UserID, Username: a.Username, Email: a.Email}
				e.attrs = append(e.attrs, slog.String("user", a.Username))
			}
		case error:
			if e.err == nil {
				e.err = a
			} else {
				others = append(others, a.Error())
			}
			e.attrs = append(e.attrs, tint.Err(a))
		case map[string]interface{}:
			for k, v := range a {
				e.extras[k] = v
				e.attrs = append(e.attrs, slog.Any(k, v))
			}
		default:
			s := fmt.Sprintf("%+v", a)
			others = append(others, s)
			e.attrs = append(e.attrs, slog.String("extra", s))
		}
	}
	if len(others) > 0 {
		e.extras["extra"] = others
	}
	return e
}

func (l RollbarLogger) Debug(msg string, args ...interface{}) {
	l.std.Debug(msg, l.prepare(args).attrs...)
}

func (l RollbarLogger) Info(msg string, args ...interface{}) {
	l.std.Info(msg, l.prepare(args).attrs...)
}

func (l RollbarLogger) Warn(msg string, args ...interface{}) {
	e := l.prepare(args)
	l.rb.report(rollbar.WARN, e.person, e.err, msg, e.extras)
	l.std.Warn(msg, e.attrs...)
}

func (l RollbarLogger) Error(msg string, args ...interface{}) {
	e := l.prepare(args)
	l.rb.report(rollbar.ERR, e.person, e.err, msg, e.extras)
	l.std.Error(msg, e.attrs...)
}

func (l RollbarLogger) Fatal(msg string, args ...interface{}) {
	e := l.prepare(args)
	l.rb.report(rollbar.CRIT, e.person, e.err, msg, e.extras)
	l.std.Error(msg, e.attrs...)
	l.rb.wait()
	l.exit(1)
}
