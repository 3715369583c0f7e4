package logsvc

import (
	"fmt"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/trezcool/perftracker/core"
)

// Logger writes structured logs with zap and, when enabled, reports warnings and errors to Rollbar.
type Logger struct {
	zl      *zap.SugaredLogger
	rollbar bool
}

var _ core.Logger = (*Logger)(nil)

// stackTracer extracts the frames recorded by pkg/errors wrappers.
var stackTracer = errors.StackTracer

// New builds the logger of the named app. Debug mode uses zap's development console encoder;
// otherwise logs are JSON. Rollbar reporting is on when a token is configured outside debug mode.
func New(name string, conf *core.Config) (*Logger, error) {
	zconf := zap.NewProductionConfig()
	if conf.Debug {
		zconf = zap.NewDevelopmentConfig()
	}
	zconf.DisableStacktrace = true
	zconf.InitialFields = map[string]interface{}{"app": name, "env": conf.Env, "build": conf.Build}

	zl, err := zconf.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, err
	}

	report := conf.RollbarToken != "" && !conf.Debug && !conf.TestMode
	if report {
		rollbar.SetToken(conf.RollbarToken)
		rollbar.SetEnvironment(conf.Env)
		rollbar.SetCodeVersion(conf.Build)
		rollbar.SetServerRoot(conf.WorkDir)
		rollbar.SetStackTracer(stackTracer)
	}
	rollbar.SetEnabled(report)

	return &Logger{zl: zl.Sugar(), rollbar: report}, nil
}

// NewNop returns a Logger discarding everything.
func NewNop() *Logger {
	return &Logger{zl: zap.NewNop().Sugar()}
}

// newWithCore is used by tests to observe the entries.
func newWithCore(c zapcore.Core) *Logger {
	return &Logger{zl: zap.New(c).Sugar()}
}

// fields turns args into zap key/value pairs: errors under "error", maps are flattened,
// anything else is numbered.
func fields(args []interface{}) []interface{} {
	kv := make([]interface{}, 0, len(args)*2)
	for i, arg := range args {
		switch a := arg.(type) {
		case error:
			kv = append(kv, "error", a.Error())
		case map[string]interface{}:
			for k, v := range a {
				kv = append(kv, k, v)
			}
		default:
			kv = append(kv, fmt.Sprintf("arg%d", i), a)
		}
	}
	return kv
}

// report sends msg to Rollbar. expected args fmt: error, map[string]interface{}
func (l *Logger) report(level, msg string, args []interface{}) {
	if !l.rollbar {
		return
	}
	rbArgs := make([]interface{}, 0, len(args)+1)
	rbArgs = append(rbArgs, msg)
	for _, arg := range args {
		switch arg.(type) {
		case error, map[string]interface{}:
			rbArgs = append(rbArgs, arg)
		}
	}
	rollbar.Log(level, rbArgs...)
}

func (l *Logger) Debug(msg string, args ...interface{}) {
	l.zl.Debugw(msg, fields(args)...)
}

func (l *Logger) Info(msg string, args ...interface{}) {
	l.zl.Infow(msg, fields(args)...)
}

func (l *Logger) Warn(msg string, args ...interface{}) {
	l.report(rollbar.WARN, msg, args)
	l.zl.Warnw(msg, fields(args)...)
}

func (l *Logger) Error(msg string, args ...interface{}) {
	l.report(rollbar.ERR, msg, args)
	l.zl.Errorw(msg, fields(args)...)
}

func (l *Logger) Fatal(msg string, args ...interface{}) {
	l.report(rollbar.CRIT, msg, args)
	if l.rollbar {
		rollbar.Wait()
	}
	l.zl.Fatalw(msg, fields(args)...)
}

func (l *Logger) Sync() error {
	if l.rollbar {
		rollbar.Wait()
	}
	return l.zl.Sync()
}
