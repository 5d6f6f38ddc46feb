package logsvc

import (
	"log"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"

	"github.com/gcl-lms/web/core"
	"github.com/gcl-lms/web/core/session"
)

// RollbarLogger prints to std and reports to Rollbar once enabled.
type RollbarLogger struct {
	std *log.Logger
}

var _ core.Logger = (*RollbarLogger)(nil)

func NewRollbarLogger(std *log.Logger, conf *core.Config) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)
	return &RollbarLogger{std: std}
}

func (l RollbarLogger) Enable(enabled bool) {
	rollbar.SetEnabled(enabled)
}

// expected fmt: msg | error, map[string]interface{}, session.AuthenticatedUser
func (l RollbarLogger) prepare(msg string, args []interface{}) ([]interface{}, []interface{}) {
	var usrSet bool
	newArgs := make([]interface{}, 0, len(args)+1)
	newArgs = append(newArgs, msg)
	printed := make([]interface{}, 0, len(args))
	for _, arg := range args {
		// set the signed-in user
		if usr, ok := arg.(session.AuthenticatedUser); ok {
			if !usrSet { // only set one user
				rollbar.SetPerson(usr.ID.String(), usr.Username, usr.Email)
				usrSet = true
			}
			printed = append(printed, "user: "+usr.Username)
		} else {
			newArgs = append(newArgs, arg)
			printed = append(printed, arg)
		}
	}
	if !usrSet {
		rollbar.ClearPerson()
	}
	return newArgs, printed
}

func (l RollbarLogger) print(msg string, args []interface{}) {
	l.std.Println(msg)
	for _, arg := range args {
		l.std.Printf("%+v\n", arg)
	}
}

func (l RollbarLogger) Debug(msg string, args ...interface{}) {
	rArgs, pArgs := l.prepare(msg, args)
	rollbar.Debug(rArgs...)
	l.print(msg, pArgs)
}

func (l RollbarLogger) Info(msg string, args ...interface{}) {
	rArgs, pArgs := l.prepare(msg, args)
	rollbar.Info(rArgs...)
	l.print(msg, pArgs)
}

func (l RollbarLogger) Warn(msg string, args ...interface{}) {
	rArgs, pArgs := l.prepare(msg, args)
	rollbar.Warning(rArgs...)
	l.print(msg, pArgs)
}

func (l RollbarLogger) Error(msg string, args ...interface{}) {
	rArgs, pArgs := l.prepare(msg, args)
	rollbar.Error(rArgs...)
	l.print(msg, pArgs)
}

func (l RollbarLogger) Fatal(msg string, args ...interface{}) {
	rArgs, pArgs := l.prepare(msg, args)
	rollbar.Critical(rArgs...)
	l.print(msg, pArgs)
	l.std.Fatal(msg)
}
