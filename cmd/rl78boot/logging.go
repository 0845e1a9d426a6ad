package main

import "github.com/sirupsen/logrus"

// logrusAdapter satisfies driver.Logger over a *logrus.Logger, the
// boundary where this module's ambient logging choice is allowed to leak
// into an interface the core packages never import.
type logrusAdapter struct {
	log *logrus.Logger
}

func newLogrusAdapter(log *logrus.Logger) *logrusAdapter {
	return &logrusAdapter{log: log}
}

func (a *logrusAdapter) fields(kv []interface{}) logrus.Fields {
	f := make(logrus.Fields, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		f[key] = kv[i+1]
	}
	return f
}

func (a *logrusAdapter) Debug(msg string, kv ...interface{}) {
	a.log.WithFields(a.fields(kv)).Debug(msg)
}

func (a *logrusAdapter) Info(msg string, kv ...interface{}) {
	a.log.WithFields(a.fields(kv)).Info(msg)
}

func (a *logrusAdapter) Error(msg string, kv ...interface{}) {
	a.log.WithFields(a.fields(kv)).Error(msg)
}
