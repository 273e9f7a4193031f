package command

import (
	"io"
	"os"

	"github.com/op/go-logging"
	"github.com/tebeka/atexit"
)

var logFormat = logging.MustStringFormatter(`%{time:15:04:05.000} %{module:-14s} %{level:.4s} %{message}`)

// configureLogging installs the process-wide log backend. An empty path
// logs to stderr; stdout carries the protocol.
func configureLogging(level string, path string) error {
	leveled, err := logging.LogLevel(level)
	if err != nil {
		return err
	}

	var writer io.Writer = os.Stderr
	if path != "" {
		file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return err
		}
		atexit.Register(func() {
			file.Close()
		})
		writer = file
	}

	backend := logging.AddModuleLevel(
		logging.NewBackendFormatter(logging.NewLogBackend(writer, "", 0), logFormat),
	)
	backend.SetLevel(leveled, "")
	logging.SetBackend(backend)
	return nil
}
