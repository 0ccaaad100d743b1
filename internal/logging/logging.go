// Package logging wires apex/log handlers: a console handler on stderr and
// a per-run text log file under the log directory.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/apex/log"
	clihandler "github.com/apex/log/handlers/cli"
	"github.com/apex/log/handlers/multi"
	"github.com/apex/log/handlers/text"
)

// Options controls log destinations and verbosity.
type Options struct {
	Verbose bool
	Dir     string // log file directory; empty disables the file handler
	RunID   string
}

// Setup configures the global logger and returns a context entry tagged
// with the run ID, plus a close func for the log file.
func Setup(opts Options) (*log.Entry, func(), error) {
	if opts.Verbose {
		log.SetLevel(log.DebugLevel)
	} else {
		log.SetLevel(log.InfoLevel)
	}

	handlers := []log.Handler{clihandler.New(os.Stderr)}
	closer := func() {}

	if opts.Dir != "" {
		if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("create log directory: %w", err)
		}
		name := fmt.Sprintf("download_%s_%s.log", time.Now().Format("20060102_150405"), opts.RunID)
		f, err := os.OpenFile(filepath.Join(opts.Dir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		handlers = append(handlers, text.New(f))
		closer = func() { f.Close() }
	}

	log.SetHandler(multi.New(handlers...))
	return log.WithField("run_id", opts.RunID), closer, nil
}
