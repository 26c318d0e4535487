package tidlrt

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
)

// LogScope redirects the standard logger output to a file for the duration
// of a compilation or inference run.  Close restores the previous log writer
// and must run on every exit path, typically via defer.
type LogScope struct {
	file *os.File
	// prev is the log writer in place before redirection
	prev io.Writer
	// closed guards against double restore
	closed bool
}

// NewLogScope creates the logs directory if needed and redirects the
// standard logger to the named file within it
func NewLogScope(logsDir, name string) (*LogScope, error) {

	err := os.MkdirAll(logsDir, 0o755)

	if err != nil {
		return nil, fmt.Errorf("error creating logs directory: %w", err)
	}

	f, err := os.Create(filepath.Join(logsDir, name))

	if err != nil {
		return nil, fmt.Errorf("error creating log file: %w", err)
	}

	s := &LogScope{
		file: f,
		prev: log.Writer(),
	}

	log.SetOutput(f)

	return s, nil
}

// Close restores the previous log writer and closes the log file.  Safe to
// call more than once.
func (s *LogScope) Close() error {

	if s.closed {
		return nil
	}

	s.closed = true

	log.SetOutput(s.prev)

	err := s.file.Close()

	if err != nil {
		return fmt.Errorf("error closing log file: %w", err)
	}

	return nil
}
