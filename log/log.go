package log

import (
	"fmt"
	"io"
	"log"
	"os"
)

var (
	// Log is the logger for normal use
	Log *log.Logger
	// Error is the Logger for errors
	Error *log.Logger
)

const (
	errLogName = "error.log"

	// maxErrLogSize caps the error log file. On Init a larger file is
	// rotated aside once so the log never grows unbounded between restarts.
	maxErrLogSize = 5 << 20
)

// Init creates logger instances for stdout and the error log file.
func Init() {
	initLogger()
	initErrorLogger()
}

func initLogger() {
	flag := log.Ldate | log.Ltime
	Log = log.New(os.Stdout, "", flag)
}

func initErrorLogger() {
	rotateIfLarge()

	f, err := os.OpenFile(errLogName, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0640)
	if err != nil {
		panic(err)
	}

	errHandler := io.MultiWriter(os.Stderr, f)
	flag := log.Ldate | log.Ltime | log.Lshortfile
	Error = log.New(errHandler, "", flag)
}

func rotateIfLarge() {
	info, err := os.Stat(errLogName)
	if err != nil || info.Size() < maxErrLogSize {
		return
	}

	if err := os.Rename(errLogName, errLogName+".1"); err != nil {
		// The Error logger does not exist yet, so report on stderr and keep
		// the cap effective by truncating in place.
		fmt.Fprintf(os.Stderr, "failed to rotate %s: %v, truncating instead\n", errLogName, err)

		if err := os.Truncate(errLogName, 0); err != nil {
			fmt.Fprintf(os.Stderr, "failed to truncate %s: %v\n", errLogName, err)
		}
	}
}

// UpdatePrefix Sets new prefix
func UpdatePrefix(prefix string) {
	if prefix != "" {
		prefix = fmt.Sprintf("[%s] ", prefix)
	}
	Log.SetPrefix(prefix)
	Error.SetPrefix(prefix)
}

// Printf is the alias for Log.Printf
func Printf(format string, v ...interface{}) {
	Log.Printf(format, v...)
}

// Println is the alias for Log.Println
func Println(v ...interface{}) {
	Log.Println(v...)
}
