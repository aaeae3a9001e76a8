package logging

import (
	"fmt"
	"os"
	"sync"
	"time"
)

type Level int

const (
	FATAL Level = iota
	ERROR
	WARNING
	INFO
	DEBUG
)

var (
	mu    sync.Mutex
	quiet bool
)

// SetQuiet suppresses progress lines, regular records are still printed.
func SetQuiet(q bool) {
	mu.Lock()
	quiet = q
	mu.Unlock()
}

type Logger struct {
	Component string
	steps     map[string]time.Time
}

func NewLogger(component string) *Logger {
	return &Logger{Component: component, steps: make(map[string]time.Time)}
}

func (l *Logger) Printf(msg string, args ...interface{}) {
	l.record(INFO, fmt.Sprintf(msg, args...))
}

func (l *Logger) Print(args ...interface{}) {
	l.record(INFO, fmt.Sprint(args...))
}

func (l *Logger) Warnf(msg string, args ...interface{}) {
	l.record(WARNING, fmt.Sprintf(msg, args...))
}

func (l *Logger) Errorf(msg string, args ...interface{}) {
	l.record(ERROR, fmt.Sprintf(msg, args...))
}

func (l *Logger) Fatal(args ...interface{}) {
	l.record(FATAL, fmt.Sprint(args...))
	os.Exit(1)
}

func (l *Logger) Fatalf(msg string, args ...interface{}) {
	l.record(FATAL, fmt.Sprintf(msg, args...))
	os.Exit(1)
}

// Progress prints a transient status line, dropped in quiet mode.
func (l *Logger) Progress(msg string, args ...interface{}) {
	mu.Lock()
	defer mu.Unlock()
	if quiet {
		return
	}
	printPrefix(l.Component)
	fmt.Printf(msg, args...)
	fmt.Println()
}

// StartStep logs the start of a named step and returns its name for
// StopStep, which prints the elapsed time.
func (l *Logger) StartStep(name string) string {
	mu.Lock()
	l.steps[name] = time.Now()
	mu.Unlock()
	l.record(INFO, name)
	return name
}

func (l *Logger) StopStep(name string) {
	mu.Lock()
	start, ok := l.steps[name]
	delete(l.steps, name)
	mu.Unlock()
	if !ok {
		return
	}
	l.record(INFO, name+" took: "+time.Since(start).String())
}

var levelPrefix = map[Level]string{
	FATAL:   "[fatal] ",
	ERROR:   "[error] ",
	WARNING: "[warn] ",
	DEBUG:   "[debug] ",
}

func (l *Logger) record(level Level, msg string) {
	mu.Lock()
	defer mu.Unlock()
	printPrefix(l.Component)
	fmt.Println(levelPrefix[level] + msg)
}

func printPrefix(component string) {
	fmt.Print("[", time.Now().Format(time.Stamp), "] ")
	if component != "" {
		fmt.Print("[", component, "] ")
	}
}
