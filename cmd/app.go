/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/allbin/serialmon"
	"github.com/allbin/serialmon/driver/bugst"
	"github.com/allbin/serialmon/internal/store"
	"github.com/allbin/serialmon/session"
)

// app is the wiring shared by all commands
type app struct {
	cfg   appConfig
	log   zerolog.Logger
	store *store.File
	ctrl  *serialmon.Controller
	sess  *session.Session

	logFile *os.File
}

type appOptions struct {
	sink    serialmon.Sink
	chooser session.Chooser
	hooks   []func(session.Status)
	// quiet discards logs unless a log file is configured
	quiet bool
}

type appOption func(*appOptions)

func withSink(sink serialmon.Sink) appOption {
	return func(o *appOptions) { o.sink = sink }
}

func withChooser(chooser session.Chooser) appOption {
	return func(o *appOptions) { o.chooser = chooser }
}

func withStatusHook(fn func(session.Status)) appOption {
	return func(o *appOptions) { o.hooks = append(o.hooks, fn) }
}

func quietLogs() appOption {
	return func(o *appOptions) { o.quiet = true }
}

func newDriver(cfg appConfig, log zerolog.Logger) (serialmon.Driver, error) {
	switch cfg.Driver {
	case "termios":
		return newTermiosDriver(log)
	default:
		return bugst.New(bugst.WithLogger(log)), nil
	}
}

func newApp(ctx context.Context, v *viper.Viper, opts ...appOption) (*app, error) {
	var o appOptions
	for _, opt := range opts {
		opt(&o)
	}

	cfg, err := loadConfig(v)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg}
	switch {
	case cfg.LogFile != "":
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		a.logFile = f
		a.log = newLogger(cfg.LogLevel, f, false)
	case o.quiet:
		a.log = zerolog.Nop()
	default:
		a.log = newLogger(cfg.LogLevel, os.Stderr, true)
	}

	statePath := cfg.StateFile
	if statePath == "" {
		if statePath, err = store.DefaultPath(); err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to locate state file: %w", err)
		}
	}
	a.store = store.NewFile(statePath)

	driver, err := newDriver(cfg, a.log)
	if err != nil {
		a.Close()
		return nil, err
	}

	ctrlOpts := []serialmon.Option{serialmon.WithLogger(a.log)}
	if o.sink != nil {
		ctrlOpts = append(ctrlOpts, serialmon.WithSink(o.sink))
	}
	if cfg.BaudRate > 0 {
		ctrlOpts = append(ctrlOpts, serialmon.WithBaudRate(cfg.BaudRate))
	}
	if cfg.ProbePayload != "" {
		ctrlOpts = append(ctrlOpts, serialmon.WithProbePayload([]byte(cfg.ProbePayload)))
	}
	if cfg.Timeout > 0 {
		ctrlOpts = append(ctrlOpts, serialmon.WithOperationTimeout(cfg.Timeout))
	}
	if a.ctrl, err = serialmon.New(driver, ctrlOpts...); err != nil {
		a.Close()
		return nil, err
	}

	sessOpts := []session.Option{session.WithStore(a.store), session.WithLogger(a.log)}
	if o.chooser != nil {
		sessOpts = append(sessOpts, session.WithChooser(o.chooser))
	}
	for _, fn := range o.hooks {
		sessOpts = append(sessOpts, session.WithStatusHook(fn))
	}
	if a.sess, err = session.New(ctx, a.ctrl, sessOpts...); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

// filter returns the USB filter from flags, falling back to config
func (a *app) filter(vid, pid string) serialmon.DeviceFilter {
	if vid == "" && pid == "" {
		vid, pid = a.cfg.Filter.VID, a.cfg.Filter.PID
	}
	return serialmon.DeviceFilter{VendorID: vid, ProductID: pid}
}

// Close shuts the session down and releases the log file
func (a *app) Close() error {
	var err error
	if a.sess != nil {
		err = a.sess.Shutdown(context.Background())
	}
	if a.logFile != nil {
		a.logFile.Close()
	}
	return err
}

// report prints a notice; it returns err unchanged
func report(w io.Writer, notice serialmon.Notice, err error) error {
	if err != nil {
		return err
	}
	if notice != serialmon.NoticeNone {
		fmt.Fprintln(w, notice.String())
	}
	return nil
}
