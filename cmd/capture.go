/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/allbin/serialmon"
)

// captureCmd represents the capture command
var captureCmd = &cobra.Command{
	Use:   "capture <output-file>",
	Short: "Capture serial data to a file",
	Long: `Capture incoming data from the selected serial port to a file.

Received bytes are written verbatim. Runs until interrupted (Ctrl+C), the
port fails, or --duration has passed.

The output file is opened in append mode, allowing you to resume captures
without overwriting existing data.

Example usage:
  serialmon capture data.log
  serialmon capture capture.log --console
  serialmon capture boot.log --duration 30s`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		showConsole, _ := cmd.Flags().GetBool("console")
		duration, _ := cmd.Flags().GetDuration("duration")
		return runCapture(cmd.Context(), cmd.ErrOrStderr(), args[0], showConsole, duration)
	},
}

func init() {
	rootCmd.AddCommand(captureCmd)

	captureCmd.Flags().BoolP("console", "c", false, "Display incoming data on console while capturing")
	captureCmd.Flags().DurationP("duration", "d", 0, "Stop after this long (default: until interrupted)")
}

// countingWriter counts bytes written through it
type countingWriter struct {
	w io.Writer
	n atomic.Int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n.Add(int64(n))
	return n, err
}

func runCapture(ctx context.Context, stderr io.Writer, outputPath string, showConsole bool, duration time.Duration) error {
	file, err := os.OpenFile(outputPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open output file: %w", err)
	}
	defer file.Close()

	var w io.Writer = file
	if showConsole {
		w = io.MultiWriter(file, os.Stdout)
	}
	counter := &countingWriter{w: w}

	errCh := make(chan error, 1)
	sink := serialmon.NewWriterSink(counter, func(err error) {
		select {
		case errCh <- err:
		default:
		}
	})

	a, err := newApp(ctx, viper.GetViper(), withSink(sink))
	if err != nil {
		return err
	}
	defer a.Close()

	notice, err := a.sess.Open(ctx)
	if err != nil {
		return err
	}
	if notice == serialmon.NoticeNoSelection {
		return fmt.Errorf("%s, run \"serialmon select\" first", notice)
	}

	fmt.Fprintf(stderr, "Capturing data from %s to %s\n", a.sess.Port(), outputPath)
	fmt.Fprintf(stderr, "Press Ctrl+C to stop\n\n")

	var timeout <-chan time.Time
	if duration > 0 {
		timeout = time.After(duration)
	}

	startTime := time.Now()
	select {
	case <-ctx.Done():
	case <-timeout:
	case err = <-errCh:
	}

	if _, closeErr := a.sess.Close(context.Background()); closeErr != nil && err == nil {
		err = closeErr
	}
	fmt.Fprintf(stderr, "\nCapture complete: %d bytes written in %v\n", counter.n.Load(), time.Since(startTime).Round(time.Millisecond))
	return err
}
