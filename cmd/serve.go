/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/allbin/serialmon"
	"github.com/allbin/serialmon/internal/httpapi"
	"github.com/allbin/serialmon/session"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the monitor over HTTP",
	Long: `Serve the selected port over a small HTTP API so status bars and
scripts can open, close, write and read it.

  GET  /status           port, open state and baud rate
  GET  /ports            attached ports
  POST /open, /close     open or close the monitor
  PUT  /port             {"port": "..."} or {"vid": "...", "pid": "..."}
  PUT  /baud             {"baud_rate": 115200}
  POST /send             {"text": "..."}
  GET  /output?offset=N  bytes received since offset

Under systemd (Type=notify) readiness is reported once the listener is up.

Example usage:
  serialmon serve --addr 127.0.0.1:8047 --open`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		openOnStart, _ := cmd.Flags().GetBool("open")
		return runServe(cmd.Context(), viper.GetString("http.addr"), openOnStart)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "127.0.0.1:8047", "Listen address")
	serveCmd.Flags().Bool("open", false, "Open the selected port on start")
	viper.BindPFlag("http.addr", serveCmd.Flags().Lookup("addr"))
}

// newServeBuffer returns the output buffer for serve. A transport error
// calls refresh so status hooks see the port drop to closed.
func newServeBuffer(refresh func()) *httpapi.Buffer {
	return httpapi.NewBuffer(serialmon.SinkFuncs{
		Error: func(error) { refresh() },
	})
}

func runServe(ctx context.Context, addr string, openOnStart bool) error {
	var a *app
	buffer := newServeBuffer(func() { a.sess.Refresh() })
	statusChanged := func(st session.Status) {
		a.log.Info().Str("port", st.Port).Bool("open", st.Open).Str("baud", st.BaudRate).Msg("status changed")
	}
	a, err := newApp(ctx, viper.GetViper(), withSink(buffer), withStatusHook(statusChanged))
	if err != nil {
		return err
	}
	defer a.Close()

	log := a.log.With().Str("component", "http").Logger()

	if openOnStart {
		notice, err := a.sess.Open(ctx)
		if err != nil {
			log.Error().Err(err).Msg("failed to open serial port on start")
		} else if notice != serialmon.NoticeNone {
			log.Warn().Msg(notice.String())
		}
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:      httpapi.NewHandler(a.sess, buffer, log).Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", ln.Addr().String()).Msg("listening")
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		daemon.SdNotify(false, daemon.SdNotifyStopping)
		log.Info().Msg("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return a.sess.Shutdown(shutdownCtx)
	})

	if _, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		log.Debug().Err(err).Msg("failed to notify systemd")
	}

	return g.Wait()
}
