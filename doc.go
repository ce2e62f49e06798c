// Package serialmon manages a single logical connection to a serial device.
//
// A Controller owns at most one open Transport at a time. It serializes
// open, close, port changes and baud-rate changes, forwards inbound bytes to
// a Sink in arrival order and writes outbound text.
//
// # Basic Usage
//
//	ctrl, err := serialmon.New(bugst.New(),
//	    serialmon.WithPort("/dev/ttyACM0"),
//	    serialmon.WithBaudRate(115200),
//	    serialmon.WithSink(serialmon.NewWriterSink(os.Stdout, nil)),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if _, err := ctrl.Open(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer ctrl.Close(ctx)
//
//	err = ctrl.Send(ctx, "hello\n")
//
// # Lifecycle
//
// The connection moves between Idle, Opening, Open and Closing. Opening and
// Closing are transient. Right after the OS reports a port open the
// controller writes a short probe payload; the port counts as open only if
// that write succeeds.
//
// Operations that do nothing report a Notice rather than an error:
//
//	notice, err := ctrl.Open(ctx)
//	if notice == serialmon.NoticeAlreadyOpen {
//	    // the same port is already open
//	}
//
// # Error Handling
//
// Failures are *PortError values that match their kind with errors.Is:
//
//	if errors.Is(err, serialmon.ErrOpenFailed) {
//	    // port missing, permission denied or probe write rejected
//	}
//
// An unsolicited transport error moves an open connection back to Idle and
// is delivered once to Sink.HandleError. The controller never reconnects on
// its own.
package serialmon
