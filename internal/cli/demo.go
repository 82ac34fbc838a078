package cli

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/rileyhilliard/provmon/internal/demo"
	"github.com/rileyhilliard/provmon/internal/errors"
	"github.com/rileyhilliard/provmon/internal/logger"
	"github.com/rileyhilliard/provmon/internal/ui"
)

// DemoOptions holds the flags of 'demo-endpoint'.
type DemoOptions struct {
	Addr      string
	Providers int
	Seed      int64
}

const demoShutdownTimeout = 5 * time.Second

// demoCommand serves synthetic status until ctx is cancelled.
func demoCommand(ctx context.Context, w io.Writer, opts DemoOptions) error {
	ln, err := net.Listen("tcp", opts.Addr)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			fmt.Sprintf("Can't listen on %s", opts.Addr),
			"Pick a free port with --addr, e.g. --addr :8081")
	}
	return serveDemo(ctx, w, ln, opts)
}

func serveDemo(ctx context.Context, w io.Writer, ln net.Listener, opts DemoOptions) error {
	server := demo.New(demo.Options{
		Providers: opts.Providers,
		Seed:      opts.Seed,
		Log:       logger.NewEnvLogger("[demo]"),
	})
	srv := &http.Server{
		Handler:           server.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	base := "http://" + ln.Addr().String()
	if machineMode {
		_ = WriteJSONSuccess(w, map[string]string{
			"providers_url": base + "/providers",
			"health_url":    base + "/healthz",
			"fail_url":      base + "/fail",
		})
	} else {
		fmt.Fprintf(w, "%s Serving synthetic providers at %s/providers\n", ui.SymbolSuccess, base)
		fmt.Fprintf(w, "  Failing endpoint for testing: %s/fail\n", base)
		fmt.Fprintln(w, "  Press Ctrl+C to stop.")
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Serve(ln)
	}()

	select {
	case err := <-serveErr:
		return errors.WrapWithCode(err, errors.ErrExec, "Demo endpoint stopped", "")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), demoShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.WrapWithCode(err, errors.ErrExec, "Demo endpoint didn't stop cleanly", "")
	}
	return nil
}
