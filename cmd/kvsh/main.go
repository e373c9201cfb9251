package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"sort"

	"k8s.io/klog/v2"

	"github.com/myuser/txkv/internal/config"
	"github.com/myuser/txkv/internal/metrics"
	"github.com/myuser/txkv/internal/shell"
	"github.com/myuser/txkv/internal/storage"
)

func main() {
	klog.InitFlags(nil)
	configPath := flag.String("config", "", "Path to YAML config file")
	prompt := flag.String("prompt", "", "Prompt (overrides config)")
	echo := flag.Bool("echo", false, "Echo statements (overrides config)")
	metricsAddr := flag.String("metrics-addr", "", "Serve Prometheus metrics on this address (overrides config)")
	dump := flag.Bool("dump", false, "Print committed contents on exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		klog.Fatalf("Failed to load config: %v", err)
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "prompt":
			cfg.Prompt = *prompt
		case "echo":
			cfg.Echo = *echo
		case "metrics-addr":
			cfg.MetricsAddr = *metricsAddr
		}
	})

	var ln net.Listener
	if cfg.MetricsAddr != "" {
		ln, err = net.Listen("tcp", cfg.MetricsAddr)
		if err != nil {
			klog.Fatalf("Metrics listen failed: %v", err)
		}
	}

	err = run(cfg, ln, os.Stdin, os.Stdout, *dump)
	klog.Flush()
	if err != nil {
		os.Exit(1)
	}
}

// run drives one shell session. When ln is non-nil it serves /metrics on it
// until the session ends. Only input read errors are returned.
func run(cfg config.Config, ln net.Listener, in io.Reader, out io.Writer, dump bool) error {
	reg := metrics.NewRegistry()
	store := storage.NewMemoryStore(storage.WithObserver(reg))

	if ln != nil {
		mux := http.NewServeMux()
		mux.Handle("/metrics", reg.Handler())
		srv := &http.Server{Handler: mux}
		go func() {
			if err := srv.Serve(ln); err != http.ErrServerClosed {
				klog.Errorf("Metrics listener failed: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		klog.Infof("Serving metrics on %s", ln.Addr())
	}

	sh := &shell.Shell{Engine: store, Out: out, Prompt: cfg.Prompt, Echo: cfg.Echo}
	stats, err := sh.Run(in)
	if err != nil {
		klog.Errorf("Reading input: %v", err)
	}
	klog.V(1).Infof("Executed %d statements, %d errors", stats.Statements, stats.Errors)

	if dump {
		snap := store.Snapshot()
		keys := make([]string, 0, len(snap))
		for k := range snap {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(out, "%s\t%d\n", k, snap[k])
		}
	}
	return err
}
