package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math/rand"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"k8s.io/klog/v2"

	"github.com/myuser/txkv/internal/config"
	"github.com/myuser/txkv/internal/metrics"
	"github.com/myuser/txkv/internal/storage"
	"github.com/myuser/txkv/internal/txn"
)

func main() {
	klog.InitFlags(nil)
	concurrency := flag.Int("concurrency", 10, "Number of concurrent workers")
	duration := flag.Duration("duration", 10*time.Second, "Test duration")
	keySpace := flag.Int("keys", 10000, "Number of distinct keys")
	batch := flag.Int("batch", 4, "Puts per transaction")
	configPath := flag.String("config", "", "Path to YAML config file (retry section)")
	flag.Parse()
	defer klog.Flush()

	cfg, err := config.Load(*configPath)
	if err != nil {
		klog.Fatalf("Failed to load config: %v", err)
	}
	policy := cfg.RetryPolicy()

	fmt.Printf("Starting Benchmark: %d workers, %v duration, %d puts per transaction\n", *concurrency, *duration, *batch)

	reg := metrics.NewRegistry()
	store := storage.NewMemoryStore(storage.WithObserver(reg))

	var committed, gaveUp, reads int64
	start := time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < *concurrency; i++ {
		seed := int64(i)
		g.Go(func() error {
			rng := rand.New(rand.NewSource(seed))
			for ctx.Err() == nil {
				// Workload: one transaction of random puts, then a point read
				err := txn.RunWithRetry(ctx, store, policy, func(w txn.Writer) error {
					for j := 0; j < *batch; j++ {
						key := fmt.Sprintf("user%d", rng.Intn(*keySpace))
						if err := w.Put(key, rng.Int63n(1000)); err != nil {
							return err
						}
					}
					return nil
				})
				switch {
				case err == nil:
					atomic.AddInt64(&committed, 1)
				case errors.Is(err, storage.ErrTxnInProgress):
					atomic.AddInt64(&gaveUp, 1)
				case ctx.Err() != nil:
					return nil
				default:
					return err
				}

				if _, _, err := store.Get(fmt.Sprintf("user%d", rng.Intn(*keySpace))); err != nil {
					return err
				}
				atomic.AddInt64(&reads, 1)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		klog.Fatalf("Worker failed: %v", err)
	}
	elapsed := time.Since(start)

	fmt.Println("Benchmark Finished.")
	fmt.Printf("Committed transactions: %d\n", committed)
	fmt.Printf("Gave up on busy slot: %d\n", gaveUp)
	fmt.Printf("Reads: %d\n", reads)
	fmt.Printf("Committed keys: %d\n", store.Len())
	fmt.Printf("Duration: %v\n", elapsed)
	fmt.Printf("TPS: %.2f\n", float64(committed)/elapsed.Seconds())

	families, err := reg.Gatherer().Gather()
	if err != nil {
		klog.Errorf("Gather metrics: %v", err)
		return
	}
	for _, mf := range families {
		if mf.GetName() != "txkv_operations_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			labels := ""
			for _, lp := range m.GetLabel() {
				labels += fmt.Sprintf("%s=%s ", lp.GetName(), lp.GetValue())
			}
			fmt.Printf("  %s-> %.0f\n", labels, m.GetCounter().GetValue())
		}
	}
}
