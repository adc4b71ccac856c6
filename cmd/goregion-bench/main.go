// Command goregion-bench drives a short concurrent stress run across all
// three pool families, the way cmd/pjrt_installer in the source drives a
// one-shot operation from a flag-parsed CLI. It also doubles as the
// module's one process-level entry point, so GOMAXPROCS/GOMEMLIMIT
// container-awareness (automaxprocs, automemlimit) has somewhere real to
// run: library packages never call os.Exit or mutate process-wide runtime
// limits on their own behalf.
package main

import (
	"context"
	"flag"
	"runtime"
	"time"

	"github.com/KimMachineGun/automemlimit/memlimit"
	"github.com/pkg/errors"
	"go.uber.org/automaxprocs/maxprocs"
	"golang.org/x/sync/errgroup"
	"k8s.io/klog/v2"

	"github.com/arenakit/goregion/blockpool"
	"github.com/arenakit/goregion/chainedpool"
	"github.com/arenakit/goregion/stackregion"
)

var (
	flagWorkers    = flag.Int("workers", 8, "number of concurrent goroutines hammering each pool")
	flagIterations = flag.Int("iterations", 200000, "allocate/release iterations per worker")
)

type widget struct {
	ID  int
	Tag [3]int64
}

func main() {
	flag.Parse()

	undoMaxProcs, err := maxprocs.Set(maxprocs.Logger(klog.Infof))
	if err != nil {
		klog.Warningf("automaxprocs: leaving GOMAXPROCS at %d: %v", runtime.GOMAXPROCS(0), err)
	} else {
		defer undoMaxProcs()
	}

	if _, err := memlimit.SetGoMemLimitWithOpts(
		memlimit.WithRatio(0.9),
		memlimit.WithProvider(memlimit.FromCgroup),
	); err != nil {
		klog.Warningf("automemlimit: leaving GOMEMLIMIT unset: %v", err)
	}

	if err := run(context.Background()); err != nil {
		klog.Fatalf("goregion-bench: %v", err)
	}
}

func run(ctx context.Context) error {
	start := time.Now()

	concurrentBlock, err := blockpool.NewConcurrent[widget](*flagWorkers * 64)
	if err != nil {
		return errors.Wrap(err, "constructing concurrent block pool")
	}
	concurrentChain, err := chainedpool.NewConcurrent[widget](256, 64)
	if err != nil {
		return errors.Wrap(err, "constructing concurrent chained pool")
	}

	g, _ := errgroup.WithContext(ctx)
	for w := 0; w < *flagWorkers; w++ {
		w := w
		g.Go(func() error {
			for i := 0; i < *flagIterations; i++ {
				if ptr, ok := concurrentBlock.Create(widget{ID: w*1_000_000 + i}); ok {
					concurrentBlock.Destroy(ptr)
				}
				if ptr, ok := concurrentChain.Create(widget{ID: w*1_000_000 + i}); ok {
					concurrentChain.Destroy(ptr)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return errors.Wrap(err, "stress workers")
	}

	scratch := make([]byte, 1<<20)
	region := stackregion.New(scratch)
	for i := 0; i < *flagIterations; i++ {
		scope := region.Enter()
		region.Allocate(64)
		scope.Close()
	}

	klog.Infof(
		"goregion-bench: %d workers x %d iterations across block+chain+stack pools in %s (used=%d+%d bytes)",
		*flagWorkers, *flagIterations, time.Since(start),
		concurrentBlock.UsedMemory(), concurrentChain.UsedMemory(),
	)
	return nil
}
