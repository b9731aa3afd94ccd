package main

//go-build: CGO_ENABLED=0

import (
	"context"
	"flag"
	"fmt"
	"sync/atomic"
	"time"

	fx "github.com/keebworks/sidelink.go/pkg/framework"
	"github.com/keebworks/sidelink.go/pkg/link"
	"github.com/keebworks/sidelink.go/pkg/link/transport"
	"github.com/keebworks/sidelink.go/pkg/sim"
)

var (
	dropRate    = 0.01
	corruptRate = 0.01
	keysPerSec  = 20.0
	seed        = uint(1)
	duration    = 10 * time.Second
)

func init() {
	flag.Float64Var(&dropRate, "drop-rate", dropRate, "Per-word drop probability.")
	flag.Float64Var(&corruptRate, "corrupt-rate", corruptRate, "Per-word bit flip probability.")
	flag.Float64Var(&keysPerSec, "keys-per-sec", keysPerSec, "Key events per second per half.")
	flag.UintVar(&seed, "seed", seed, "Fault pattern seed.")
	flag.DurationVar(&duration, "duration", duration, "How long to run.")
}

func main() {
	flag.Parse()

	a, b := transport.Pipe(0)
	lineA := sim.NewFaultLine(a, uint32(seed))
	lineB := sim.NewFaultLine(b, uint32(seed)+1)
	lineA.DropRate, lineA.CorruptRate = dropRate, corruptRate
	lineB.DropRate, lineB.CorruptRate = dropRate, corruptRate

	var deliveredLeft, deliveredRight uint64

	left := link.NewEndpoint(lineA)
	left.Name = "left"
	left.Keys = link.HandleKeyFunc(func(context.Context, uint8, uint8, bool) {
		atomic.AddUint64(&deliveredLeft, 1)
	})
	left.Notifier = link.StateChangedFunc(func(_ context.Context, s link.State) {
		fmt.Printf("left: %v\n", s)
	})

	right := link.NewEndpoint(lineB)
	right.Name = "right"
	right.Initiator = true
	right.Keys = link.HandleKeyFunc(func(context.Context, uint8, uint8, bool) {
		atomic.AddUint64(&deliveredRight, 1)
	})
	right.Notifier = link.StateChangedFunc(func(_ context.Context, s link.State) {
		fmt.Printf("right: %v\n", s)
	})

	leftTypist := &sim.Typist{Endpoint: left, Rate: keysPerSec, Seed: uint32(seed) + 2}
	rightTypist := &sim.Typist{Endpoint: right, Rate: keysPerSec, Seed: uint32(seed) + 3}

	ctx, cancel := context.WithCancel(context.Background())
	timer := time.AfterFunc(duration, cancel)
	defer timer.Stop()

	runner := fx.NewRunnerWith(ctx).HandleSignals()
	runner.Go(
		fx.NamedRun("left", left),
		fx.NamedRun("right", right),
		leftTypist,
		rightTypist,
	)
	err := runner.Wait()

	fmt.Printf("left:  typed=%d received=%d dropped=%d corrupted=%d\n",
		leftTypist.Sent(), atomic.LoadUint64(&deliveredLeft), lineA.Dropped(), lineA.Corrupted())
	fmt.Printf("right: typed=%d received=%d dropped=%d corrupted=%d\n",
		rightTypist.Sent(), atomic.LoadUint64(&deliveredRight), lineB.Dropped(), lineB.Corrupted())
	for name, st := range map[string]link.Stats{"left": left.Stats(), "right": right.Stats()} {
		fmt.Printf("%s: frames=%d/%d checksum-drops=%d duplicates=%d gaps=%d retransmits=%d timeouts=%d\n",
			name, st.FramesIn, st.FramesOut, st.ChecksumDrops, st.Duplicates, st.Gaps,
			st.Retransmits, st.Timeouts)
	}
	if err != nil {
		fmt.Println(err)
	}
}
