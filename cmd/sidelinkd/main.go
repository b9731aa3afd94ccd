package main

//go-build: CGO_ENABLED=0

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/golang/glog"

	fx "github.com/keebworks/sidelink.go/pkg/framework"
	"github.com/keebworks/sidelink.go/pkg/side"
)

func init() {
	side.SetupFlags()
}

func main() {
	flag.Parse()

	conf, err := side.Default()
	if err != nil {
		log.Fatalln(err)
	}
	s := conf.MustNewSide()

	runner := fx.NewRunner().HandleSignals()
	runner.Go(s)
	runner.Go(fx.NamedRun("stats", fx.RunFunc(func(ctx context.Context) error {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				glog.Infof("stats: %+v", s.Endpoint.Stats())
			}
		}
	})))
	if err := runner.Wait(); err != nil {
		glog.Exitln(err)
	}
}
