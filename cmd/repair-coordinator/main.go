// Command repair-coordinator drives one repair: given a stripe's live
// helper endpoints and an erased index, it fetches repair traces
// concurrently (internal/coordinator) and decodes the original shard
// (internal/trace). Structured the way kcptun's client/main.go builds
// its cli.App and startup log summary.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/urfave/cli"

	"github.com/kinda-raffy/HDFS-Trace-Repair/internal/config"
	"github.com/kinda-raffy/HDFS-Trace-Repair/internal/coordinator"
	"github.com/kinda-raffy/HDFS-Trace-Repair/internal/crypt"
	"github.com/kinda-raffy/HDFS-Trace-Repair/internal/metrics"
	"github.com/kinda-raffy/HDFS-Trace-Repair/internal/transport"
)

// VERSION is injected by build flags when packaging official binaries.
var VERSION = "SELFBUILD"

func main() {
	if VERSION == "SELFBUILD" {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	}

	app := cli.NewApp()
	app.Name = "repair-coordinator"
	app.Usage = "trace-repair coordinator"
	app.Version = VERSION
	app.Flags = append(config.Flags(),
		cli.IntFlag{Name: "erased", Value: -1, Usage: "erased shard index to repair (required)"},
		cli.IntFlag{Name: "length", Value: 0, Usage: "decode length in bytes (required)"},
		cli.StringFlag{Name: "stripe", Value: "stripe-0", Usage: "stripe identity, used to label this repair's metrics events"},
		cli.StringFlag{Name: "out", Value: "", Usage: "write the repaired shard to this path instead of stdout"},
	)
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		log.Printf("%+v\n", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	cfg, err := config.FromContext(c)
	if err != nil {
		return err
	}
	erasedIndex := c.Int("erased")
	decodeLength := c.Int("length")
	if erasedIndex < 0 {
		return fmt.Errorf("repair-coordinator: -erased is required")
	}
	if decodeLength <= 0 {
		return fmt.Errorf("repair-coordinator: -length must be positive")
	}
	if len(cfg.Helpers) == 0 {
		return fmt.Errorf("repair-coordinator: -helpers is required")
	}

	key := crypt.DeriveKey(cfg.Key)
	block, cryptName := crypt.Select(cfg.Crypt, key)

	color.Green("repair-coordinator starting")
	log.Println("version:", VERSION)
	log.Println("transport:", cfg.Transport)
	log.Println("encryption:", cryptName)
	log.Println("codec: n=", cfg.N, "k=", cfg.K, "m=", cfg.M, "t=", cfg.T)
	log.Println("helpers:", cfg.Helpers)
	log.Println("erased index:", erasedIndex)
	log.Println("decode length:", decodeLength)

	sink := metrics.NewSink(cfg.MetricsLog)
	label := fmt.Sprintf("stripe=%s erased=%d", c.String("stripe"), erasedIndex)
	sink.Start("repair", label)

	smuxParams := transport.SmuxParams{
		Version:          cfg.SmuxVer,
		MaxReceiveBuffer: cfg.SmuxBuf,
		MaxStreamBuffer:  cfg.StreamBuf,
		MaxFrameSize:     cfg.FrameSize,
		KeepAliveSeconds: cfg.KeepAlive,
		Compress:         !cfg.NoComp,
	}

	liveIndices := make([]int, 0, len(cfg.Helpers))
	sources := make([]coordinator.Source, 0, len(cfg.Helpers))
	for _, addr := range cfg.Helpers {
		li, helperIndex := nextLiveIndex(liveIndices, erasedIndex)
		liveIndices = append(liveIndices, li)

		if cfg.Transport == "tcp" {
			sources = append(sources, &transport.TCPRawSource{
				RemoteAddr: addr, Block: block,
				DataShards: cfg.DataShard, ParityShards: cfg.ParityShard,
				HelperIndex: helperIndex, ErasedIndex: erasedIndex, DecodeLength: decodeLength,
				Smux: smuxParams,
			})
		} else {
			sources = append(sources, &transport.KCPSource{
				RemoteAddr: addr, Block: block,
				DataShards: cfg.DataShard, ParityShards: cfg.ParityShard,
				HelperIndex: helperIndex, ErasedIndex: erasedIndex, DecodeLength: decodeLength,
				Smux: smuxParams,
			})
		}
	}

	coord, err := coordinator.New(cfg.N, erasedIndex, liveIndices, sources, coordinator.Config{
		Timeout:    time.Duration(cfg.TimeoutMillis) * time.Millisecond,
		BufferSize: cfg.BufferSize,
	})
	if err != nil {
		sink.End("repair", label)
		return err
	}

	ctx := context.Background()
	repaired, err := coord.Repair(ctx, decodeLength)
	sink.End("repair", label)
	if err != nil {
		return err
	}

	out := c.String("out")
	if out == "" {
		_, err = os.Stdout.Write(repaired)
		return err
	}
	return os.WriteFile(out, repaired, 0o644)
}

// nextLiveIndex assigns the next live (compacted) index in helper
// order and returns it alongside the full-index-space helper index it
// maps to, per spec §4.E step 2's compacted-to-full mapping.
func nextLiveIndex(existing []int, erasedIndex int) (liveIndex, helperIndex int) {
	liveIndex = len(existing)
	if liveIndex < erasedIndex {
		helperIndex = liveIndex
	} else {
		helperIndex = liveIndex + 1
	}
	return liveIndex, helperIndex
}
