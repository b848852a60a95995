// Command repair-node runs the helper-side daemon: it stores its
// share of a stripe locally and answers repair-trace requests over
// the configured transport, computing each requested trace from its
// stored shard with internal/trace's Encoder.EmitHelperTrace.
// Structured the way kcptun's server/main.go builds
// its cli.App, startup log summary, and listener loop.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/fatih/color"
	"github.com/urfave/cli"

	"github.com/kinda-raffy/HDFS-Trace-Repair/internal/blockstore"
	"github.com/kinda-raffy/HDFS-Trace-Repair/internal/config"
	"github.com/kinda-raffy/HDFS-Trace-Repair/internal/crypt"
	"github.com/kinda-raffy/HDFS-Trace-Repair/internal/trace"
	"github.com/kinda-raffy/HDFS-Trace-Repair/internal/transport"
)

// VERSION is injected by build flags when packaging official binaries.
var VERSION = "SELFBUILD"

func main() {
	if VERSION == "SELFBUILD" {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	}

	app := cli.NewApp()
	app.Name = "repair-node"
	app.Usage = "trace-repair helper daemon"
	app.Version = VERSION
	app.Flags = config.Flags()
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

	if cfg.Log != "" {
		f, err := os.OpenFile(cfg.Log, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
		if err != nil {
			return err
		}
		defer f.Close()
		log.SetOutput(f)
	}

	key := crypt.DeriveKey(cfg.Key)
	block, cryptName := crypt.Select(cfg.Crypt, key)

	enc, err := trace.NewEncoder(cfg.K, cfg.M)
	if err != nil {
		return err
	}
	store := &blockstore.LocalShardStore{Root: cfg.BlockDir}

	color.Green("repair-node starting")
	log.Println("version:", VERSION)
	log.Println("listen:", cfg.Listen)
	log.Println("transport:", cfg.Transport)
	log.Println("encryption:", cryptName)
	log.Println("codec: n=", cfg.N, "k=", cfg.K, "m=", cfg.M, "t=", cfg.T)
	log.Println("blockdir:", cfg.BlockDir)
	log.Println("compression:", !cfg.NoComp)

	provide := func(helperIndex, erasedIndex, decodeLength int) ([]byte, error) {
		shard, err := store.ReadShard(stripeIDFor(helperIndex), helperIndex)
		if err != nil {
			return nil, err
		}
		return enc.EmitHelperTrace(helperIndex, erasedIndex, shard, decodeLength)
	}

	smuxParams := smuxParamsFromConfig(cfg)
	switch cfg.Transport {
	case "tcp":
		return transport.ServeTCPRaw(cfg.Listen, block, cfg.DataShard, cfg.ParityShard, smuxParams, provide)
	default:
		return transport.ServeKCP(cfg.Listen, block, cfg.DataShard, cfg.ParityShard, smuxParams, provide)
	}
}

func smuxParamsFromConfig(cfg config.Config) transport.SmuxParams {
	return transport.SmuxParams{
		Version:          cfg.SmuxVer,
		MaxReceiveBuffer: cfg.SmuxBuf,
		MaxStreamBuffer:  cfg.StreamBuf,
		MaxFrameSize:     cfg.FrameSize,
		KeepAliveSeconds: cfg.KeepAlive,
		Compress:         !cfg.NoComp,
	}
}

// stripeIDFor is a placeholder identity scheme: a production
// deployment resolves the active stripe from the request itself or
// from out-of-band placement metadata (internal/blockstore's
// PlacementLookup), not from the helper index alone.
func stripeIDFor(helperIndex int) string {
	return fmt.Sprintf("stripe-%d", helperIndex)
}
