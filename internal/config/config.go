// Package config defines the configuration surface shared by
// cmd/repair-coordinator and cmd/repair-node, following
// server/config.go's JSON-overridable flat struct and
// client/main.go's/server/main.go's cli.App flag tables.
package config

import (
	"encoding/json"
	"os"
)

// Config holds every knob either binary understands. Both binaries
// share one struct, the same way kcptun's client and server configs
// carry overlapping KCP/smux fields even though each binary only
// reads the subset relevant to it. MTU, SndWnd, RcvWnd, SockBuf and
// Quiet are parsed but applied by neither binary, and Log is applied
// only by repair-node.
type Config struct {
	// Listen is the repair node's trace-service listen address.
	Listen string `json:"listen"`
	// Helpers lists coordinator-side helper endpoints, in live-index
	// order, for the shard layout being repaired.
	Helpers []string `json:"helpers"`

	Transport string `json:"transport"` // "kcp" or "tcp"
	Crypt     string `json:"crypt"`
	Key       string `json:"key"`

	MTU         int `json:"mtu"`
	SndWnd      int `json:"sndwnd"`
	RcvWnd      int `json:"rcvwnd"`
	DataShard   int `json:"datashard"`
	ParityShard int `json:"parityshard"`
	SockBuf     int `json:"sockbuf"`
	SmuxVer     int `json:"smuxver"`
	SmuxBuf     int `json:"smuxbuf"`
	FrameSize   int `json:"framesize"`
	StreamBuf   int `json:"streambuf"`
	KeepAlive   int `json:"keepalive"`
	NoComp      bool `json:"nocomp"`

	// N, K, M, T are the trace-repair codec parameters (spec §2):
	// total shards, data shards, parity shards, and trace bit width.
	N int `json:"n"`
	K int `json:"k"`
	M int `json:"m"`
	T int `json:"t"`

	// BlockDir is the repair node's local on-disk shard root.
	BlockDir string `json:"blockdir"`

	// TimeoutMillis bounds each issued read (coordinator.Config.Timeout).
	TimeoutMillis int `json:"timeout"`
	BufferSize    int `json:"buffersize"`

	MetricsLog string `json:"metricslog"`
	Log        string `json:"log"`
	Quiet      bool   `json:"quiet"`
}

// Load overrides cfg's fields from the JSON file at path, the same
// override-after-flags sequencing server/main.go/client/main.go use
// for their own "-c config.json" flag.
func Load(cfg *Config, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return json.NewDecoder(file).Decode(cfg)
}
