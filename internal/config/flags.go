package config

import "github.com/urfave/cli"

// Flags returns the CLI flag table shared by both binaries, modeled
// directly on client/main.go's/server/main.go's myApp.Flags tables.
// Each binary's main picks the subset it cares about out of the
// resulting Config.
func Flags() []cli.Flag {
	return []cli.Flag{
		cli.StringFlag{Name: "listen,l", Value: ":29900", Usage: "trace-service listen address"},
		cli.StringFlag{Name: "helpers", Usage: "comma-separated helper endpoints, in live-index order"},
		cli.StringFlag{Name: "transport", Value: "kcp", Usage: "kcp or tcp"},
		cli.StringFlag{Name: "crypt", Value: "aes", Usage: "aes, aes-128, aes-128-gcm, aes-192, salsa20, blowfish, twofish, cast5, 3des, tea, xtea, xor, sm4, none, null"},
		cli.StringFlag{Name: "key", Value: "it's a secret", Usage: "pre-shared secret between coordinator and node", EnvVar: "TR_KEY"},

		cli.IntFlag{Name: "mtu", Value: 1350, Usage: "maximum transmission unit for UDP packets"},
		cli.IntFlag{Name: "sndwnd", Value: 1024, Usage: "send window size(num of packets)"},
		cli.IntFlag{Name: "rcvwnd", Value: 1024, Usage: "receive window size(num of packets)"},
		cli.IntFlag{Name: "datashard,ds", Value: 10, Usage: "KCP FEC data shard count"},
		cli.IntFlag{Name: "parityshard,ps", Value: 3, Usage: "KCP FEC parity shard count"},
		cli.IntFlag{Name: "sockbuf", Value: 4194304, Usage: "per-socket buffer in bytes"},
		cli.IntFlag{Name: "smuxver", Value: 2, Usage: "smux protocol version, 1 or 2"},
		cli.IntFlag{Name: "smuxbuf", Value: 4194304, Usage: "overall de-mux buffer in bytes"},
		cli.IntFlag{Name: "framesize", Value: 8192, Usage: "smux max frame size"},
		cli.IntFlag{Name: "streambuf", Value: 2097152, Usage: "per-stream receive buffer in bytes, smux v2+"},
		cli.IntFlag{Name: "keepalive", Value: 10, Usage: "seconds between heartbeats"},
		cli.BoolFlag{Name: "nocomp", Usage: "disable snappy compression of trace streams"},

		cli.IntFlag{Name: "n", Value: 9, Usage: "total shard count"},
		cli.IntFlag{Name: "k", Value: 6, Usage: "data shard count"},
		cli.IntFlag{Name: "m", Value: 3, Usage: "parity shard count"},
		cli.IntFlag{Name: "t", Value: 8, Usage: "trace bit width"},

		cli.StringFlag{Name: "blockdir", Value: "", Usage: "local on-disk shard root (repair node)"},

		cli.IntFlag{Name: "timeout", Value: 2000, Usage: "per-read timeout in milliseconds"},
		cli.IntFlag{Name: "buffersize", Value: 4096, Usage: "read buffer chunk size in bytes"},

		cli.StringFlag{Name: "metricslog", Value: "", Usage: "append repair-timing events to this file"},
		cli.StringFlag{Name: "log", Value: "", Usage: "log file to output, default goes to stderr"},
		cli.BoolFlag{Name: "quiet", Usage: "suppress per-stream open/close messages"},

		cli.StringFlag{Name: "c", Value: "", Usage: "config from json file, overriding the flags above"},
	}
}

// FromContext builds a Config from parsed flags, then applies a JSON
// override file if "-c" was given, matching server/main.go's own
// flags-then-JSON-override sequencing.
func FromContext(c *cli.Context) (Config, error) {
	cfg := Config{
		Listen:        c.String("listen"),
		Transport:     c.String("transport"),
		Crypt:         c.String("crypt"),
		Key:           c.String("key"),
		MTU:           c.Int("mtu"),
		SndWnd:        c.Int("sndwnd"),
		RcvWnd:        c.Int("rcvwnd"),
		DataShard:     c.Int("datashard"),
		ParityShard:   c.Int("parityshard"),
		SockBuf:       c.Int("sockbuf"),
		SmuxVer:       c.Int("smuxver"),
		SmuxBuf:       c.Int("smuxbuf"),
		FrameSize:     c.Int("framesize"),
		StreamBuf:     c.Int("streambuf"),
		KeepAlive:     c.Int("keepalive"),
		NoComp:        c.Bool("nocomp"),
		N:             c.Int("n"),
		K:             c.Int("k"),
		M:             c.Int("m"),
		T:             c.Int("t"),
		BlockDir:      c.String("blockdir"),
		TimeoutMillis: c.Int("timeout"),
		BufferSize:    c.Int("buffersize"),
		MetricsLog:    c.String("metricslog"),
		Log:           c.String("log"),
		Quiet:         c.Bool("quiet"),
	}
	if helpers := c.String("helpers"); helpers != "" {
		cfg.Helpers = splitNonEmpty(helpers, ',')
	}
	if path := c.String("c"); path != "" {
		if err := Load(&cfg, path); err != nil {
			return cfg, err
		}
	}
	return cfg, nil
}

func splitNonEmpty(s string, sep byte) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == sep {
			if i > start {
				out = append(out, s[start:i])
			}
			start = i + 1
		}
	}
	if start < len(s) {
		out = append(out, s[start:])
	}
	return out
}
