package transport

import (
	"io"
	"log"

	kcp "github.com/xtaci/kcp-go/v5"
	"github.com/xtaci/smux"
	"github.com/xtaci/tcpraw"
)

// TraceProvider answers a single trace request on a repair node: given
// the helper index the requester wants this node to act as and the
// erased index it is filling in for, it returns the bytes of that
// helper's contribution for a decode of decodeLength bytes per shard
// (i.e. the output of trace.Encoder.EmitHelperTrace for that
// (helperIndex, erasedIndex) pair against this node's locally stored
// shard).
type TraceProvider func(helperIndex, erasedIndex, decodeLength int) ([]byte, error)

// ServeKCP listens for KCP sessions on laddr and answers trace
// requests with provide, mirroring server/main.go's main accept loop:
// one smux session per accepted connection, one goroutine per stream.
func ServeKCP(laddr string, block kcp.BlockCrypt, dataShards, parityShards int, smuxParams SmuxParams, provide TraceProvider) error {
	lis, err := kcp.ListenWithOptions(laddr, block, dataShards, parityShards)
	if err != nil {
		return err
	}
	return acceptLoop(lis, smuxParams, provide)
}

// ServeTCPRaw is the tcpraw-backed counterpart to ServeKCP, for
// operators who need a TCP-shaped fallback listener (server/main.go's
// config.TCP branch, tcpraw.Listen + kcp.ServeConn).
func ServeTCPRaw(laddr string, block kcp.BlockCrypt, dataShards, parityShards int, smuxParams SmuxParams, provide TraceProvider) error {
	conn, err := tcpraw.Listen("tcp", laddr)
	if err != nil {
		return err
	}
	lis, err := kcp.ServeConn(block, dataShards, parityShards, conn)
	if err != nil {
		return err
	}
	return acceptLoop(lis, smuxParams, provide)
}

func acceptLoop(lis *kcp.Listener, smuxParams SmuxParams, provide TraceProvider) error {
	for {
		conn, err := lis.AcceptKCP()
		if err != nil {
			return err
		}
		conn.SetStreamMode(true)
		conn.SetWriteDelay(false)
		go handleSession(conn, smuxParams, provide)
	}
}

func handleSession(conn io.ReadWriteCloser, smuxParams SmuxParams, provide TraceProvider) {
	defer conn.Close()
	smuxCfg, err := buildSmuxConfig(smuxParams)
	if err != nil {
		log.Printf("transport: invalid smux config: %v", err)
		return
	}
	session, err := smux.Server(maybeCompress(conn, smuxParams.Compress), smuxCfg)
	if err != nil {
		log.Printf("transport: smux handshake failed: %v", err)
		return
	}
	defer session.Close()
	for {
		stream, err := session.AcceptStream()
		if err != nil {
			return
		}
		go handleStream(stream, provide)
	}
}

func handleStream(stream io.ReadWriteCloser, provide TraceProvider) {
	defer stream.Close()
	req, err := readRequest(stream)
	if err != nil {
		log.Printf("transport: bad trace request: %v", err)
		return
	}
	trace, err := provide(int(req.HelperIndex), int(req.ErasedIndex), int(req.DecodeLength))
	if err != nil {
		log.Printf("transport: trace provider failed: %v", err)
		return
	}
	if err := writeTraceHeader(stream, int64(len(trace))); err != nil {
		log.Printf("transport: failed to write trace header: %v", err)
		return
	}
	if _, err := stream.Write(trace); err != nil {
		log.Printf("transport: failed to write trace payload: %v", err)
	}
}
