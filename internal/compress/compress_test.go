package compress

import (
	"net"
	"testing"
)

func TestStreamRoundTrip(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()
	defer serverConn.Close()

	client := NewStream(clientConn)
	server := NewStream(serverConn)

	payload := []byte("repair trace payload, repeated repeated repeated")
	done := make(chan error, 1)
	go func() {
		_, err := client.Write(payload)
		done <- err
	}()

	buf := make([]byte, len(payload))
	n, err := readFull(server, buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if err := <-done; err != nil {
		t.Fatalf("write: %v", err)
	}
	if n != len(payload) {
		t.Fatalf("read %d bytes, want %d", n, len(payload))
	}
	if string(buf) != string(payload) {
		t.Fatalf("got %q, want %q", buf, payload)
	}
}

func readFull(r interface{ Read([]byte) (int, error) }, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := r.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
