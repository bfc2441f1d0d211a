// Package marktest runs an in-process Mark Protocol server over QUIC for
// tests. Pages are served from memory and the server presents an ephemeral
// self-signed certificate, so clients must connect with Insecure set.
package marktest

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"io"
	"math/big"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/latebit/wikirace/internal/protocol"
	"github.com/quic-go/quic-go"
)

// Server serves a fixed set of markdown pages keyed by request path
// (e.g. "/Fruit.md").
type Server struct {
	// Addr is the host:port the server listens on.
	Addr string

	ln *quic.Listener

	mu    sync.Mutex
	pages map[string]string
	hits  map[string]int
}

// New starts a server on an ephemeral loopback port.
func New(pages map[string]string) (*Server, error) {
	tlsConf, err := selfSignedConfig()
	if err != nil {
		return nil, fmt.Errorf("generating certificate: %w", err)
	}
	ln, err := quic.ListenAddr("127.0.0.1:0", tlsConf, nil)
	if err != nil {
		return nil, fmt.Errorf("listen: %w", err)
	}

	s := &Server{
		Addr:  ln.Addr().String(),
		ln:    ln,
		pages: make(map[string]string, len(pages)),
		hits:  make(map[string]int),
	}
	for p, body := range pages {
		s.pages[p] = body
	}
	go s.serve()
	return s, nil
}

// Start is New for tests: it fails t on error and closes the server when the
// test ends.
func Start(t testing.TB, pages map[string]string) *Server {
	t.Helper()
	s, err := New(pages)
	if err != nil {
		t.Fatalf("marktest: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// Close stops accepting connections.
func (s *Server) Close() error {
	return s.ln.Close()
}

// SetPage adds or replaces a page.
func (s *Server) SetPage(path, body string) {
	s.mu.Lock()
	s.pages[path] = body
	s.mu.Unlock()
}

// Hits returns how many requests were received for path.
func (s *Server) Hits(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[path]
}

func (s *Server) serve() {
	for {
		conn, err := s.ln.Accept(context.Background())
		if err != nil {
			return
		}
		go s.handleConn(conn)
	}
}

func (s *Server) handleConn(conn *quic.Conn) {
	for {
		stream, err := conn.AcceptStream(context.Background())
		if err != nil {
			return
		}
		go s.handleStream(stream)
	}
}

func (s *Server) handleStream(stream io.ReadWriteCloser) {
	defer stream.Close()

	req, err := protocol.ParseRequest(stream)
	if err != nil {
		writeStatus(stream, protocol.StatusServerError, "bad request")
		return
	}
	if req.Verb != protocol.VerbFetch {
		writeStatus(stream, protocol.StatusServerError, "unsupported verb: "+req.Verb)
		return
	}

	s.mu.Lock()
	s.hits[req.Path]++
	body, ok := s.pages[req.Path]
	s.mu.Unlock()

	if !ok {
		writeStatus(stream, protocol.StatusNotFound, req.Path+" not found")
		return
	}

	etag := fmt.Sprintf("%x", sha256.Sum256([]byte(body)))[:16]
	if req.Metadata["if-none-match"] == etag {
		resp := protocol.Response{Status: protocol.StatusNotModified, Metadata: map[string]string{"etag": etag}}
		resp.WriteTo(stream)
		return
	}

	resp := protocol.Response{
		Status:   protocol.StatusOK,
		Metadata: map[string]string{"etag": etag},
		Body:     body,
	}
	resp.WriteTo(stream)
}

func writeStatus(w io.Writer, status, msg string) {
	resp := protocol.Response{Status: status, Body: "# " + msg + "\n"}
	resp.WriteTo(w)
}

func selfSignedConfig() (*tls.Config, error) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	template := x509.Certificate{
		SerialNumber: big.NewInt(1),
		DNSNames:     []string{"localhost"},
		IPAddresses:  []net.IP{net.IPv4(127, 0, 0, 1), net.IPv6loopback},
		NotBefore:    now.Add(-time.Minute),
		NotAfter:     now.Add(time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
	}
	certDER, err := x509.CreateCertificate(rand.Reader, &template, &template, priv.Public(), priv)
	if err != nil {
		return nil, err
	}

	return &tls.Config{
		Certificates: []tls.Certificate{{
			Certificate: [][]byte{certDER},
			PrivateKey:  priv,
		}},
		MinVersion: tls.VersionTLS13,
		NextProtos: []string{protocol.ALPN},
	}, nil
}
