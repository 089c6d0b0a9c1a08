package main

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"errors"
	"fmt"
	"math/big"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/sarahazel/tls-core/internal/constants"
	"github.com/sarahazel/tls-core/pkg/cryptoprim"
	"github.com/sarahazel/tls-core/pkg/metrics"
	"github.com/sarahazel/tls-core/pkg/tlsconn"
	"github.com/sarahazel/tls-core/pkg/wire"
)

const demoCipherSuite = constants.CipherSuiteECDHERSAWithAES128GCMSHA256

// ephemeralServerIdentity generates a throwaway RSA key and a self-signed
// leaf certificate, since this demo has no certificate authority to trust
// against: it exists to exercise the handshake driver, not to prove
// identity.
func ephemeralServerIdentity() (tlsconn.ServerIdentity, error) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return tlsconn.ServerIdentity{}, err
	}
	template := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "tls-endpoint-demo"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(24 * time.Hour),
	}
	der, err := x509.CreateCertificate(rand.Reader, template, template, &priv.PublicKey, priv)
	if err != nil {
		return tlsconn.ServerIdentity{}, err
	}
	return tlsconn.ServerIdentity{
		Certificate: der,
		RSAKey:      priv,
		ECDHECurve:  cryptoprim.CurveX25519,
		CipherSuite: demoCipherSuite,
	}, nil
}

func runDemoServer(addr, obsAddr string, collector *metrics.Collector, logger *metrics.Logger) {
	id, err := ephemeralServerIdentity()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: generating server identity: %v\n", err)
		os.Exit(1)
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: listen: %v\n", err)
		os.Exit(1)
	}
	defer ln.Close()
	fmt.Printf("listening on %s (cipher suite %v)\n", ln.Addr(), demoCipherSuite)

	if obsAddr != "" {
		server := metrics.NewServer(metrics.ServerConfig{
			Collector:        collector,
			Version:          getVersion(),
			Namespace:        "tls_endpoint_demo",
			EnablePrometheus: true,
			EnableHealth:     true,
		})
		go func() {
			if err := server.ListenAndServe(obsAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("observability server error", metrics.Fields{"error": err.Error()})
			}
		}()
		fmt.Printf("observability server on %s (metrics: /metrics, health: /health)\n", obsAddr)
	}

	connNum := 0
	for {
		raw, err := ln.Accept()
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: accept: %v\n", err)
			return
		}
		connNum++
		go func(connNum int) {
			defer raw.Close()
			observer := metrics.NewConnectionObserver(metrics.ConnectionObserverConfig{
				Collector: collector,
				Logger:    logger,
				Role:      "server",
			})
			cfg := tlsconn.DefaultConfig()
			cfg.Observer = observer
			conn, err := tlsconn.Accept(raw, id, cfg)
			if err != nil {
				fmt.Fprintf(os.Stderr, "error: handshake: %v\n", err)
				return
			}
			buf := make([]byte, 4096)
			n, err := conn.Read(buf)
			if err != nil {
				fmt.Fprintf(os.Stderr, "error: read: %v\n", err)
				return
			}
			fmt.Printf("received: %q\n", buf[:n])
			if _, err := conn.Write(buf[:n]); err != nil {
				fmt.Fprintf(os.Stderr, "error: write: %v\n", err)
			}
			conn.Close()
		}(connNum)
	}
}

func runDemoClient(addr, message string, collector *metrics.Collector, logger *metrics.Logger) {
	id := tlsconn.ClientIdentity{
		Version:      wire.VersionTLS12,
		CipherSuites: []constants.CipherSuite{demoCipherSuite},
	}

	observer := metrics.NewConnectionObserver(metrics.ConnectionObserverConfig{
		Collector: collector,
		Logger:    logger,
		Role:      "client",
	})
	cfg := tlsconn.DefaultConfig()
	cfg.Observer = observer

	conn, err := tlsconn.Dial("tcp", addr, id, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: dial: %v\n", err)
		os.Exit(1)
	}
	defer conn.Close()

	if _, err := conn.Write([]byte(message)); err != nil {
		fmt.Fprintf(os.Stderr, "error: write: %v\n", err)
		os.Exit(1)
	}

	buf := make([]byte, 4096)
	n, err := conn.Read(buf)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: read: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("echoed back: %q\n", buf[:n])
}

// setupObservability builds the logger, tracer, and collector the demo
// attaches to every connection it opens or accepts.
func setupObservability(logLevel, logFormat, tracing string) (*metrics.Collector, *metrics.Logger, error) {
	format := metrics.FormatText
	if strings.EqualFold(logFormat, "json") {
		format = metrics.FormatJSON
	} else if !strings.EqualFold(logFormat, "text") {
		return nil, nil, fmt.Errorf("invalid log format: %s (use text or json)", logFormat)
	}

	logger := metrics.NewLogger(
		metrics.WithOutput(os.Stderr),
		metrics.WithLevel(metrics.ParseLevel(logLevel)),
		metrics.WithFormat(format),
		metrics.WithFields(metrics.Fields{"app": "tls-endpoint-demo"}),
	)
	metrics.SetLogger(logger)

	switch strings.ToLower(tracing) {
	case "none":
		metrics.SetTracer(metrics.NoOpTracer{})
	case "simple":
		metrics.SetTracer(metrics.NewSimpleTracer())
	case "otel":
		if !metrics.OTelEnabled() {
			return nil, nil, fmt.Errorf("otel tracing not enabled (build with -tags otel)")
		}
		metrics.SetTracer(metrics.NewOTelTracer("tls-endpoint-demo"))
	default:
		return nil, nil, fmt.Errorf("invalid tracing mode: %s (use none, simple, or otel)", tracing)
	}

	collector := metrics.NewCollector(metrics.Labels{"service": "tls-endpoint-demo"})
	metrics.SetGlobal(collector)

	return collector, logger, nil
}
