// Command tls-endpoint-demo is a small interactive demonstration of
// pkg/tlsconn: a server that accepts TLS connections, each handled in its
// own goroutine, and echoes whatever it reads, and a client that dials it
// and sends a message.
package main

import (
	"flag"
	"fmt"
	"os"

	pkgversion "github.com/sarahazel/tls-core/pkg/version"
)

var (
	version   = ""
	buildTime = "unknown"
	gitCommit = "unknown"
)

func getVersion() string {
	if version != "" {
		return version
	}
	return pkgversion.String()
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "demo":
		demoCommand()
	case "version":
		fmt.Printf("tls-endpoint-demo version %s\n", getVersion())
		if buildTime != "unknown" {
			fmt.Printf("Built: %s\n", buildTime)
		}
		if gitCommit != "unknown" {
			fmt.Printf("Commit: %s\n", gitCommit)
		}
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`tls-endpoint-demo - minimal TLS 1.2 server/client demo

USAGE:
    tls-endpoint-demo <command> [options]

COMMANDS:
    demo      Run a server or client against pkg/tlsconn
    version   Print version information
    help      Show this help message

EXAMPLES:
    # Start demo server with a metrics/health endpoint
    tls-endpoint-demo demo --mode server --addr :8443 --obs-addr :9090

    # Connect demo client
    tls-endpoint-demo demo --mode client --addr localhost:8443 --message "hello"

    # Verbose logging
    tls-endpoint-demo demo --mode server --log-level debug --tracing simple`)
}

func demoCommand() {
	fs := flag.NewFlagSet("demo", flag.ExitOnError)
	mode := fs.String("mode", "server", "server or client")
	addr := fs.String("addr", ":8443", "address to listen on or dial")
	message := fs.String("message", "hello from the tls-endpoint-demo client", "message for the client to send")
	obsAddr := fs.String("obs-addr", "", "address for the observability server (metrics, health); empty disables it")
	logLevel := fs.String("log-level", "info", "debug, info, warn, error, or silent")
	logFormat := fs.String("log-format", "text", "text or json")
	tracing := fs.String("tracing", "none", "none, simple, or otel")
	_ = fs.Parse(os.Args[2:])

	collector, logger, err := setupObservability(*logLevel, *logFormat, *tracing)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	switch *mode {
	case "server":
		runDemoServer(*addr, *obsAddr, collector, logger)
	case "client":
		runDemoClient(*addr, *message, collector, logger)
	default:
		fmt.Fprintf(os.Stderr, "invalid mode: %s (use 'server' or 'client')\n", *mode)
		os.Exit(1)
	}
}
