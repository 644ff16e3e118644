package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/mhollis/quizdeck/internal/app"
	"github.com/mhollis/quizdeck/internal/browser"
	"github.com/mhollis/quizdeck/internal/logger"
	"github.com/mhollis/quizdeck/web"
)

var (
	version = "dev"
)

// envDefaults loads .env (if present) and returns flag defaults that can be
// overridden by QUIZDECK_* environment variables.
func envDefaults() (port int, dbPath, logLevel string) {
	_ = godotenv.Load()

	port = 8080
	if v := os.Getenv("QUIZDECK_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			port = p
		}
	}

	dbPath = "quizdeck.db"
	if v := os.Getenv("QUIZDECK_DB"); v != "" {
		dbPath = v
	}

	logLevel = "info"
	if v := os.Getenv("QUIZDECK_LOGLEVEL"); v != "" {
		logLevel = v
	}
	return port, dbPath, logLevel
}

func main() {
	defPort, defDB, defLevel := envDefaults()

	port := flag.Int("port", defPort, "HTTP server port")
	dbPath := flag.String("db", defDB, "SQLite database path")
	logLevel := flag.String("loglevel", defLevel, "Log level (debug, info, warn, error)")
	noBrowser := flag.Bool("nobrowser", false, "Do not open the control page in a browser")
	showVersion := flag.Bool("version", false, "Show version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `QuizDeck - Seminary quiz scoring and turn management

Usage:
  quizdeck [options]

Options:
  -port int      HTTP server port (default 8080)
  -db string     SQLite database path (default "quizdeck.db")
  -loglevel str  Log level: debug, info, warn, error (default "info")
  -nobrowser     Do not open the control page in a browser
  -version       Show version and exit
  -help          Show this help message

Environment (flags win; .env is loaded if present):
  QUIZDECK_PORT, QUIZDECK_DB, QUIZDECK_LOGLEVEL

Examples:
  quizdeck                           # Run on port 8080 with quizdeck.db
  quizdeck -port 9000                # Run on port 9000
  quizdeck -db /data/quiz.db         # Use custom database path
  quizdeck -nobrowser                # Headless (e.g. on a Pi behind the TV)

`)
	}

	flag.Parse()

	if *showVersion {
		fmt.Printf("quizdeck %s\n", version)
		os.Exit(0)
	}

	appLog := logger.NewWithLevel(logger.ParseLevel(*logLevel))

	a, err := app.New(appLog, *dbPath, web.GetPagesFS())
	if err != nil {
		log.Fatal("Failed to initialize application:", err)
	}
	defer a.Close()

	addr := fmt.Sprintf(":%d", *port)

	// Start server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- a.Run(addr)
	}()

	// Wait a moment for server to start
	time.Sleep(100 * time.Millisecond)

	if !*noBrowser {
		controlURL := fmt.Sprintf("http://localhost:%d/", *port)
		if err := browser.Open(controlURL); err != nil {
			appLog.Warn("Could not open browser", "url", controlURL, "error", err)
		}
	}

	if err := <-serverErr; err != nil {
		log.Fatal(err)
	}
}
