package main

import (
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/oklog/oklog/pkg/group"

	"github.com/ck4445/ECKOBits/pkg/backup"
	"github.com/ck4445/ECKOBits/pkg/billing"
	"github.com/ck4445/ECKOBits/pkg/command"
	"github.com/ck4445/ECKOBits/pkg/endpoint"
	"github.com/ck4445/ECKOBits/pkg/feed"
	"github.com/ck4445/ECKOBits/pkg/repository"
	"github.com/ck4445/ECKOBits/pkg/service"
	"github.com/ck4445/ECKOBits/pkg/transport"
)

func main() {
	fs := flag.NewFlagSet("eckobits", flag.ExitOnError)
	var (
		httpAddr        = fs.String("http-addr", ":"+strconv.Itoa(envInt("HTTP_PORT", 8000)), "HTTP listen address")
		dataDir         = fs.String("data-dir", envString("DATA_DIR", "db_files"), "durable resource directory")
		backupDir       = fs.String("backup-dir", envString("BACKUP_DIR", "backups"), "snapshot directory")
		feedURL         = fs.String("feed-url", envString("FEED_URL", "http://localhost:8333"), "comment feed base URL")
		fetchLimit      = fs.Int("fetch-limit", envInt("FETCH_LIMIT", 30), "comments fetched per poll")
		pollInterval    = fs.Duration("poll-interval", envDuration("POLL_INTERVAL", time.Second), "comment poll interval")
		billingInterval = fs.Duration("billing-interval", envDuration("BILLING_INTERVAL", time.Minute), "subscription billing tick interval")
		backupInterval  = fs.Duration("backup-interval", envDuration("BACKUP_INTERVAL", 10*time.Minute), "backup sweep interval")
		backupKeep      = fs.Int("backup-keep", envInt("BACKUP_KEEP", 10), "snapshots retained")
	)
	fs.Usage = usageFor(fs, os.Args[0]+" [flags]")
	_ = fs.Parse(os.Args[1:])

	// Logging domain.
	var logger log.Logger
	{
		logger = log.NewLogfmtLogger(os.Stderr)
		logger = level.NewFilter(logger, level.AllowDebug())
		logger = log.With(logger, "ts", log.DefaultTimestampUTC)
		logger = log.With(logger, "caller", log.DefaultCaller)
	}
	_ = level.Info(logger).Log("msg", "eckobits started")
	defer func() {
		_ = level.Info(logger).Log("msg", "eckobits ended")
	}()

	repo, err := repository.New(*dataDir, logger)
	if err != nil {
		_ = level.Error(logger).Log("during", "repository init", "err", err)
		os.Exit(1)
	}

	// Build the layers of the service "onion" from the inside out. First,
	// the business logic service; then, the set of endpoints that wrap the
	// service; and finally, the HTTP transport on the outside. The feed,
	// billing and backup loops run beside the transport over the same
	// repository.
	var (
		svc         = service.New(repo, logger)
		endpoints   = endpoint.New(svc, logger)
		httpHandler = transport.NewHTTPHandler(endpoints, logger)
		processor   = command.New(svc, logger)
		source      = feed.NewHTTPSource(*feedURL, nil)
		listener    = feed.NewListener(source, repo, processor, *pollInterval, *fetchLimit, logger)
		scheduler   = billing.NewScheduler(repo, *billingInterval, logger)
		sweeper     = backup.NewSweeper(repo, *backupDir, *backupInterval, *backupKeep, logger)
	)

	// Now we're to the part of the func main where we want to start actually
	// running things, like servers bound to listeners to receive connections.
	//
	// The method is the same for each component: add a new actor to the group
	// struct, which is a combination of 2 anonymous functions: the first
	// function actually runs the component, and the second function should
	// interrupt the first function and cause it to return. It's in these
	// functions that we actually bind the Go kit server/handler structs to the
	// concrete transports and run them.
	var g group.Group
	{
		// The HTTP listener mounts the Go kit HTTP handler we created.
		httpListener, err := net.Listen("tcp", *httpAddr)
		if err != nil {
			_ = level.Error(logger).Log("transport", "HTTP", "during", "Listen", "err", err)
			os.Exit(1)
		}
		g.Add(func() error {
			_ = level.Info(logger).Log("transport", "HTTP", "addr", *httpAddr)
			return http.Serve(httpListener, httpHandler)
		}, func(error) {
			httpListener.Close()
		})
	}
	{
		// The comment intake loop polls the feed and feeds recognized
		// commands into the processor.
		g.Add(func() error {
			_ = level.Info(logger).Log("loop", "feed", "interval", *pollInterval)
			return listener.Run()
		}, func(error) {
			listener.Stop()
		})
	}
	{
		// The billing scheduler settles due subscriptions.
		g.Add(func() error {
			_ = level.Info(logger).Log("loop", "billing", "interval", *billingInterval)
			return scheduler.Run()
		}, func(error) {
			scheduler.Stop()
		})
	}
	{
		// The backup sweeper snapshots the durable resources.
		g.Add(func() error {
			_ = level.Info(logger).Log("loop", "backup", "interval", *backupInterval)
			return sweeper.Run()
		}, func(error) {
			sweeper.Stop()
		})
	}
	{
		// This function just sits and waits for ctrl-C.
		cancelInterrupt := make(chan struct{})
		g.Add(func() error {
			c := make(chan os.Signal, 1)
			signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
			select {
			case sig := <-c:
				return fmt.Errorf("received signal %s", sig)
			case <-cancelInterrupt:
				return nil
			}
		}, func(error) {
			close(cancelInterrupt)
		})
	}
	// Run!
	_ = level.Error(logger).Log("exit", g.Run())
}

func usageFor(fs *flag.FlagSet, short string) func() {
	return func() {
		fmt.Fprintf(os.Stderr, "USAGE\n")
		fmt.Fprintf(os.Stderr, "  %s\n", short)
		fmt.Fprintf(os.Stderr, "\n")
		fmt.Fprintf(os.Stderr, "FLAGS\n")
		w := tabwriter.NewWriter(os.Stderr, 0, 2, 2, ' ', 0)
		fs.VisitAll(func(f *flag.Flag) {
			fmt.Fprintf(w, "\t-%s %s\t%s\n", f.Name, f.DefValue, f.Usage)
		})
		w.Flush()
		fmt.Fprintf(os.Stderr, "\n")
	}
}

func envString(env, fallback string) string {
	e := os.Getenv(env)
	if e == "" {
		return fallback
	}
	return e
}

func envInt(env string, fallback int) int {
	e := os.Getenv(env)
	if e == "" {
		return fallback
	}
	v, err := strconv.Atoi(e)
	if err != nil {
		return fallback
	}
	return v
}

func envDuration(env string, fallback time.Duration) time.Duration {
	e := os.Getenv(env)
	if e == "" {
		return fallback
	}
	v, err := time.ParseDuration(e)
	if err != nil {
		return fallback
	}
	return v
}
