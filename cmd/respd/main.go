/*
file: respd/cmd/respd/main.go
*/
// Command respd is the RESP server binary: it loads configuration,
// starts the expire worker and diagnostics goroutines, exposes
// Prometheus metrics on a separate listener, and accepts client
// connections on the main one. This is the external-collaborator
// layer the core packages (proto, store, handlers) take no dependency
// on.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/akashmaji946/respd/internal/config"
	"github.com/akashmaji946/respd/internal/diag"
	"github.com/akashmaji946/respd/internal/handlers"
	"github.com/akashmaji946/respd/internal/metrics"
	"github.com/akashmaji946/respd/internal/proto"
	"github.com/akashmaji946/respd/internal/store"
)

func main() {
	envFile := flag.String("env", ".env", "path to an optional .env overlay")
	flag.Parse()

	cfg := config.Load(*envFile)

	log := logrus.New()
	if lvl, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(lvl)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := store.New()

	go store.RunExpireWorker(ctx, s, func(key string) {
		metrics.ExpiredKeysTotal.Inc()
		log.WithField("key", key).Debug("expired key")
	})
	go diag.Run(ctx, s, log)

	go serveMetrics(cfg.MetricsPort, log)

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.Port))
	if err != nil {
		log.WithError(err).Fatal("failed to bind listener")
	}
	log.WithField("port", cfg.Port).Info("respd listening")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info("shutting down")
		cancel()
		ln.Close()
	}()

	var wg sync.WaitGroup
	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				wg.Wait()
				return
			default:
				log.WithError(err).Warn("accept failed")
				continue
			}
		}
		metrics.ConnectionsActive.Inc()
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer metrics.ConnectionsActive.Dec()
			handleConnection(conn, s, log)
		}()
	}
}

func serveMetrics(port int, log *logrus.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	addr := fmt.Sprintf(":%d", port)
	log.WithField("addr", addr).Info("metrics listening")
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.WithError(err).Error("metrics listener stopped")
	}
}

// handleConnection runs one client's read-dispatch-write loop until
// the connection closes or a non-protocol I/O error occurs.
func handleConnection(conn net.Conn, s *store.Store, log *logrus.Logger) {
	defer conn.Close()

	addr := conn.RemoteAddr().String()
	log.WithField("addr", addr).Debug("client connected")

	r := bufio.NewReader(conn)
	w := proto.NewWriter(conn)
	parser := proto.NewParser()

	for {
		v, err := parser.Parse(r)
		if err == proto.ErrIncomplete || err == proto.ErrInvalid {
			reply := proto.NewSimpleError("ERR protocol error")
			if werr := w.WriteValue(reply); werr != nil {
				return
			}
			continue
		}
		if err != nil {
			log.WithField("addr", addr).WithError(err).Debug("client disconnected")
			return
		}

		reply := dispatch(s, v)
		if err := w.WriteValue(reply); err != nil {
			log.WithField("addr", addr).WithError(err).Debug("write failed")
			return
		}
	}
}

func dispatch(s *store.Store, v proto.Value) proto.Value {
	name := "unknown"
	if v.IsArray() && len(v.Arr) > 0 && v.Arr[0].Typ == proto.TypeBulkString {
		if n := strings.ToUpper(string(v.Arr[0].Blk)); handlers.Table[n] != nil {
			name = n
		}
	}
	metrics.CommandsTotal.WithLabelValues(name).Inc()
	return handlers.Handle(s, v)
}
