// cmd/server is the main entrypoint for a seqkv cluster node.
//
// Configuration is entirely via flags so a single binary can serve any
// role in the cluster — plain replica or orderer.
//
// Example — 3-node cluster, node2 as orderer:
//
//	./server --self 127.0.0.1:8080 --orderer 127.0.0.1:8081 \
//	         --hosts 127.0.0.1:8080,127.0.0.1:8081,127.0.0.1:8082
//	./server --self 127.0.0.1:8081 --orderer 127.0.0.1:8081 \
//	         --hosts 127.0.0.1:8080,127.0.0.1:8081,127.0.0.1:8082
//	./server --self 127.0.0.1:8082 --orderer 127.0.0.1:8081 \
//	         --hosts 127.0.0.1:8080,127.0.0.1:8081,127.0.0.1:8082
package main

import (
	"context"
	"flag"
	"log"
	"net"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"seqkv/internal/cluster"
	"seqkv/internal/replica"
	"seqkv/internal/transport"
	"seqkv/internal/wire"
)

func main() {
	// ── Flags ──────────────────────────────────────────────────────────────
	selfFlag := flag.String("self", "127.0.0.1:8080", "This node's address (host:port)")
	ordererFlag := flag.String("orderer", "", "The orderer's address (host:port); defaults to the last entry of --hosts")
	hostsFlag := flag.String("hosts", "", "Comma-separated list of every host:port in the cluster")
	orderOnWrite := flag.Bool("order-on-write", false, "Delay write_result until the write is ordered")
	sendTimeout := flag.Duration("send-timeout", 5*time.Second, "Per-message outbound HTTP timeout")
	flag.Parse()

	self, err := parseHost(*selfFlag)
	if err != nil {
		log.Fatalf("--self: %v", err)
	}

	ordererAddr := *ordererFlag
	if ordererAddr == "" {
		entries := strings.Split(*hostsFlag, ",")
		ordererAddr = strings.TrimSpace(entries[len(entries)-1])
	}
	ordererHost, err := parseHost(ordererAddr)
	if err != nil {
		log.Fatalf("--orderer: %v", err)
	}

	if *hostsFlag == "" {
		log.Fatal("--hosts is required: the full, fixed cluster membership list")
	}
	var hosts []wire.Host
	for _, entry := range strings.Split(*hostsFlag, ",") {
		h, err := parseHost(strings.TrimSpace(entry))
		if err != nil {
			log.Fatalf("--hosts: %v", err)
		}
		hosts = append(hosts, h)
	}

	// ── Cluster membership ─────────────────────────────────────────────────
	clu, err := cluster.New(self, hosts, ordererHost, *orderOnWrite)
	if err != nil {
		log.Fatalf("cluster: %v", err)
	}

	logger := log.New(os.Stdout, "", log.LstdFlags|log.Lmicroseconds)
	sender := transport.NewHTTPSender(*sendTimeout)

	// ── Replica / Orderer ────────────────────────────────────────────────
	var (
		node        *transport.Node
		orderGetter func() int
	)

	if clu.IsOrderer {
		o := replica.NewOrderer(clu.ReplicaConfig(), sender, logger)
		orderGetter = o.OrderIndex
		node = transport.NewNode(self, transport.NewOrdererDispatcher(o, o), logger, "orderer", orderGetter)
	} else {
		r := replica.New(clu.ReplicaConfig(), sender, logger)
		orderGetter = r.OrderIndex
		node = transport.NewNode(self, transport.NewDispatcher(r), logger, "replica", orderGetter)
	}

	// ── Run ──────────────────────────────────────────────────────────────
	errCh := make(chan error, 1)
	go func() {
		logger.Printf("node %s listening (orderer=%s, order_on_write=%v, role=%s)",
			self, ordererHost, *orderOnWrite, roleName(clu.IsOrderer))
		errCh <- node.Run(self.String())
	}()

	// ── Graceful shutdown ──────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			log.Fatalf("server error: %v", err)
		}
	case <-quit:
		logger.Println("shutting down", self)
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := node.Stop(ctx); err != nil {
			logger.Printf("shutdown error: %v", err)
		}
	}
}

func roleName(isOrderer bool) string {
	if isOrderer {
		return "orderer"
	}
	return "replica"
}

// parseHost splits "host:port" into a wire.Host.
func parseHost(s string) (wire.Host, error) {
	host, portStr, err := net.SplitHostPort(s)
	if err != nil {
		return wire.Host{}, err
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return wire.Host{}, err
	}
	return wire.Host{Address: host, Port: port}, nil
}
