// cmd/client is the CLI entry-point built with Cobra.
//
// Usage:
//
//	kvcli write k1=v1 k2=v2           --hosts 127.0.0.1:8080,127.0.0.1:8081
//	kvcli read k1 k2                  --hosts 127.0.0.1:8080,127.0.0.1:8081
//	kvcli exit 127.0.0.1:8080         --hosts 127.0.0.1:8080
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"seqkv/internal/client"
	"seqkv/internal/wire"
)

var (
	hostsFlag string
	timeout   time.Duration
)

func main() {
	root := &cobra.Command{
		Use:   "kvcli",
		Short: "CLI client for a seqkv cluster",
	}

	root.PersistentFlags().StringVarP(&hostsFlag, "hosts", "H", "127.0.0.1:8080",
		"Comma-separated list of cluster host:port addresses")
	root.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second,
		"Request timeout")

	root.AddCommand(writeCmd(), readCmd(), exitCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newClient() (*client.Client, error) {
	hosts, err := parseHosts(hostsFlag)
	if err != nil {
		return nil, err
	}
	return client.New(hosts, timeout), nil
}

// ─── write ────────────────────────────────────────────────────────────────

func writeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "write <key=value>...",
		Short: "Write one or more key=value pairs",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}

			keys := make([]wire.Key, 0, len(args))
			values := make([]wire.Value, 0, len(args))
			for _, pair := range args {
				k, v, ok := strings.Cut(pair, "=")
				if !ok {
					return fmt.Errorf("invalid key=value pair %q", pair)
				}
				keys = append(keys, k)
				values = append(values, v)
			}

			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()
			result, err := c.Write(ctx, keys, values)
			if err != nil {
				return err
			}
			printWriteResult(result)
			return nil
		},
	}
}

// ─── read ─────────────────────────────────────────────────────────────────

func readCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "read <key>...",
		Short: "Read one or more keys",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()
			result, err := c.Read(ctx, args)
			if err != nil {
				return err
			}
			printReadResult(result)
			return nil
		},
	}
}

// ─── exit ─────────────────────────────────────────────────────────────────

func exitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "exit <host:port>",
		Short: "Ask a node to shut down",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			target, err := parseHost(args[0])
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()
			return c.Exit(ctx, target)
		},
	}
}

// ─── helpers ──────────────────────────────────────────────────────────────

func parseHosts(s string) ([]wire.Host, error) {
	var hosts []wire.Host
	for _, entry := range strings.Split(s, ",") {
		h, err := parseHost(strings.TrimSpace(entry))
		if err != nil {
			return nil, err
		}
		hosts = append(hosts, h)
	}
	return hosts, nil
}

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

// printWriteResult renders result as spec.md §6 describes it: a bare
// key/value/order_index for a single-key write, a parallel-sequence batch
// otherwise.
func printWriteResult(result client.WriteResult) {
	if key, value, orderIndex, ok := result.Scalar(); ok {
		prettyPrint(struct {
			Key        wire.Key   `json:"key"`
			Value      wire.Value `json:"value"`
			OrderIndex *int       `json:"order_index"`
		}{key, value, orderIndex})
		return
	}
	prettyPrint(result)
}

// printReadResult is printWriteResult's counterpart for client_read's
// {value, order_index} reply.
func printReadResult(result client.ReadResult) {
	if value, orderIndex, ok := result.Scalar(); ok {
		prettyPrint(struct {
			Value      wire.Value `json:"value"`
			OrderIndex *int       `json:"order_index"`
		}{value, orderIndex})
		return
	}
	prettyPrint(result)
}

func prettyPrint(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Println(v)
		return
	}
	fmt.Println(string(data))
}
