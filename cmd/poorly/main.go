// Command poorly is an interactive shell client for poorlyd's gRPC
// frontend: each line of stdin is a JSON-encoded wire.Query, executed
// against the server and pretty-printed.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/jessevdk/go-flags"
	"github.com/k0kubun/pp/v3"
	"google.golang.org/grpc"

	"github.com/zknill/poorly/rpcapi"
	"github.com/zknill/poorly/wire"
)

func main() {
	var opts struct {
		Addr string `long:"addr" description:"poorlyd gRPC address" default:"localhost:3306"`
	}
	parser := flags.NewParser(&opts, flags.Default)
	parser.Usage = "[options]"
	if _, err := parser.Parse(); err != nil {
		os.Exit(1)
	}

	conn, err := grpc.Dial(opts.Addr, grpc.WithInsecure())
	if err != nil {
		log.Fatalf("poorly: dialing %s: %v", opts.Addr, err)
	}
	defer conn.Close()
	client := rpcapi.NewExecuteClient(conn)

	printer := pp.New()
	printer.SetColoringEnabled(false)

	scanner := bufio.NewScanner(os.Stdin)
	fmt.Println("poorly shell. Paste one JSON wire.Query per line; ctrl-d to exit.")
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var q wire.Query
		if err := json.Unmarshal([]byte(line), &q); err != nil {
			fmt.Println("poorly: bad query:", err)
			continue
		}

		reply, err := client.Execute(context.Background(), &q)
		if err != nil {
			fmt.Println("poorly: error:", err)
			continue
		}
		printer.Println(reply)
	}
}
