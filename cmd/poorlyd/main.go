// Command poorlyd is the poorly server binary: it serves the engine over
// either the REST/JSON frontend or the gRPC frontend, per §6 and §4.9.
package main

import (
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"

	"github.com/jessevdk/go-flags"
	"google.golang.org/grpc"

	"github.com/zknill/poorly/engine"
	"github.com/zknill/poorly/httpapi"
	"github.com/zknill/poorly/rpcapi"
	"github.com/zknill/poorly/util"
)

func main() {
	var opts struct {
		Rest     bool   `long:"rest" description:"Serve the JSON/HTTP frontend (default)"`
		Grpc     bool   `long:"grpc" description:"Serve the gRPC frontend"`
		DataDir  string `long:"data-dir" description:"Root data directory" default:"./data"`
		Port     uint   `long:"port" description:"Port to listen on" default:"3306"`
		LogLevel string `long:"log-level" description:"Overrides LOG_LEVEL" value-name:"level"`
	}

	parser := flags.NewParser(&opts, flags.Default)
	parser.Usage = "[options]"
	if _, err := parser.Parse(); err != nil {
		os.Exit(1)
	}

	if opts.LogLevel != "" {
		os.Setenv("LOG_LEVEL", opts.LogLevel)
	}
	util.InitSlog()

	if opts.Grpc && opts.Rest {
		log.Fatal("poorlyd: --rest and --grpc are mutually exclusive")
	}

	if err := os.MkdirAll(opts.DataDir, 0o755); err != nil {
		log.Fatalf("poorlyd: creating data dir: %v", err)
	}
	e := engine.New(opts.DataDir)

	addr := fmt.Sprintf(":%d", opts.Port)
	if opts.Grpc {
		serveGRPC(e, addr)
		return
	}
	serveREST(e, addr)
}

func serveREST(e *engine.Engine, addr string) {
	slog.Info("poorlyd: serving REST", "addr", addr)
	if err := http.ListenAndServe(addr, httpapi.NewHandler(e)); err != nil {
		log.Fatalf("poorlyd: %v", err)
	}
}

func serveGRPC(e *engine.Engine, addr string) {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		log.Fatalf("poorlyd: listening: %v", err)
	}
	grpcServer := grpc.NewServer()
	rpcapi.RegisterExecuteServer(grpcServer, &rpcapi.Server{Engine: e})

	slog.Info("poorlyd: serving gRPC", "addr", addr)
	if err := grpcServer.Serve(lis); err != nil {
		log.Fatalf("poorlyd: %v", err)
	}
}
