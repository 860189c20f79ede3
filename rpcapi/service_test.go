package rpcapi

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/test/bufconn"

	"github.com/zknill/poorly/engine"
	"github.com/zknill/poorly/value"
	"github.com/zknill/poorly/wire"
)

func startServer(t *testing.T) ExecuteClient {
	t.Helper()
	lis := bufconn.Listen(1024 * 1024)
	grpcServer := grpc.NewServer()
	RegisterExecuteServer(grpcServer, &Server{Engine: engine.New(t.TempDir())})

	go func() {
		_ = grpcServer.Serve(lis)
	}()
	t.Cleanup(grpcServer.Stop)

	dialer := func(context.Context, string) (net.Conn, error) { return lis.Dial() }
	conn, err := grpc.DialContext(context.Background(), "bufnet",
		grpc.WithContextDialer(dialer), grpc.WithInsecure())
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return NewExecuteClient(conn)
}

func TestExecuteOverGRPC(t *testing.T) {
	client := startServer(t)
	ctx := context.Background()

	_, err := client.Execute(ctx, &wire.Query{Kind: wire.QueryCreateDb, Database: "shop", BackendKind: "Poorly"})
	require.NoError(t, err)

	_, err = client.Execute(ctx, &wire.Query{
		Kind: wire.QueryCreate, Database: "shop", Table: "items",
		NewColumns: []wire.Column{{Name: "id", Kind: value.KindInt}},
	})
	require.NoError(t, err)

	_, err = client.Execute(ctx, &wire.Query{
		Kind: wire.QueryInsert, Database: "shop", Table: "items",
		Values: map[string]interface{}{"id": float64(1)},
	})
	require.NoError(t, err)

	reply, err := client.Execute(ctx, &wire.Query{Kind: wire.QuerySelect, Database: "shop", Table: "items"})
	require.NoError(t, err)
	require.Len(t, reply.Rows, 1)
	assert.Equal(t, value.Int(1), reply.Rows[0]["id"].Value())
}
