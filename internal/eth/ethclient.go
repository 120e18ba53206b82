package eth

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/6529-Collections/flipscan/internal/config"
	"github.com/ethereum/go-ethereum/rpc"
)

var CreateBlockRPCClient = createBlockRPCClient

// BlockRPCClient is the subset of the go-ethereum rpc.Client used to look
// up block headers.
type BlockRPCClient interface {
	CallContext(ctx context.Context, result interface{}, method string, args ...interface{}) error
	Close()
}

func createBlockRPCClient(ctx context.Context, httpClient *http.Client) (BlockRPCClient, error) {
	nodeUrl := config.Get().NodeURL()
	if nodeUrl == "" {
		return nil, errors.New("failed to configure Ethereum RPC client - node URL is not set")
	}
	opts := []rpc.ClientOption{}
	if httpClient != nil {
		opts = append(opts, rpc.WithHTTPClient(httpClient))
	}
	client, err := rpc.DialOptions(ctx, nodeUrl, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to configure Ethereum RPC client - %w", err)
	}
	return client, nil
}
