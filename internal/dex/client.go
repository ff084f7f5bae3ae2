package dex

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
)

// slot0Selector is the 4-byte method ID of the V3 pool's slot0() view,
// shared by Uniswap V3 and PancakeSwap V3 pools.
var slot0Selector = ethcrypto.Keccak256([]byte("slot0()"))[:4]

// Client reads pool state from one chain over JSON-RPC.
type Client struct {
	eth   *ethclient.Client
	chain string
}

// Dial connects to the chain's RPC endpoint and verifies it responds.
func Dial(ctx context.Context, chain, rpcURL string) (*Client, error) {
	eth, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("dex: dial %s rpc: %w", chain, err)
	}
	if _, err := eth.ChainID(ctx); err != nil {
		eth.Close()
		return nil, fmt.Errorf("dex: %s chain id: %w", chain, err)
	}
	return &Client{eth: eth, chain: chain}, nil
}

// Chain returns the chain name this client is connected to.
func (c *Client) Chain() string { return c.chain }

// Close shuts down the underlying RPC connection.
func (c *Client) Close() {
	c.eth.Close()
}

// SqrtPriceX96 calls slot0() on the given pool and returns the first
// return word, the pool's current sqrt price in Q64.96 fixed point.
func (c *Client) SqrtPriceX96(ctx context.Context, pool common.Address) (*big.Int, error) {
	out, err := c.eth.CallContract(ctx, ethereum.CallMsg{
		To:   &pool,
		Data: slot0Selector,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("dex: %s slot0 %s: %w", c.chain, pool.Hex(), err)
	}
	if len(out) < 32 {
		return nil, fmt.Errorf("dex: %s slot0 %s: short return data (%d bytes)", c.chain, pool.Hex(), len(out))
	}
	return new(big.Int).SetBytes(out[:32]), nil
}

// PoolPrice reads the pool's current price of token1 per token0.
func (c *Client) PoolPrice(ctx context.Context, pool common.Address, token0Decimals, token1Decimals int) (float64, error) {
	sqrt, err := c.SqrtPriceX96(ctx, pool)
	if err != nil {
		return 0, err
	}
	price := PriceFromSqrtX96(sqrt, token0Decimals, token1Decimals)
	if price == 0 {
		return 0, fmt.Errorf("dex: %s pool %s: zero price", c.chain, pool.Hex())
	}
	return price, nil
}

// SuggestGasPrice returns the chain's suggested gas price in wei.
func (c *Client) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	gp, err := c.eth.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("dex: %s gas price: %w", c.chain, err)
	}
	return gp, nil
}
