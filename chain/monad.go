package chain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"log"
	"math/big"
	"os"
	"regexp"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
)

const (
	DefaultRPCURL  = "https://testnet-rpc.monad.xyz"
	TestnetChainID = 10143
)

const erc20ABI = `[
  {"type":"function","name":"balanceOf","stateMutability":"view",
   "inputs":[{"name":"account","type":"address"}],
   "outputs":[{"name":"","type":"uint256"}]}
]`

const treasuryABI = `[
  {"type":"function","name":"releaseReward","stateMutability":"nonpayable",
   "inputs":[{"name":"recipient","type":"address"},{"name":"amount","type":"uint256"}],
   "outputs":[]}
]`

var (
	addressRe    = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)
	privateKeyRe = regexp.MustCompile(`^(0x)?[0-9a-fA-F]{64}$`)
)

// Client wraps the Monad treasury contract and ERC-20 token reads.
// When the signer key or contract addresses are missing the client stays in
// disabled mode and callers fall back to mock settlement references.
type Client struct {
	rpcURL   string
	chainID  *big.Int
	key      *ecdsa.PrivateKey
	treasury common.Address
	token    common.Address
	enabled  bool

	mu  sync.Mutex
	eth *ethclient.Client

	erc20    abi.ABI
	treasAbi abi.ABI
}

// NewClientFromEnv reads MONAD_RPC_URL, MONAD_CHAIN_ID, AGENT_PRIVATE_KEY,
// TREASURY_ADDRESS and FORGOOD_TOKEN_ADDRESS. Missing or malformed settlement
// variables disable on-chain features instead of failing boot.
func NewClientFromEnv() *Client {
	rpcURL := os.Getenv("MONAD_RPC_URL")
	if rpcURL == "" {
		rpcURL = DefaultRPCURL
	}

	chainID := big.NewInt(TestnetChainID)
	if v := os.Getenv("MONAD_CHAIN_ID"); v != "" {
		if parsed, ok := new(big.Int).SetString(v, 10); ok {
			chainID = parsed
		} else {
			log.Printf("⚠️  MONAD_CHAIN_ID %q is not a number — using testnet default", v)
		}
	}

	c := &Client{rpcURL: rpcURL, chainID: chainID}

	var err error
	c.erc20, err = abi.JSON(strings.NewReader(erc20ABI))
	if err != nil {
		log.Fatal("failed to parse ERC-20 ABI:", err)
	}
	c.treasAbi, err = abi.JSON(strings.NewReader(treasuryABI))
	if err != nil {
		log.Fatal("failed to parse treasury ABI:", err)
	}

	rawKey := os.Getenv("AGENT_PRIVATE_KEY")
	treasury := os.Getenv("TREASURY_ADDRESS")
	token := os.Getenv("FORGOOD_TOKEN_ADDRESS")

	if rawKey == "" || !addressRe.MatchString(treasury) || !addressRe.MatchString(token) {
		log.Println("⚠️  On-chain settlement disabled — set AGENT_PRIVATE_KEY, TREASURY_ADDRESS and FORGOOD_TOKEN_ADDRESS to enable")
		return c
	}
	if !privateKeyRe.MatchString(rawKey) {
		log.Println("⚠️  AGENT_PRIVATE_KEY is not a valid 32-byte hex key — on-chain settlement disabled")
		return c
	}

	key, err := crypto.HexToECDSA(strings.TrimPrefix(rawKey, "0x"))
	if err != nil {
		log.Printf("⚠️  Failed to parse AGENT_PRIVATE_KEY: %v — on-chain settlement disabled", err)
		return c
	}

	c.key = key
	c.treasury = common.HexToAddress(treasury)
	c.token = common.HexToAddress(token)
	c.enabled = true
	return c
}

// Enabled reports whether real settlement is configured.
func (c *Client) Enabled() bool {
	return c != nil && c.enabled
}

func (c *Client) client() (*ethclient.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.eth != nil {
		return c.eth, nil
	}
	eth, err := ethclient.Dial(c.rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial Monad RPC %s: %w", c.rpcURL, err)
	}
	c.eth = eth
	return eth, nil
}

// TreasuryBalance reads the treasury's FORGOOD token balance.
func (c *Client) TreasuryBalance(ctx context.Context) (*big.Int, error) {
	if !c.Enabled() {
		return nil, errors.New("on-chain settlement is not configured")
	}
	eth, err := c.client()
	if err != nil {
		return nil, err
	}

	contract := bind.NewBoundContract(c.token, c.erc20, eth, eth, eth)
	var out []interface{}
	if err := contract.Call(&bind.CallOpts{Context: ctx}, &out, "balanceOf", c.treasury); err != nil {
		return nil, fmt.Errorf("balanceOf call failed: %w", err)
	}
	balance, ok := out[0].(*big.Int)
	if !ok {
		return nil, errors.New("unexpected balanceOf return type")
	}
	return balance, nil
}

// ReleaseReward calls treasury.releaseReward and blocks until the transaction
// is mined. A reverted transaction is an error, never a silent success.
func (c *Client) ReleaseReward(ctx context.Context, recipient string, amount *big.Int) (string, error) {
	if !c.Enabled() {
		return "", errors.New("on-chain settlement is not configured")
	}
	if !addressRe.MatchString(recipient) {
		return "", fmt.Errorf("invalid recipient address %q", recipient)
	}
	eth, err := c.client()
	if err != nil {
		return "", err
	}

	opts, err := bind.NewKeyedTransactorWithChainID(c.key, c.chainID)
	if err != nil {
		return "", fmt.Errorf("failed to build transactor: %w", err)
	}
	opts.Context = ctx

	contract := bind.NewBoundContract(c.treasury, c.treasAbi, eth, eth, eth)
	tx, err := contract.Transact(opts, "releaseReward", common.HexToAddress(recipient), amount)
	if err != nil {
		return "", fmt.Errorf("releaseReward transaction failed: %w", err)
	}

	receipt, err := bind.WaitMined(ctx, eth, tx)
	if err != nil {
		return "", fmt.Errorf("waiting for releaseReward receipt: %w", err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return "", fmt.Errorf("releaseReward transaction %s reverted — check treasury balance and rewarder authorization", tx.Hash().Hex())
	}
	return tx.Hash().Hex(), nil
}

// VerifyReceipt checks whether a settlement transaction succeeded on-chain.
func (c *Client) VerifyReceipt(ctx context.Context, txHash string) (bool, error) {
	if !c.Enabled() {
		return false, errors.New("on-chain settlement is not configured")
	}
	eth, err := c.client()
	if err != nil {
		return false, err
	}
	receipt, err := eth.TransactionReceipt(ctx, common.HexToHash(txHash))
	if err != nil {
		return false, fmt.Errorf("failed to fetch receipt for %s: %w", txHash, err)
	}
	return receipt.Status == types.ReceiptStatusSuccessful, nil
}
