package solana

import (
	"crypto/ed25519"
	"encoding/base64"
	"time"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/ybbus/jsonrpc"

	"github.com/code-payments/code-config-program/pkg/retry"
	"github.com/code-payments/code-config-program/pkg/retry/backoff"
)

const (
	// Reference: https://github.com/solana-labs/solana/blob/71e9958e061493d7545bd28d4ac7a85aaed6ffbb/client/src/rpc_custom_error.rs#L11
	rpcNodeUnhealthyCode = -32005

	maxRPCAttempts = 3
)

type Commitment struct {
	Commitment string `json:"commitment"`
}

var (
	CommitmentProcessed = Commitment{Commitment: "processed"}
	CommitmentConfirmed = Commitment{Commitment: "confirmed"}
	CommitmentFinalized = Commitment{Commitment: "finalized"}
)

var (
	ErrNoAccountInfo = errors.New("no account info")
)

// AccountInfo is the state of an account as seen by a program
type AccountInfo struct {
	Data       []byte
	Owner      ed25519.PublicKey
	Lamports   uint64
	Executable bool
}

// ProgramAccount is an account returned by GetProgramAccounts
type ProgramAccount struct {
	Address ed25519.PublicKey
	Account AccountInfo
}

// Client provides the subset of the Solana JSON-RPC API needed to inspect
// program owned accounts
type Client interface {
	GetAccountInfo(account ed25519.PublicKey, commitment Commitment) (AccountInfo, error)

	// GetProgramAccounts lists accounts owned by program. A non-zero dataSize
	// only returns accounts of exactly that many bytes.
	GetProgramAccounts(program ed25519.PublicKey, commitment Commitment, dataSize uint64) ([]ProgramAccount, error)

	GetMinimumBalanceForRentExemption(size uint64) (lamports uint64, err error)
}

var (
	errRateLimited  = errors.New("rate limited")
	errServiceError = errors.New("service error")
)

type client struct {
	log     *logrus.Entry
	client  jsonrpc.RPCClient
	retrier retry.Retrier
}

// New returns a client using the specified endpoint
func New(endpoint string) Client {
	return NewWithRPCOptions(endpoint, nil)
}

// NewWithRPCOptions returns a client configured with the specified RPC options
func NewWithRPCOptions(endpoint string, opts *jsonrpc.RPCClientOpts) Client {
	return &client{
		log:    logrus.StandardLogger().WithField("type", "solana/client"),
		client: jsonrpc.NewClientWithOpts(endpoint, opts),
		retrier: retry.NewRetrier(
			retry.RetriableErrors(errRateLimited, errServiceError),
			retry.Limit(maxRPCAttempts),
			retry.Backoff(backoff.BinaryExponential(time.Second), 10*time.Second),
		),
	}
}

// rpcAccount is an account as encoded by the RPC with base64 data
type rpcAccount struct {
	Lamports   uint64   `json:"lamports"`
	Owner      string   `json:"owner"`
	Data       []string `json:"data"`
	Executable bool     `json:"executable"`
}

func (a *rpcAccount) toAccountInfo() (AccountInfo, error) {
	owner, err := base58.Decode(a.Owner)
	if err != nil {
		return AccountInfo{}, errors.Wrap(err, "invalid base58 encoded owner")
	}

	if len(a.Data) == 0 {
		return AccountInfo{}, errors.New("missing account data")
	}
	data, err := base64.StdEncoding.DecodeString(a.Data[0])
	if err != nil {
		return AccountInfo{}, errors.Wrap(err, "invalid base64 encoded data")
	}

	return AccountInfo{
		Data:       data,
		Owner:      owner,
		Lamports:   a.Lamports,
		Executable: a.Executable,
	}, nil
}

type dataSizeFilter struct {
	DataSize uint64 `json:"dataSize"`
}

type rpcAccountConfig struct {
	Commitment string           `json:"commitment"`
	Encoding   string           `json:"encoding"`
	Filters    []dataSizeFilter `json:"filters,omitempty"`
}

func (c *client) call(out interface{}, method string, params ...interface{}) error {
	_, err := c.retrier.Retry(func() error {
		err := c.client.CallFor(out, method, params...)
		if err == nil {
			return nil
		}
		return c.classifyRPCError(method, err)
	})
	return err
}

// classifyRPCError maps rate limiting and node failures to retriable errors
func (c *client) classifyRPCError(method string, err error) error {
	rpcErr, ok := err.(*jsonrpc.RPCError)
	if !ok {
		return err
	}

	switch {
	case rpcErr.Code == 429:
		c.log.WithField("method", method).Warn("rate limited")
		return errRateLimited
	case rpcErr.Code >= 500, rpcErr.Code == rpcNodeUnhealthyCode:
		c.log.WithField("method", method).WithField("code", rpcErr.Code).Warn("rpc node unavailable")
		return errServiceError
	default:
		return err
	}
}

func (c *client) GetMinimumBalanceForRentExemption(dataSize uint64) (lamports uint64, err error) {
	if err := c.call(&lamports, "getMinimumBalanceForRentExemption", dataSize); err != nil {
		return 0, errors.Wrap(err, "getMinimumBalanceForRentExemption() failed to send request")
	}
	return lamports, nil
}

func (c *client) GetAccountInfo(account ed25519.PublicKey, commitment Commitment) (AccountInfo, error) {
	var resp struct {
		Value *rpcAccount `json:"value"`
	}

	config := rpcAccountConfig{
		Commitment: commitment.Commitment,
		Encoding:   "base64",
	}
	if err := c.call(&resp, "getAccountInfo", base58.Encode(account), config); err != nil {
		return AccountInfo{}, errors.Wrap(err, "getAccountInfo() failed to send request")
	}

	if resp.Value == nil {
		return AccountInfo{}, ErrNoAccountInfo
	}
	return resp.Value.toAccountInfo()
}

func (c *client) GetProgramAccounts(program ed25519.PublicKey, commitment Commitment, dataSize uint64) ([]ProgramAccount, error) {
	var resp []struct {
		Pubkey  string     `json:"pubkey"`
		Account rpcAccount `json:"account"`
	}

	config := rpcAccountConfig{
		Commitment: commitment.Commitment,
		Encoding:   "base64",
	}
	if dataSize > 0 {
		config.Filters = []dataSizeFilter{{DataSize: dataSize}}
	}
	if err := c.call(&resp, "getProgramAccounts", base58.Encode(program), config); err != nil {
		return nil, errors.Wrap(err, "getProgramAccounts() failed to send request")
	}

	accounts := make([]ProgramAccount, len(resp))
	for i, item := range resp {
		address, err := base58.Decode(item.Pubkey)
		if err != nil {
			return nil, errors.Wrap(err, "invalid base58 encoded pubkey")
		}

		info, err := item.Account.toAccountInfo()
		if err != nil {
			return nil, errors.Wrapf(err, "invalid account %s", item.Pubkey)
		}

		accounts[i] = ProgramAccount{Address: address, Account: info}
	}
	return accounts, nil
}
