package dex

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

type handler func(args []interface{}) ([]interface{}, error)

type fakeContract struct {
	abi      abi.ABI
	handlers map[string]handler
}

// fakeChain answers eth_calls by decoding the selector against each contract's ABI and packing
// the handler's return values.
type fakeChain struct {
	mu        sync.Mutex
	contracts map[common.Address]fakeContract
	calls     map[string]int
}

func newFakeChain() *fakeChain {
	return &fakeChain{contracts: make(map[common.Address]fakeContract), calls: make(map[string]int)}
}

func (f *fakeChain) deploy(addr common.Address, parsed abi.ABI, handlers map[string]handler) {
	f.contracts[addr] = fakeContract{abi: parsed, handlers: handlers}
}

func (f *fakeChain) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	if msg.To == nil {
		return nil, fmt.Errorf("call without target")
	}
	c, ok := f.contracts[*msg.To]
	if !ok {
		return nil, fmt.Errorf("no contract at %s", msg.To.Hex())
	}
	if len(msg.Data) < 4 {
		return nil, fmt.Errorf("short calldata")
	}
	method, err := c.abi.MethodById(msg.Data[:4])
	if err != nil {
		return nil, err
	}
	h, ok := c.handlers[method.Name]
	if !ok {
		return nil, fmt.Errorf("execution reverted: %s", method.Name)
	}
	args, err := method.Inputs.Unpack(msg.Data[4:])
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	f.calls[method.Name]++
	f.mu.Unlock()

	outs, err := h(args)
	if err != nil {
		return nil, err
	}
	return method.Outputs.Pack(outs...)
}

func mustABI(json string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(json))
	if err != nil {
		panic(err)
	}
	return parsed
}

func returns(values ...interface{}) handler {
	return func([]interface{}) ([]interface{}, error) { return values, nil }
}

func bi(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic("bad big int " + s)
	}
	return v
}
