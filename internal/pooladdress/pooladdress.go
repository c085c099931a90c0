// Package pooladdress derives deterministic pool addresses from the factory and pool key.
package pooladdress

import (
	"bytes"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// PoolInitCodeHash is the keccak256 of the pool creation code deployed by the factory.
var PoolInitCodeHash = common.HexToHash("0xe34f199b19b2b4f47f68442619d555527d244f78a3297ea89325f843f87b8b54")

var (
	ErrTokenOrderMismatch = errors.New("token0 must sort below token1")
	ErrFeeOutOfRange      = errors.New("fee does not fit uint24")
)

// poolKeyArgs is the abi.encode layout of (address token0, address token1, uint24 fee).
var poolKeyArgs = func() abi.Arguments {
	address, err := abi.NewType("address", "", nil)
	if err != nil {
		panic(err)
	}
	uint24, err := abi.NewType("uint24", "", nil)
	if err != nil {
		panic(err)
	}
	return abi.Arguments{{Type: address}, {Type: address}, {Type: uint24}}
}()

// PoolKey identifies a pool. Token0 sorts strictly below Token1.
type PoolKey struct {
	Token0 common.Address
	Token1 common.Address
	Fee    uint32
}

// GetPoolKey orders two tokens into a PoolKey.
func GetPoolKey(tokenA, tokenB common.Address, fee uint32) PoolKey {
	if bytes.Compare(tokenA.Bytes(), tokenB.Bytes()) > 0 {
		tokenA, tokenB = tokenB, tokenA
	}
	return PoolKey{Token0: tokenA, Token1: tokenB, Fee: fee}
}

// Salt is keccak256(abi.encode(token0, token1, fee)).
func (k PoolKey) Salt() (common.Hash, error) {
	if k.Fee >= 1<<24 {
		return common.Hash{}, fmt.Errorf("%w: %d", ErrFeeOutOfRange, k.Fee)
	}
	encoded, err := poolKeyArgs.Pack(k.Token0, k.Token1, new(big.Int).SetUint64(uint64(k.Fee)))
	if err != nil {
		return common.Hash{}, fmt.Errorf("encode pool key: %w", err)
	}
	return crypto.Keccak256Hash(encoded), nil
}

// ComputeAddress returns the CREATE2 address of the pool for key. Keys whose tokens are not in
// canonical order are rejected rather than reordered.
func ComputeAddress(factory common.Address, key PoolKey) (common.Address, error) {
	if bytes.Compare(key.Token0.Bytes(), key.Token1.Bytes()) >= 0 {
		return common.Address{}, fmt.Errorf("%w: %s >= %s", ErrTokenOrderMismatch, key.Token0.Hex(), key.Token1.Hex())
	}
	salt, err := key.Salt()
	if err != nil {
		return common.Address{}, err
	}
	return crypto.CreateAddress2(factory, salt, PoolInitCodeHash.Bytes()), nil
}
