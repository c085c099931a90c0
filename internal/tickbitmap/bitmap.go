// Package tickbitmap scans a pool's tick bitmap: counting initialized ticks between two ticks,
// locating the next initialized tick, and listing the populated ticks of one word.
package tickbitmap

import (
	"context"
	"errors"
	"fmt"
	"math/bits"

	"github.com/holiman/uint256"

	"github.com/Uniswap/v3-periphery-sub000/internal/tickmath"
)

var errNilReader = errors.New("bitmap reader is nil")

// BitmapReader returns the 256-bit initialization word at wordPos.
type BitmapReader interface {
	TickBitmap(ctx context.Context, wordPos int16) (*uint256.Int, error)
}

// pages memoizes bitmap words for the duration of one call.
type pages struct {
	reader BitmapReader
	words  map[int16]*uint256.Int
}

func newPages(reader BitmapReader) *pages {
	return &pages{reader: reader, words: make(map[int16]*uint256.Int)}
}

func (p *pages) word(ctx context.Context, wordPos int16) (*uint256.Int, error) {
	if w, ok := p.words[wordPos]; ok {
		return w, nil
	}
	w, err := p.reader.TickBitmap(ctx, wordPos)
	if err != nil {
		return nil, fmt.Errorf("read bitmap word %d: %w", wordPos, err)
	}
	if w == nil {
		w = new(uint256.Int)
	}
	p.words[wordPos] = w
	return w, nil
}

// Position splits a compressed tick index into its word and bit.
func Position(compressed int32) (wordPos int16, bitPos uint8) {
	return int16(compressed >> 8), uint8(compressed & 0xff)
}

// CountInitializedTicksCrossed counts the initialized ticks a swap from tickBefore to tickAfter
// crosses. The starting tick is not counted when moving up and the ending tick is not counted
// when moving down, since the pool does not cross them. Equal ticks count the tick itself.
func CountInitializedTicksCrossed(ctx context.Context, reader BitmapReader, tickSpacing, tickBefore, tickAfter int32) (uint32, error) {
	if reader == nil {
		return 0, errNilReader
	}
	if tickSpacing <= 0 {
		return 0, fmt.Errorf("%w: %d", tickmath.ErrInvalidTickSpacing, tickSpacing)
	}
	p := newPages(reader)

	wordBefore, bitBefore := Position(tickBefore / tickSpacing)
	wordAfter, bitAfter := Position(tickAfter / tickSpacing)

	afterSet, err := p.isSet(ctx, wordAfter, bitAfter)
	if err != nil {
		return 0, err
	}
	beforeSet, err := p.isSet(ctx, wordBefore, bitBefore)
	if err != nil {
		return 0, err
	}
	skipAfter := afterSet && tickAfter%tickSpacing == 0 && tickBefore > tickAfter
	skipBefore := beforeSet && tickBefore%tickSpacing == 0 && tickBefore < tickAfter

	count, err := p.countRange(ctx, wordBefore, bitBefore, wordAfter, bitAfter)
	if err != nil {
		return 0, err
	}
	if skipAfter {
		count--
	}
	if skipBefore {
		count--
	}
	return count, nil
}

// CountInitializedTicksInRange counts every initialized tick in [tickLower, tickUpper], both ends
// included. Bounds may be given in either order.
func CountInitializedTicksInRange(ctx context.Context, reader BitmapReader, tickSpacing, tickLower, tickUpper int32) (uint32, error) {
	if reader == nil {
		return 0, errNilReader
	}
	if tickSpacing <= 0 {
		return 0, fmt.Errorf("%w: %d", tickmath.ErrInvalidTickSpacing, tickSpacing)
	}
	wordLower, bitLower := Position(tickLower / tickSpacing)
	wordUpper, bitUpper := Position(tickUpper / tickSpacing)
	return newPages(reader).countRange(ctx, wordLower, bitLower, wordUpper, bitUpper)
}

func (p *pages) isSet(ctx context.Context, wordPos int16, bitPos uint8) (bool, error) {
	w, err := p.word(ctx, wordPos)
	if err != nil {
		return false, err
	}
	return w[bitPos/64]&(1<<(bitPos%64)) != 0, nil
}

// countRange pops the bits between two bitmap positions, both included.
func (p *pages) countRange(ctx context.Context, wordA int16, bitA uint8, wordB int16, bitB uint8) (uint32, error) {
	if wordA > wordB || (wordA == wordB && bitA > bitB) {
		wordA, bitA, wordB, bitB = wordB, bitB, wordA, bitA
	}

	var count uint32
	mask := new(uint256.Int).Lsh(maxWord(), uint(bitA))
	for w := int32(wordA); w <= int32(wordB); w++ {
		if w == int32(wordB) {
			mask.And(mask, new(uint256.Int).Rsh(maxWord(), uint(255-bitB)))
		}
		word, err := p.word(ctx, int16(w))
		if err != nil {
			return 0, err
		}
		count += popCount(new(uint256.Int).And(word, mask))
		mask = maxWord()
	}
	return count, nil
}

// NextInitializedTickWithinOneWord returns the next initialized tick at or below tick (lte) or
// above tick, searching only the word that holds it. When none is found the word boundary is
// returned with initialized set to false.
func NextInitializedTickWithinOneWord(ctx context.Context, reader BitmapReader, tickSpacing, tick int32, lte bool) (next int32, initialized bool, err error) {
	if reader == nil {
		return 0, false, errNilReader
	}
	if tickSpacing <= 0 {
		return 0, false, fmt.Errorf("%w: %d", tickmath.ErrInvalidTickSpacing, tickSpacing)
	}
	compressed := tick / tickSpacing
	if tick < 0 && tick%tickSpacing != 0 {
		compressed--
	}
	p := newPages(reader)

	if lte {
		wordPos, bitPos := Position(compressed)
		word, err := p.word(ctx, wordPos)
		if err != nil {
			return 0, false, err
		}
		masked := new(uint256.Int).Rsh(maxWord(), uint(255-bitPos))
		masked.And(masked, word)
		if masked.IsZero() {
			return (compressed - int32(bitPos)) * tickSpacing, false, nil
		}
		msb := int32(masked.BitLen() - 1)
		return (compressed - int32(bitPos) + msb) * tickSpacing, true, nil
	}

	wordPos, bitPos := Position(compressed + 1)
	word, err := p.word(ctx, wordPos)
	if err != nil {
		return 0, false, err
	}
	masked := new(uint256.Int).Lsh(maxWord(), uint(bitPos))
	masked.And(masked, word)
	if masked.IsZero() {
		return (compressed + 1 + int32(255-bitPos)) * tickSpacing, false, nil
	}
	lsb := int32(leastSignificantBit(masked))
	return (compressed + 1 + lsb - int32(bitPos)) * tickSpacing, true, nil
}

func maxWord() *uint256.Int {
	return new(uint256.Int).Not(new(uint256.Int))
}

func popCount(x *uint256.Int) uint32 {
	var n int
	for i := 0; i < 4; i++ {
		n += bits.OnesCount64(x[i])
	}
	return uint32(n)
}

func leastSignificantBit(x *uint256.Int) int {
	for i := 0; i < 4; i++ {
		if x[i] != 0 {
			return i*64 + bits.TrailingZeros64(x[i])
		}
	}
	return 256
}
