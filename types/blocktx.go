package types

import (
	"fmt"
	"strconv"
	"strings"
)

// BlockTx is the canonical (block_height, tx_index) coordinate of any
// message-bearing transaction. It doubles as a contract's permanent ID:
// the ID of a contract is the BlockTx of the creation message.
type BlockTx struct {
	Block uint64
	Tx    uint32
}

func (b BlockTx) String() string {
	return fmt.Sprintf("%d:%d", b.Block, b.Tx)
}

// ParseBlockTx parses the "block:tx" string form produced by String.
func ParseBlockTx(s string) (BlockTx, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return BlockTx{}, fmt.Errorf("blocktx: malformed %q", s)
	}
	block, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil {
		return BlockTx{}, fmt.Errorf("blocktx: bad block in %q: %w", s, err)
	}
	tx, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil {
		return BlockTx{}, fmt.Errorf("blocktx: bad tx in %q: %w", s, err)
	}
	return BlockTx{Block: block, Tx: uint32(tx)}, nil
}

// MarshalJSON encodes a BlockTx as the two-element tuple the original
// wire format uses ([block, tx]), not an object, so stored contract IDs
// round-trip byte-identically regardless of the language reindexing them.
func (b BlockTx) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("[%d,%d]", b.Block, b.Tx)), nil
}

func (b *BlockTx) UnmarshalJSON(data []byte) error {
	var block uint64
	var tx uint32
	trimmed := strings.TrimSpace(string(data))
	trimmed = strings.TrimPrefix(trimmed, "[")
	trimmed = strings.TrimSuffix(trimmed, "]")
	parts := strings.SplitN(trimmed, ",", 2)
	if len(parts) != 2 {
		return fmt.Errorf("blocktx: malformed tuple %q", string(data))
	}
	var err error
	block, err = strconv.ParseUint(strings.TrimSpace(parts[0]), 10, 64)
	if err != nil {
		return fmt.Errorf("blocktx: %w", err)
	}
	tx64, err := strconv.ParseUint(strings.TrimSpace(parts[1]), 10, 32)
	if err != nil {
		return fmt.Errorf("blocktx: %w", err)
	}
	tx = uint32(tx64)
	b.Block, b.Tx = block, tx
	return nil
}
