package model

import (
	"fmt"
)

type BlockHeaderValue struct {
	_ struct{} `cbor:",toarray"`
	// Timestamp is in milliseconds since the unix epoch.
	Timestamp                U128
	Height                   uint64
	PreviousBlockHash        Option[Hash]
	TransactionsHash         Hash
	RejectedTransactionsHash Hash
	InvalidatedBlocksHashes  []Hash
	CurrentBlockHash         Hash
}

// CompareHeaders orders headers by timestamp alone. Height does not take
// part in the comparison.
func CompareHeaders(a, b BlockHeaderValue) int {
	return a.Timestamp.Cmp(b.Timestamp.Uint128)
}

func (h BlockHeaderValue) String() string {
	return fmt.Sprintf("block %d %s", h.Height, h.CurrentBlockHash)
}

type BlockValue struct {
	_                    struct{} `cbor:",toarray"`
	Header               BlockHeaderValue
	Transactions         []Transaction
	RejectedTransactions []RejectedTransaction
	EventRecommendations []DataEvent
}

func (b *BlockValue) Hash() Hash {
	return b.Header.CurrentBlockHash
}

// CompareBlocks orders blocks the way CompareHeaders orders their headers.
func CompareBlocks(a, b *BlockValue) int {
	return CompareHeaders(a.Header, b.Header)
}

func (b *BlockValue) Serialize() ([]byte, error) {
	return serialize(b)
}

func DeserializeBlock(data []byte) (*BlockValue, error) {
	b := &BlockValue{}
	if err := deserialize("block", data, b); err != nil {
		return nil, err
	}
	return b, nil
}
