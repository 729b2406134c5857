package txpool

import "go.uber.org/zap"

type Config struct {
	Chain IBlockchain
	// Capacity caps the number of queued transactions; zero means poolCap.
	Capacity int
	// VerifySignatures refuses transactions whose signatures do not check
	// out against their payload hash.
	VerifySignatures bool

	Logger *zap.Logger
}
