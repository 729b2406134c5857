package wsv

import (
	"github.com/korthochain/ledger/pkg/model"
)

// Config bounds what the world state accepts.
type Config struct {
	DomainMetadataLimits          model.MetadataLimits `yaml:"domainmetadatalimits"`
	AccountMetadataLimits         model.MetadataLimits `yaml:"accountmetadatalimits"`
	AssetDefinitionMetadataLimits model.MetadataLimits `yaml:"assetdefinitionmetadatalimits"`
	AssetMetadataLimits           model.MetadataLimits `yaml:"assetmetadatalimits"`
	IdentLengthLimits             model.LengthLimits   `yaml:"identlengthlimits"`
}

var defaultMetadataLimits = model.MetadataLimits{MaxLen: 1 << 20, MaxEntryByteSize: 1 << 12}

func DefaultConfig() Config {
	return Config{
		DomainMetadataLimits:          defaultMetadataLimits,
		AccountMetadataLimits:         defaultMetadataLimits,
		AssetDefinitionMetadataLimits: defaultMetadataLimits,
		AssetMetadataLimits:           defaultMetadataLimits,
		IdentLengthLimits:             model.LengthLimits{Min: 1, Max: 128},
	}
}
