package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/korthochain/ledger/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	genesisKey = model.NewPublicKey("ed25519", []byte{9, 9, 9, 9})
	alice      = model.NewAccountId(model.NewPublicKey("ed25519", []byte{1, 1, 1, 1}), "wonderland")
)

const testConfig = `
nodename: test
logconfig:
  level: ERROR
  filename: ""
storageconfig:
  engine: leveldb
  path: %s
chainconfig:
  genesispath: %s
  genesispublickey: %s
ntpconfig:
  disabled: true
`

const testGenesis = `
transactions:
  - isi:
      - kind: register_domain
        domain: wonderland
      - kind: register_account
        account: %[1]s
      - kind: register_asset_definition
        definition: rose#wonderland
      - kind: mint
        asset: rose#wonderland#%[1]s
        amount: 13
`

func run(t *testing.T, args ...string) (string, error) {
	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestGenesisThenInspect(t *testing.T) {
	assert := assert.New(t)
	dir := t.TempDir()
	genesisPath := filepath.Join(dir, "genesis.yaml")
	configPath := filepath.Join(dir, "ledgerConf.yaml")
	require.NoError(t, os.WriteFile(genesisPath, []byte(fmt.Sprintf(testGenesis, alice)), 0o644))
	require.NoError(t, os.WriteFile(configPath,
		[]byte(fmt.Sprintf(testConfig, filepath.Join(dir, "db"), genesisPath, genesisKey)), 0o644))

	out, err := run(t, "genesis", "-c", configPath)
	require.NoError(t, err)
	assert.Contains(out, "genesis block")

	// the store now holds a chain
	_, err = run(t, "genesis", "-c", configPath)
	assert.Error(err)

	out, err = run(t, "inspect", "account", alice.String(), "-c", configPath)
	require.NoError(t, err)
	assert.Contains(out, "account "+alice.String())
	assert.Contains(out, "asset rose#wonderland#"+alice.String()+" = 13")

	out, err = run(t, "inspect", "blocks", "-c", configPath)
	require.NoError(t, err)
	assert.NotEmpty(out)

	_, err = run(t, "inspect", "domain", "nowhere", "-c", configPath)
	assert.Error(err)

	_, err = run(t, "inspect", "weather", "-c", configPath)
	assert.Error(err)
}
