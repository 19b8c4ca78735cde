package config

import (
	"crypto/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/optable/cot/internal/mimc"
	"github.com/optable/cot/internal/replay"
	"github.com/optable/cot/pkg/cot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	path := filepath.Join(t.TempDir(), "cot.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefault(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())
	assert.Equal(t, cot.Malicious, c.SessionMode())

	h, err := c.Hasher()
	require.NoError(t, err)
	assert.Equal(t, mimc.Default().Digest(), h.Digest())
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
address = "10.0.0.1:7000"
batch_size = 16
mode = "semi-honest"
verbosity = 2
`)
	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.1:7000", c.Address)
	assert.Equal(t, 16, c.BatchSize)
	assert.Equal(t, cot.SemiHonest, c.SessionMode())
	assert.Equal(t, 2, c.Verbosity)
	// untouched keys keep their defaults
	assert.Equal(t, mimc.DefaultRounds, c.Rounds)
}

func TestLoadRejects(t *testing.T) {
	for name, body := range map[string]string{
		"unknown key": `colour = "blue"`,
		"bad mode":    `mode = "paranoid"`,
		"empty batch": `batch_size = 0`,
		"bad rounds":  `rounds = -1`,
		"bad fp rate": `replay_false_positive = 2.0`,
		"bad hash":    `replay_hash = "sha1"`,
		"not toml":    `address = `,
	} {
		_, err := Load(writeConfig(t, body))
		assert.Error(t, err, name)
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestReplayGuard(t *testing.T) {
	key := []byte("a receiver public key")
	for _, name := range []string{"highway", "murmur3", "metro"} {
		c, err := Load(writeConfig(t, `replay_capacity = 64
replay_hash = "`+name+`"`))
		require.NoError(t, err, name)

		g, err := c.ReplayGuard(rand.Reader)
		require.NoError(t, err, name)
		require.NoError(t, g.Observe([][]byte{key}), name)
		assert.ErrorIs(t, g.Observe([][]byte{key}), replay.ErrKeyReuse, name)
	}

	c := Default()
	c.ReplayCapacity = 0
	g, err := c.ReplayGuard(rand.Reader)
	require.NoError(t, err)
	assert.Nil(t, g)
}
