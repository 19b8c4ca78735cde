// Package config holds the deployment parameters shared by the cot
// command line tools.
package config

import (
	"io"

	"github.com/BurntSushi/toml"
	"github.com/optable/cot/internal/hash"
	"github.com/optable/cot/internal/mimc"
	"github.com/optable/cot/internal/replay"
	"github.com/optable/cot/pkg/cot"
	"github.com/pkg/errors"
)

// Config is read from a TOML file. Fields left out keep their Default value.
type Config struct {
	// Address is where the receiver listens and the sender dials
	Address string `toml:"address"`
	// BatchSize is the number of pairs per session
	BatchSize int `toml:"batch_size"`
	// Mode is "malicious" or "semi-honest"
	Mode string `toml:"mode"`
	// Rounds and ConstantsSeed parameterize the label pads and must
	// match on both sides
	Rounds        int    `toml:"rounds"`
	ConstantsSeed string `toml:"constants_seed"`
	// CRSFile holds the marshaled common reference string
	CRSFile string `toml:"crs_file"`

	Verbosity int    `toml:"verbosity"`
	LogFile   string `toml:"log_file"`

	// ReplayCapacity is the number of receiver keys the sender remembers,
	// zero disables the check
	ReplayCapacity      uint    `toml:"replay_capacity"`
	ReplayFalsePositive float64 `toml:"replay_false_positive"`
	// ReplayHash fingerprints the keys: highway, murmur3 or metro
	ReplayHash string `toml:"replay_hash"`

	// DialRetries bounds the attempts of a sender to reach the receiver
	DialRetries uint64 `toml:"dial_retries"`
}

// Default returns the reference parameterization
func Default() Config {
	return Config{
		Address:             "127.0.0.1:6667",
		BatchSize:           128,
		Mode:                cot.Malicious.String(),
		Rounds:              mimc.DefaultRounds,
		ConstantsSeed:       mimc.DefaultSeed,
		CRSFile:             "crs.bin",
		ReplayCapacity:      1 << 20,
		ReplayFalsePositive: 1e-9,
		ReplayHash:          "highway",
		DialRetries:         10,
	}
}

// Load reads the TOML file at path over the defaults
func Load(path string) (Config, error) {
	c := Default()
	md, err := toml.DecodeFile(path, &c)
	if err != nil {
		return c, errors.Wrapf(err, "load config %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return c, errors.Errorf("unknown config key %s in %s", undecoded[0], path)
	}
	return c, c.Validate()
}

// Validate checks that every field holds a usable value
func (c Config) Validate() error {
	switch {
	case c.Address == "":
		return errors.New("address is required")
	case c.BatchSize <= 0:
		return errors.Errorf("batch_size must be positive, got %d", c.BatchSize)
	case c.Rounds <= 0:
		return errors.Errorf("rounds must be positive, got %d", c.Rounds)
	case c.Verbosity < 0 || c.Verbosity > 2:
		return errors.Errorf("verbosity must be 0, 1 or 2, got %d", c.Verbosity)
	case c.ReplayCapacity > 0 && (c.ReplayFalsePositive <= 0 || c.ReplayFalsePositive >= 1):
		return errors.Errorf("replay_false_positive must be in (0, 1), got %v", c.ReplayFalsePositive)
	}
	if _, err := hash.ParseType(c.ReplayHash); err != nil {
		return errors.Wrap(err, "replay_hash")
	}
	_, err := cot.ParseMode(c.Mode)
	return err
}

// SessionMode returns the parsed Mode
func (c Config) SessionMode() cot.Mode {
	m, _ := cot.ParseMode(c.Mode)
	return m
}

// Hasher returns the pad hasher of c
func (c Config) Hasher() (*mimc.Hasher, error) {
	return mimc.New(c.ConstantsSeed, c.Rounds)
}

// ReplayGuard returns the sender's key reuse guard, or nil when
// ReplayCapacity is zero
func (c Config) ReplayGuard(rng io.Reader) (*replay.Guard, error) {
	if c.ReplayCapacity == 0 {
		return nil, nil
	}
	t, err := hash.ParseType(c.ReplayHash)
	if err != nil {
		return nil, err
	}
	return replay.New(c.ReplayCapacity, c.ReplayFalsePositive, t, rng)
}
