package passhash

import (
	"errors"
	"fmt"
)

const (
	// DefaultHashLength is the length in bytes of a derived key when no override is given.
	DefaultHashLength = 32
	// DefaultSaltLength is the length in bytes of a generated salt when no override is given.
	DefaultSaltLength = 16
	// DefaultCost is the scrypt CPU/memory cost (N). It must be a power of 2 greater than 1.
	DefaultCost = 1 << 14
	// DefaultBlockSize is the scrypt relative block size (r).
	DefaultBlockSize = 8
	// DefaultParallelism is the scrypt parallelization factor (p).
	DefaultParallelism = 1
	// DefaultMaxMemory is the ceiling on estimated scrypt memory use, in bytes.
	// This is a resource guard for the process, not a security parameter, so it's never written into a record.
	DefaultMaxMemory = 64 << 20
)

// Default is the reset sentinel for integer options.
// Passing it to a Set* option reverts that field to its documented default instead of leaving it unchanged.
const Default = 0

var (
	ErrEmptyPassphrase   = errors.New("cannot hash an empty passphrase")
	ErrMalformedRecord   = errors.New("malformed hash record")
	ErrInvalidParameter  = errors.New("invalid parameter")
	ErrParameterMismatch = errors.New("parameter mismatch")
	ErrResourceExceeded  = errors.New("resource limit exceeded")
)

// Params is a fully resolved parameter set used for one hash or verify operation.
// Every resolved Params has all fields populated; callers never see a partial set.
type Params struct {
	// HashLength is the derived key length in bytes.
	HashLength int
	// SaltLength is the generated salt length in bytes.
	SaltLength int
	// Pepper is appended to the passphrase before derivation.
	// It lives in configuration only and is never written into a record.
	Pepper string
	// Cost is the scrypt CPU/memory cost, also known as N.
	Cost int
	// BlockSize is the scrypt relative block size, also known as r.
	BlockSize int
	// Parallelism is the scrypt parallelization factor, also known as p.
	Parallelism int
	// MaxMemory bounds the estimated memory use of a single derivation.
	MaxMemory int
	// Strict requires a parsed record's embedded parameters to exactly match this Params.
	// When false, any well-formed record is accepted regardless of parameter drift.
	Strict bool
}

// DefaultParams returns the documented default parameter set.
func DefaultParams() Params {
	return Params{
		HashLength:  DefaultHashLength,
		SaltLength:  DefaultSaltLength,
		Pepper:      "",
		Cost:        DefaultCost,
		BlockSize:   DefaultBlockSize,
		Parallelism: DefaultParallelism,
		MaxMemory:   DefaultMaxMemory,
		Strict:      false,
	}
}

func (p Params) validate() error {
	if p.HashLength <= 0 {
		return fmt.Errorf("%w: hash_length must be a positive integer", ErrInvalidParameter)
	}
	if p.SaltLength <= 0 {
		return fmt.Errorf("%w: salt_length must be a positive integer", ErrInvalidParameter)
	}
	if p.Cost <= 0 {
		return fmt.Errorf("%w: cost must be a positive integer", ErrInvalidParameter)
	}
	if p.BlockSize <= 0 {
		return fmt.Errorf("%w: block_size must be a positive integer", ErrInvalidParameter)
	}
	if p.Parallelism <= 0 {
		return fmt.Errorf("%w: parallelization must be a positive integer", ErrInvalidParameter)
	}
	if p.MaxMemory <= 0 {
		return fmt.Errorf("%w: max_memory must be a positive integer", ErrInvalidParameter)
	}
	return nil
}
