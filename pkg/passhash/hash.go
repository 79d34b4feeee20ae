package passhash

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"sync/atomic"

	"golang.org/x/crypto/scrypt"
)

// Hasher computes and verifies salted scrypt password records against a
// process-wide parameter set. The parameter set is held as an immutable snapshot
// behind an atomic pointer: Configure swaps the whole snapshot at once, so
// concurrent Hash/Verify/NeedsRehash calls always observe an internally
// consistent set, never a half-updated one.
type Hasher struct {
	current atomic.Pointer[Params]
}

// New creates a Hasher with the documented defaults, adjusted by the given options.
// The zero value is also usable and starts from the documented defaults.
func New(opts ...Option) (*Hasher, error) {
	h := &Hasher{}
	if len(opts) > 0 {
		if _, err := h.Configure(opts...); err != nil {
			return nil, err
		}
	}
	return h, nil
}

func (h *Hasher) snapshot() Params {
	if p := h.current.Load(); p != nil {
		return *p
	}
	return DefaultParams()
}

// Configure merges the given options into the current parameter set and durably
// swaps it in, returning the result. With no options it's a pure read of the
// current set. Integer fields given the Default sentinel revert to their
// documented defaults rather than keeping their previous value.
func (h *Hasher) Configure(opts ...Option) (Params, error) {
	cur := h.snapshot()
	if len(opts) == 0 {
		return cur, nil
	}
	next, err := resolve(cur, opts)
	if err != nil {
		return Params{}, err
	}
	h.current.Store(&next)
	return next, nil
}

// Params returns the current parameter set snapshot.
func (h *Hasher) Params() Params {
	return h.snapshot()
}

// Resolve merges the given options over the current parameter set without
// changing it, returning the parameters a Hash call with the same options would use.
func (h *Hasher) Resolve(opts ...Option) (Params, error) {
	return resolve(h.snapshot(), opts)
}

func resolve(cur Params, opts []Option) (Params, error) {
	if len(opts) == 0 {
		return cur, nil
	}
	ov, err := gather(opts)
	if err != nil {
		return Params{}, err
	}
	next := ov.apply(cur)
	if err := next.validate(); err != nil {
		return Params{}, err
	}
	return next, nil
}

// Hash derives a key from the passphrase under the current parameters (adjusted
// by the given options for this call only) and returns the encoded record.
// The derivation is deliberately expensive; that cost is the security property.
func (h *Hasher) Hash(password string, opts ...Option) (string, error) {
	if len(password) == 0 {
		return "", ErrEmptyPassphrase
	}
	params, err := h.Resolve(opts...)
	if err != nil {
		return "", err
	}
	salt := make([]byte, params.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	key, err := derive([]byte(password+params.Pepper), salt, params.HashLength,
		params.Cost, params.BlockSize, params.Parallelism, params.MaxMemory)
	if err != nil {
		return "", err
	}
	rec := Record{
		Key:         key,
		Salt:        salt,
		Cost:        params.Cost,
		BlockSize:   params.BlockSize,
		Parallelism: params.Parallelism,
	}
	return rec.Encode(), nil
}

// Verify reports whether the passphrase matches the encoded record.
//
// The record is re-derived under its own embedded work factors, salt, and key
// length; the current parameters contribute only the pepper, the memory ceiling,
// and the strict/permissive acceptance policy. Every failure mode (malformed
// record, policy mismatch, derivation refused) collapses to false so the caller
// can't distinguish a bad record from a wrong passphrase.
func (h *Hasher) Verify(password, encoded string, opts ...Option) bool {
	params, err := h.Resolve(opts...)
	if err != nil {
		return false
	}
	rec, err := ParseRecord(encoded, params)
	if err != nil {
		return false
	}
	key, err := derive([]byte(password+params.Pepper), rec.Salt, len(rec.Key),
		rec.Cost, rec.BlockSize, rec.Parallelism, params.MaxMemory)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare(key, rec.Key) == 1
}

// NeedsRehash reports whether the record should be reissued because it no longer
// matches the current parameters. The record is parsed with strict comparison
// forced on, whatever the caller's own strict setting is; anything that fails
// that parse, malformed records included, should be reissued on the next
// successful verification.
func (h *Hasher) NeedsRehash(encoded string, opts ...Option) bool {
	params, err := h.Resolve(opts...)
	if err != nil {
		return true
	}
	params.Strict = true
	_, err = ParseRecord(encoded, params)
	return err != nil
}

// derive invokes scrypt after checking the estimated memory footprint against
// maxMemory. The estimate covers the main V array plus the per-thread blocks.
func derive(password, salt []byte, keyLen, cost, blockSize, parallelism, maxMemory int) ([]byte, error) {
	est := 128*blockSize*cost + 128*blockSize*parallelism
	if est <= 0 || est > maxMemory {
		return nil, fmt.Errorf("%w: N=%d r=%d p=%d needs roughly %d bytes, limit is %d",
			ErrResourceExceeded, cost, blockSize, parallelism, est, maxMemory)
	}
	key, err := scrypt.Key(password, salt, cost, blockSize, parallelism, keyLen)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidParameter, err)
	}
	return key, nil
}

var std = new(Hasher)

// Configure merges options into the package-wide parameter set. See Hasher.Configure.
func Configure(opts ...Option) (Params, error) {
	return std.Configure(opts...)
}

// Hash derives a record from the passphrase using the package-wide Hasher.
func Hash(password string, opts ...Option) (string, error) {
	return std.Hash(password, opts...)
}

// Verify checks the passphrase against a record using the package-wide Hasher.
func Verify(password, encoded string, opts ...Option) bool {
	return std.Verify(password, encoded, opts...)
}

// NeedsRehash probes a record against the package-wide parameters. See Hasher.NeedsRehash.
func NeedsRehash(encoded string, opts ...Option) bool {
	return std.NeedsRehash(encoded, opts...)
}
