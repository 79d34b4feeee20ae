package passhash

import "fmt"

// Overrides captures the optional parameter changes requested by a set of Option values.
// Each field is tri-state: absent (nil, leave the current value alone), the Default
// sentinel (revert to the documented default), or a concrete value.
type Overrides struct {
	hashLength  *int
	saltLength  *int
	pepper      *string
	cost        *int
	n           *int
	blockSize   *int
	r           *int
	parallelism *int
	p           *int
	maxMemory   *int
	strict      *bool
}

// Option mutates an Overrides, returning an error if the given value can never be valid.
type Option = func(*Overrides) error

func setInt(dst **int, name string, v int) error {
	if v < 0 {
		return fmt.Errorf("%w: %s must be a positive integer", ErrInvalidParameter, name)
	}
	*dst = &v
	return nil
}

// SetHashLength overrides the derived key length in bytes.
func SetHashLength(n int) Option {
	return func(o *Overrides) error {
		return setInt(&o.hashLength, "hash_length", n)
	}
}

// SetSaltLength overrides the generated salt length in bytes.
func SetSaltLength(n int) Option {
	return func(o *Overrides) error {
		return setInt(&o.saltLength, "salt_length", n)
	}
}

// SetPepper overrides the pepper appended to the passphrase before derivation.
// An empty string is the default (no pepper).
func SetPepper(pepper string) Option {
	return func(o *Overrides) error {
		o.pepper = &pepper
		return nil
	}
}

// SetCost overrides the scrypt CPU/memory cost. The value must be a power of 2 greater
// than 1 to be accepted by scrypt at derivation time.
func SetCost(n int) Option {
	return func(o *Overrides) error {
		return setInt(&o.cost, "cost", n)
	}
}

// SetN is the short-hand alias for SetCost.
// When both are supplied in the same resolution, the alias value wins.
func SetN(n int) Option {
	return func(o *Overrides) error {
		return setInt(&o.n, "N", n)
	}
}

// SetBlockSize overrides the scrypt relative block size.
func SetBlockSize(n int) Option {
	return func(o *Overrides) error {
		return setInt(&o.blockSize, "block_size", n)
	}
}

// SetR is the short-hand alias for SetBlockSize.
// When both are supplied in the same resolution, the alias value wins.
func SetR(n int) Option {
	return func(o *Overrides) error {
		return setInt(&o.r, "r", n)
	}
}

// SetParallelism overrides the scrypt parallelization factor.
func SetParallelism(n int) Option {
	return func(o *Overrides) error {
		return setInt(&o.parallelism, "parallelization", n)
	}
}

// SetP is the short-hand alias for SetParallelism.
// When both are supplied in the same resolution, the alias value wins.
func SetP(n int) Option {
	return func(o *Overrides) error {
		return setInt(&o.p, "p", n)
	}
}

// SetMaxMemory overrides the ceiling on estimated derivation memory use, in bytes.
func SetMaxMemory(n int) Option {
	return func(o *Overrides) error {
		return setInt(&o.maxMemory, "max_memory", n)
	}
}

// SetStrict controls whether parsed records must exactly match the current parameters.
func SetStrict(strict bool) Option {
	return func(o *Overrides) error {
		o.strict = &strict
		return nil
	}
}

// SetPermissive is the inverse of SetStrict: SetPermissive(true) is SetStrict(false).
func SetPermissive(permissive bool) Option {
	return SetStrict(!permissive)
}

func gather(opts []Option) (*Overrides, error) {
	var o Overrides
	for _, opt := range opts {
		if err := opt(&o); err != nil {
			return nil, err
		}
	}
	return &o, nil
}

func pickInt(alias, canon *int, cur, def int) int {
	v := canon
	if alias != nil {
		v = alias
	}
	switch {
	case v == nil:
		return cur
	case *v == Default:
		return def
	default:
		return *v
	}
}

func pickString(v *string, cur string) string {
	if v == nil {
		return cur
	}
	return *v
}

func pickBool(v *bool, cur bool) bool {
	if v == nil {
		return cur
	}
	return *v
}

// apply merges the overrides over cur, which itself sits over the documented defaults.
// Fields carrying the Default sentinel land on their default value, alias slots beat
// their canonical counterparts, and absent fields pass cur through untouched.
func (o *Overrides) apply(cur Params) Params {
	def := DefaultParams()
	return Params{
		HashLength:  pickInt(nil, o.hashLength, cur.HashLength, def.HashLength),
		SaltLength:  pickInt(nil, o.saltLength, cur.SaltLength, def.SaltLength),
		Pepper:      pickString(o.pepper, cur.Pepper),
		Cost:        pickInt(o.n, o.cost, cur.Cost, def.Cost),
		BlockSize:   pickInt(o.r, o.blockSize, cur.BlockSize, def.BlockSize),
		Parallelism: pickInt(o.p, o.parallelism, cur.Parallelism, def.Parallelism),
		MaxMemory:   pickInt(nil, o.maxMemory, cur.MaxMemory, def.MaxMemory),
		Strict:      pickBool(o.strict, cur.Strict),
	}
}
