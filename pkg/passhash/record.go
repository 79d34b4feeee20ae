package passhash

import (
	"bytes"
	"encoding"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"io"
	"strconv"
	"strings"

	bin "github.com/saylorsolutions/binmap"
)

const (
	recordFields = 5
	phcID        = "scrypt"

	recordMagic        uint16 = 0x5a17
	recordMagicInverse uint16 = 0x175a
)

// Record is a parsed hash record: the derived key, the salt, and the exact work
// factors that produced the key. The embedded parameters are authoritative for
// re-derivation, no matter what the current configuration says. A Record is never
// mutated after it's produced.
type Record struct {
	Key         []byte
	Salt        []byte
	Cost        int
	BlockSize   int
	Parallelism int
}

// Encode renders the record in the primary text format:
// base64(key)$base64(salt)$cost$blockSize$parallelism.
// Standard base64 and decimal integers can't contain the delimiter, so the five
// fields always split back apart cleanly.
func (r *Record) Encode() string {
	return strings.Join([]string{
		base64.StdEncoding.EncodeToString(r.Key),
		base64.StdEncoding.EncodeToString(r.Salt),
		strconv.Itoa(r.Cost),
		strconv.Itoa(r.BlockSize),
		strconv.Itoa(r.Parallelism),
	}, "$")
}

// EncodePHC renders the record in the tagged wire-compatible format:
// $scrypt$n=..,r=..,p=..$base64(salt)$base64(key).
// ParseRecord accepts both formats, so either encoding may be stored.
func (r *Record) EncodePHC() string {
	return fmt.Sprintf("$%s$n=%d,r=%d,p=%d$%s$%s",
		phcID,
		r.Cost, r.BlockSize, r.Parallelism,
		base64.StdEncoding.EncodeToString(r.Salt),
		base64.StdEncoding.EncodeToString(r.Key),
	)
}

// ParseRecord parses and validates a hash record in either supported text format,
// detected by the leading delimiter of the tagged format.
//
// Malformed input fails with ErrMalformedRecord, a numeric field that isn't a
// positive integer fails with ErrInvalidParameter, and when policy.Strict is set
// any difference from the policy's parameters fails with ErrParameterMismatch.
// When policy.Strict is false the policy comparison is skipped entirely, so
// records produced under older configurations still parse. ParseRecord performs
// no cryptography and never panics on any input.
func ParseRecord(encoded string, policy Params) (*Record, error) {
	var (
		rec *Record
		err error
	)
	if strings.HasPrefix(encoded, "$") {
		rec, err = parsePHC(encoded)
	} else {
		rec, err = parsePlain(encoded)
	}
	if err != nil {
		return nil, err
	}
	if len(rec.Key) == 0 {
		return nil, fmt.Errorf("%w: empty derived key", ErrMalformedRecord)
	}
	if len(rec.Salt) == 0 {
		return nil, fmt.Errorf("%w: empty salt", ErrMalformedRecord)
	}
	if policy.Strict {
		if err := rec.matchPolicy(policy); err != nil {
			return nil, err
		}
	}
	return rec, nil
}

func parsePlain(encoded string) (*Record, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != recordFields {
		return nil, fmt.Errorf("%w: expected %d fields, found %d", ErrMalformedRecord, recordFields, len(parts))
	}
	key, err := base64.StdEncoding.DecodeString(parts[0])
	if err != nil {
		return nil, fmt.Errorf("%w: derived key is not valid base64", ErrMalformedRecord)
	}
	salt, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, fmt.Errorf("%w: salt is not valid base64", ErrMalformedRecord)
	}
	cost, err := parseWorkFactor(parts[2], "cost")
	if err != nil {
		return nil, err
	}
	blockSize, err := parseWorkFactor(parts[3], "block_size")
	if err != nil {
		return nil, err
	}
	parallelism, err := parseWorkFactor(parts[4], "parallelization")
	if err != nil {
		return nil, err
	}
	return &Record{
		Key:         key,
		Salt:        salt,
		Cost:        cost,
		BlockSize:   blockSize,
		Parallelism: parallelism,
	}, nil
}

func parsePHC(encoded string) (*Record, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != recordFields || parts[0] != "" {
		return nil, fmt.Errorf("%w: expected $%s$n=..,r=..,p=..$salt$key", ErrMalformedRecord, phcID)
	}
	if parts[1] != phcID {
		return nil, fmt.Errorf("%w: unsupported function identifier %q", ErrMalformedRecord, parts[1])
	}
	factors := strings.Split(parts[2], ",")
	if len(factors) != 3 {
		return nil, fmt.Errorf("%w: expected 3 work factors, found %d", ErrMalformedRecord, len(factors))
	}
	cost, err := parseTaggedFactor(factors[0], "n", "cost")
	if err != nil {
		return nil, err
	}
	blockSize, err := parseTaggedFactor(factors[1], "r", "block_size")
	if err != nil {
		return nil, err
	}
	parallelism, err := parseTaggedFactor(factors[2], "p", "parallelization")
	if err != nil {
		return nil, err
	}
	salt, err := base64.StdEncoding.DecodeString(parts[3])
	if err != nil {
		return nil, fmt.Errorf("%w: salt is not valid base64", ErrMalformedRecord)
	}
	key, err := base64.StdEncoding.DecodeString(parts[4])
	if err != nil {
		return nil, fmt.Errorf("%w: derived key is not valid base64", ErrMalformedRecord)
	}
	return &Record{
		Key:         key,
		Salt:        salt,
		Cost:        cost,
		BlockSize:   blockSize,
		Parallelism: parallelism,
	}, nil
}

func parseTaggedFactor(field, tag, name string) (int, error) {
	prefix := tag + "="
	if !strings.HasPrefix(field, prefix) {
		return 0, fmt.Errorf("%w: expected %s, found %q", ErrMalformedRecord, prefix+"..", field)
	}
	return parseWorkFactor(strings.TrimPrefix(field, prefix), name)
}

func parseWorkFactor(field, name string) (int, error) {
	n, err := strconv.Atoi(field)
	if err != nil {
		return 0, fmt.Errorf("%w: %s is not numeric", ErrMalformedRecord, name)
	}
	if n <= 0 {
		return 0, fmt.Errorf("%w: %s must be a positive integer", ErrInvalidParameter, name)
	}
	return n, nil
}

func (r *Record) matchPolicy(policy Params) error {
	if len(r.Key) != policy.HashLength {
		return fmt.Errorf("%w: hash_length %d, policy requires %d", ErrParameterMismatch, len(r.Key), policy.HashLength)
	}
	if len(r.Salt) != policy.SaltLength {
		return fmt.Errorf("%w: salt_length %d, policy requires %d", ErrParameterMismatch, len(r.Salt), policy.SaltLength)
	}
	if r.Cost != policy.Cost {
		return fmt.Errorf("%w: cost %d, policy requires %d", ErrParameterMismatch, r.Cost, policy.Cost)
	}
	if r.BlockSize != policy.BlockSize {
		return fmt.Errorf("%w: block_size %d, policy requires %d", ErrParameterMismatch, r.BlockSize, policy.BlockSize)
	}
	if r.Parallelism != policy.Parallelism {
		return fmt.Errorf("%w: parallelization %d, policy requires %d", ErrParameterMismatch, r.Parallelism, policy.Parallelism)
	}
	return nil
}

var (
	_ encoding.BinaryMarshaler   = (*Record)(nil)
	_ encoding.BinaryUnmarshaler = (*Record)(nil)
)

type recordHeader struct {
	cost        uint64
	blockSize   uint64
	parallelism uint64
	saltLen     uint8
	keyLen      uint8
}

func (h *recordHeader) mapper() bin.Mapper {
	return bin.MapSequence(
		bin.Int(&h.cost),
		bin.Int(&h.blockSize),
		bin.Int(&h.parallelism),
		bin.Byte(&h.saltLen),
		bin.Byte(&h.keyLen),
	)
}

// MarshalBinary renders the record in a compact binary form: a magic marker, a
// fixed header with the work factors and field lengths, then the raw salt and key
// bytes. Salt and key are capped at 255 bytes each in this form.
func (r *Record) MarshalBinary() ([]byte, error) {
	if r.Cost <= 0 || r.BlockSize <= 0 || r.Parallelism <= 0 {
		return nil, fmt.Errorf("%w: work factors must be positive integers", ErrInvalidParameter)
	}
	if len(r.Salt) == 0 || len(r.Salt) > 255 {
		return nil, fmt.Errorf("%w: salt_length %d doesn't fit the binary form", ErrInvalidParameter, len(r.Salt))
	}
	if len(r.Key) == 0 || len(r.Key) > 255 {
		return nil, fmt.Errorf("%w: hash_length %d doesn't fit the binary form", ErrInvalidParameter, len(r.Key))
	}
	header := recordHeader{
		cost:        uint64(r.Cost),
		blockSize:   uint64(r.BlockSize),
		parallelism: uint64(r.Parallelism),
		saltLen:     uint8(len(r.Salt)),
		keyLen:      uint8(len(r.Key)),
	}
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.BigEndian, recordMagic); err != nil {
		return nil, err
	}
	if err := header.mapper().Write(&buf, binary.BigEndian); err != nil {
		return nil, err
	}
	buf.Write(r.Salt)
	buf.Write(r.Key)
	return buf.Bytes(), nil
}

// UnmarshalBinary parses the binary form produced by MarshalBinary.
// An inverted magic marker means the record was written on a platform with the
// opposite byte order, and the header is read accordingly.
func (r *Record) UnmarshalBinary(data []byte) error {
	var (
		magic  uint16
		endian binary.ByteOrder = binary.BigEndian
	)
	reader := bytes.NewReader(data)
	if err := binary.Read(reader, endian, &magic); err != nil {
		return fmt.Errorf("%w: missing magic marker", ErrMalformedRecord)
	}
	switch magic {
	case recordMagic:
	case recordMagicInverse:
		endian = binary.LittleEndian
	default:
		return fmt.Errorf("%w: unrecognized magic marker", ErrMalformedRecord)
	}
	var header recordHeader
	if err := header.mapper().Read(reader, endian); err != nil {
		return fmt.Errorf("%w: truncated header", ErrMalformedRecord)
	}
	if header.cost == 0 || header.blockSize == 0 || header.parallelism == 0 {
		return fmt.Errorf("%w: work factors must be positive integers", ErrInvalidParameter)
	}
	if header.saltLen == 0 || header.keyLen == 0 {
		return fmt.Errorf("%w: empty salt or derived key", ErrMalformedRecord)
	}
	salt := make([]byte, header.saltLen)
	if _, err := io.ReadFull(reader, salt); err != nil {
		return fmt.Errorf("%w: truncated salt", ErrMalformedRecord)
	}
	key := make([]byte, header.keyLen)
	if _, err := io.ReadFull(reader, key); err != nil {
		return fmt.Errorf("%w: truncated derived key", ErrMalformedRecord)
	}
	r.Key = key
	r.Salt = salt
	r.Cost = int(header.cost)
	r.BlockSize = int(header.blockSize)
	r.Parallelism = int(header.parallelism)
	return nil
}
