package passhash

import (
	"bytes"
	"encoding/binary"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRecord() Record {
	return Record{
		Key:         bytes.Repeat([]byte{0xab}, 32),
		Salt:        bytes.Repeat([]byte{0xcd}, 16),
		Cost:        DefaultCost,
		BlockSize:   DefaultBlockSize,
		Parallelism: DefaultParallelism,
	}
}

func TestRecord_EncodeParse(t *testing.T) {
	rec := testRecord()
	encoded := rec.Encode()
	t.Log(encoded)
	assert.Equal(t, 5, len(strings.Split(encoded, "$")))

	parsed, err := ParseRecord(encoded, DefaultParams())
	assert.NoError(t, err)
	assert.Equal(t, &rec, parsed)

	// The same record parses under strict policy when every field matches.
	strict := DefaultParams()
	strict.Strict = true
	parsed, err = ParseRecord(encoded, strict)
	assert.NoError(t, err)
	assert.Equal(t, &rec, parsed)
}

func TestRecord_EncodeParsePHC(t *testing.T) {
	rec := testRecord()
	encoded := rec.EncodePHC()
	t.Log(encoded)
	assert.True(t, strings.HasPrefix(encoded, "$scrypt$n=16384,r=8,p=1$"))

	parsed, err := ParseRecord(encoded, DefaultParams())
	assert.NoError(t, err)
	assert.Equal(t, &rec, parsed)
}

func TestParseRecord_Malformed(t *testing.T) {
	policy := DefaultParams()
	for name, encoded := range map[string]string{
		"not a record":        "invalidhash",
		"too few fields":      "YQ==$YQ==$16384$8",
		"too many fields":     "YQ==$YQ==$16384$8$1$extra",
		"bad key base64":      "!!!$YQ==$16384$8$1",
		"bad salt base64":     "YQ==$!!!$16384$8$1",
		"non-numeric cost":    "YQ==$YQ==$banana$8$1",
		"empty key":           "$YQ==$16384$8$1",
		"empty salt":          "YQ==$$16384$8$1",
		"wrong phc id":        "$argon2id$n=16384,r=8,p=1$YQ==$YQ==",
		"phc missing factor":  "$scrypt$n=16384,r=8$YQ==$YQ==",
		"phc wrong tag order": "$scrypt$r=8,n=16384,p=1$YQ==$YQ==",
	} {
		_, err := ParseRecord(encoded, policy)
		assert.ErrorIs(t, err, ErrMalformedRecord, "case %q", name)
	}
}

func TestParseRecord_InvalidParameter(t *testing.T) {
	policy := DefaultParams()
	for name, encoded := range map[string]string{
		"zero cost":            "YQ==$YQ==$0$8$1",
		"negative cost":        "YQ==$YQ==$-16384$8$1",
		"zero block size":      "YQ==$YQ==$16384$0$1",
		"zero parallelization": "YQ==$YQ==$16384$8$0",
		"phc zero cost":        "$scrypt$n=0,r=8,p=1$YQ==$YQ==",
	} {
		_, err := ParseRecord(encoded, policy)
		assert.ErrorIs(t, err, ErrInvalidParameter, "case %q", name)
	}
}

func TestParseRecord_StrictMismatch(t *testing.T) {
	rec := testRecord()
	policy := DefaultParams()
	policy.Strict = true

	mismatches := map[string]func(*Record){
		"hash_length":     func(r *Record) { r.Key = append(r.Key, 0x01) },
		"salt_length":     func(r *Record) { r.Salt = r.Salt[:8] },
		"cost":            func(r *Record) { r.Cost = 8192 },
		"block_size":      func(r *Record) { r.BlockSize = 16 },
		"parallelization": func(r *Record) { r.Parallelism = 2 },
	}
	for name, mutate := range mismatches {
		drifted := testRecord()
		mutate(&drifted)
		_, err := ParseRecord(drifted.Encode(), policy)
		assert.ErrorIs(t, err, ErrParameterMismatch, "field %s", name)
		assert.Contains(t, err.Error(), name)

		// The same drifted record is fine under the permissive policy.
		parsed, err := ParseRecord(drifted.Encode(), DefaultParams())
		assert.NoError(t, err)
		assert.Equal(t, &drifted, parsed)
	}

	// The pristine record still matches.
	_, err := ParseRecord(rec.Encode(), policy)
	assert.NoError(t, err)
}

func TestRecord_BinaryRoundTrip(t *testing.T) {
	rec := testRecord()
	data, err := rec.MarshalBinary()
	assert.NoError(t, err)

	var parsed Record
	assert.NoError(t, parsed.UnmarshalBinary(data))
	assert.Equal(t, rec, parsed)
}

func TestRecord_BinaryInverseMagic(t *testing.T) {
	rec := testRecord()
	header := recordHeader{
		cost:        uint64(rec.Cost),
		blockSize:   uint64(rec.BlockSize),
		parallelism: uint64(rec.Parallelism),
		saltLen:     uint8(len(rec.Salt)),
		keyLen:      uint8(len(rec.Key)),
	}
	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, recordMagic))
	require.NoError(t, header.mapper().Write(&buf, binary.LittleEndian))
	buf.Write(rec.Salt)
	buf.Write(rec.Key)

	// A little-endian writer produces the inverse magic; the reader adapts.
	var parsed Record
	assert.NoError(t, parsed.UnmarshalBinary(buf.Bytes()))
	assert.Equal(t, rec, parsed)
}

func TestRecord_BinaryRejects(t *testing.T) {
	rec := testRecord()
	data, err := rec.MarshalBinary()
	require.NoError(t, err)

	var parsed Record
	assert.ErrorIs(t, parsed.UnmarshalBinary(nil), ErrMalformedRecord)
	assert.ErrorIs(t, parsed.UnmarshalBinary([]byte{0x00, 0x00}), ErrMalformedRecord)
	assert.ErrorIs(t, parsed.UnmarshalBinary(data[:8]), ErrMalformedRecord)
	assert.ErrorIs(t, parsed.UnmarshalBinary(data[:len(data)-1]), ErrMalformedRecord)

	oversized := testRecord()
	oversized.Salt = bytes.Repeat([]byte{0x01}, 256)
	_, err = oversized.MarshalBinary()
	assert.ErrorIs(t, err, ErrInvalidParameter)
}
