package main

import (
	"fmt"
	"os"

	"github.com/saylorsolutions/passhash/cmd/internal"
	"github.com/saylorsolutions/passhash/pkg/passhash"
	flag "github.com/spf13/pflag"
)

var version = "dev"

func main() {
	var (
		helpFlag    bool
		cost        int
		blockSize   int
		parallelism int
		keyLen      int
		saltLen     int
		maxMemory   int
		pepper      string
		strictFlag  bool
	)
	flags := flag.NewFlagSet("passhash", flag.ContinueOnError)
	flags.BoolVarP(&helpFlag, "help", "h", false, "Prints this usage information.")
	flags.IntVarP(&cost, "cost", "N", passhash.DefaultCost, "CPU/memory cost. Must be a power of 2 greater than 1.")
	flags.IntVarP(&blockSize, "block-size", "r", passhash.DefaultBlockSize, "Relative block size.")
	flags.IntVarP(&parallelism, "parallel", "p", passhash.DefaultParallelism, "Parallelization factor.")
	flags.IntVar(&keyLen, "key-len", passhash.DefaultHashLength, "Derived key length in bytes.")
	flags.IntVar(&saltLen, "salt-len", passhash.DefaultSaltLength, "Generated salt length in bytes.")
	flags.IntVar(&maxMemory, "max-memory", passhash.DefaultMaxMemory, "Ceiling on estimated derivation memory use, in bytes.")
	flags.StringVar(&pepper, "pepper", "", "Secret appended to the password before derivation. Never stored in the record.")
	flags.BoolVar(&strictFlag, "strict", false, "Require records to exactly match the current parameters when parsing.")
	flags.Usage = func() {
		fmt.Printf(`
passhash %s computes and verifies salted scrypt password records.
A record carries its own work factors, so verification works even after the flags here have changed from when the record was produced.

USAGE:  passhash COMMAND [RECORD]

COMMANDS:
    hash    Reads a password and prints its record.
    verify  Reads a password and checks it against RECORD. Exits non-zero when the password doesn't match.
    check   Reports whether RECORD should be reissued because it no longer matches the current parameters. Exits non-zero when it should.

The password is prompted for without echo when run on a terminal, otherwise the first line of piped input is used.

FLAGS:
%s`, version, flags.FlagUsages())
	}
	if len(os.Args) == 1 {
		flags.Usage()
		return
	}
	if err := flags.Parse(os.Args[1:]); err != nil {
		flags.Usage()
		internal.Fatal("Error parsing flags: %v", err)
	}
	if helpFlag {
		flags.Usage()
		return
	}

	hasher, err := passhash.New(
		passhash.SetCost(cost),
		passhash.SetBlockSize(blockSize),
		passhash.SetParallelism(parallelism),
		passhash.SetHashLength(keyLen),
		passhash.SetSaltLength(saltLen),
		passhash.SetMaxMemory(maxMemory),
		passhash.SetPepper(pepper),
		passhash.SetStrict(strictFlag),
	)
	if err != nil {
		internal.Fatal("Invalid parameters: %v", err)
	}

	switch flags.Arg(0) {
	case "hash":
		password, err := internal.ReadSecret("Password: ")
		if err != nil {
			internal.Fatal("Failed to read password: %v", err)
		}
		record, err := hasher.Hash(password)
		if err != nil {
			internal.Fatal("Failed to hash password: %v", err)
		}
		fmt.Println(record)
	case "verify":
		record := requireRecord(flags)
		password, err := internal.ReadSecret("Password: ")
		if err != nil {
			internal.Fatal("Failed to read password: %v", err)
		}
		if !hasher.Verify(password, record) {
			internal.Fatal("Password does not match")
		}
		internal.Echo("OK")
	case "check":
		record := requireRecord(flags)
		if hasher.NeedsRehash(record) {
			internal.Fatal("Record should be reissued")
		}
		internal.Echo("Record matches current parameters")
	default:
		flags.Usage()
		internal.Fatal("Unknown command %q", flags.Arg(0))
	}
}

func requireRecord(flags *flag.FlagSet) string {
	if flags.NArg() < 2 {
		internal.Fatal("Missing required RECORD argument")
	}
	return flags.Arg(1)
}
