package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/rxpos/pharmacare-backend/pkg/env"
	"github.com/rxpos/pharmacare-backend/pkg/licensing"
	"github.com/rxpos/pharmacare-backend/pkg/machineid"
)

const usage = `licensegen <command> [flags]

commands:
  machine-id   print this machine's fingerprint
  generate     mint a license key
  inspect      decode a key with the configured secret
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	_ = godotenv.Load()

	switch os.Args[1] {
	case "machine-id":
		fmt.Println(machineid.Fingerprint())

	case "generate":
		runGenerate(os.Args[2:])

	case "inspect":
		runInspect(os.Args[2:])

	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
}

func runGenerate(args []string) {
	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	pharmacyID := fs.Uint("pharmacy", 0, "pharmacy id to embed")
	months := fs.Int("months", 12, "license duration in months")
	expires := fs.String("expires", "", "explicit expiry (YYYY-MM-DD, overrides -months)")
	machine := fs.String("machine", licensing.OpenMachineID, "machine id to bind, or OPEN for an unbound key")
	_ = fs.Parse(args)

	if *pharmacyID == 0 {
		fmt.Fprintln(os.Stderr, "missing -pharmacy")
		os.Exit(1)
	}

	expiresAt := time.Now().UTC().AddDate(0, *months, 0)
	if *expires != "" {
		parsed, err := time.Parse("2006-01-02", *expires)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid -expires: %v\n", err)
			os.Exit(1)
		}
		expiresAt = parsed
	}

	key, err := newCodec().Encode(licensing.Payload{
		PharmacyID: uint(*pharmacyID),
		ExpiresAt:  expiresAt,
		MachineID:  *machine,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "encode failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(key)
}

func runInspect(args []string) {
	fs := flag.NewFlagSet("inspect", flag.ExitOnError)
	machine := fs.String("machine", "", "machine id to validate against (defaults to this machine)")
	_ = fs.Parse(args)

	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: licensegen inspect [-machine ID] <key>")
		os.Exit(2)
	}

	machineID := *machine
	if machineID == "" {
		machineID = machineid.Fingerprint()
	}

	payload, err := newCodec().Decode(fs.Arg(0), machineID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "decode failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("pharmacyId: %d\n", payload.PharmacyID)
	fmt.Printf("expiresAt:  %s\n", payload.ExpiresAt.Format(time.RFC3339))
	fmt.Printf("machineId:  %s\n", payload.MachineID)
}

// newCodec reads only the license material so keys can be cut on a
// workstation without the full server config.
func newCodec() *licensing.Codec {
	secret := env.Get("PHARMACARE_LICENSE_SECRET", "")
	if secret == "" {
		fmt.Fprintln(os.Stderr, "PHARMACARE_LICENSE_SECRET is required")
		os.Exit(1)
	}
	salt := env.Get("PHARMACARE_LICENSE_SALT", "pharmacare-license")

	codec, err := licensing.NewCodec(secret, salt)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build codec: %v\n", err)
		os.Exit(1)
	}
	return codec
}
