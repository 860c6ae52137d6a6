// Command sira-client is the managed-node executor (spec §4.4, §6). It
// is invoked, typically under sudo, as:
//
//	sira-client <action-yaml> [<signature>]
//
// where both arguments are base64-encoded to survive shell quoting
// regardless of their contents, and the signature is omitted for
// unsigned invocations. It exits 0 on success and non-zero on failure,
// writing diagnostics to standard error.
package main

import (
	"encoding/base64"
	"fmt"
	"os"

	"github.com/sira-systems/sira/internal/client"
	"github.com/sira-systems/sira/internal/siraconfig"
)

func main() {
	if len(os.Args) < 2 || len(os.Args) > 3 {
		fmt.Fprintln(os.Stderr, "usage: sira-client <action-yaml> [<signature>]")
		os.Exit(1)
	}

	payload, err := base64.StdEncoding.DecodeString(os.Args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "decode action argument: %v\n", err)
		os.Exit(1)
	}

	var signature []byte
	if len(os.Args) == 3 {
		signature, err = base64.StdEncoding.DecodeString(os.Args[2])
		if err != nil {
			fmt.Fprintf(os.Stderr, "decode signature argument: %v\n", err)
			os.Exit(1)
		}
	}

	result := client.Execute(siraconfig.NewDirectories(), payload, signature)
	os.Stdout.Write(result.Stdout)
	os.Stderr.Write(result.Stderr)
	os.Exit(result.ExitCode)
}
