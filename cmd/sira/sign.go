package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/sira-systems/sira/internal/crypto"
	"github.com/sira-systems/sira/internal/siraconfig"
)

type signFlags struct {
	key   string
	input string
}

// newSignCmd is an operator-facing ad-hoc invocation of the Signer, for
// verifying key installation without running a full plan (spec §4.2).
func newSignCmd(root *rootFlags) *cobra.Command {
	flags := &signFlags{key: "action"}

	cmd := &cobra.Command{
		Use:   "sign",
		Short: "Sign a buffer with a named key, for testing key installation",
		RunE: func(cmd *cobra.Command, args []string) error {
			buffer, err := readInput(flags.input)
			if err != nil {
				return err
			}

			dirs := siraconfig.NewDirectories()
			signer := crypto.NewSigner(dirs)

			result, err := signer.Sign(buffer, flags.key)
			if err != nil {
				return err
			}
			if result.Outcome == crypto.KeyAbsent {
				fmt.Fprintf(cmd.OutOrStdout(), "key absent: no file named %q in %s\n", flags.key, dirs.KeysDir())
				return nil
			}

			_, err = cmd.OutOrStdout().Write(result.Signature)
			return err
		},
	}

	cmd.Flags().StringVar(&flags.key, "key", flags.key, "name of the signing key")
	cmd.Flags().StringVar(&flags.input, "input", "-", "file to sign, or - for stdin")

	return cmd
}

func readInput(path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}
