package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sira-systems/sira/internal/crypto"
	"github.com/sira-systems/sira/internal/siraconfig"
)

type verifyFlags struct {
	allowedSigners string
	identity       string
	input          string
	signatureFile  string
}

// newVerifyCmd is an operator-facing ad-hoc invocation of the Verifier,
// for confirming an allowed-signers file accepts a given signature
// (spec §4.3).
func newVerifyCmd(root *rootFlags) *cobra.Command {
	flags := &verifyFlags{allowedSigners: "action", identity: "sira"}

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify a signed buffer against an allowed-signers file",
		RunE: func(cmd *cobra.Command, args []string) error {
			buffer, err := readInput(flags.input)
			if err != nil {
				return err
			}
			signature, err := os.ReadFile(flags.signatureFile)
			if err != nil {
				return fmt.Errorf("read signature file: %w", err)
			}

			dirs := siraconfig.NewDirectories()
			verifier := crypto.NewVerifier(dirs)

			if err := verifier.Verify(buffer, signature, flags.allowedSigners, flags.identity); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "signature valid")
			return nil
		},
	}

	cmd.Flags().StringVar(&flags.allowedSigners, "allowed-signers", flags.allowedSigners, "name of the allowed-signers file")
	cmd.Flags().StringVar(&flags.identity, "identity", flags.identity, "identity the signature must carry")
	cmd.Flags().StringVar(&flags.input, "input", "-", "file that was signed, or - for stdin")
	cmd.Flags().StringVar(&flags.signatureFile, "signature", "", "file containing the detached signature")
	_ = cmd.MarkFlagRequired("signature")

	return cmd
}
