package main

import (
	"crypto/ed25519"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/llm-cost/llm-cost/internal/catalog"
	"github.com/llm-cost/llm-cost/internal/errs"
	"github.com/llm-cost/llm-cost/internal/sigverify"
)

// pinnedPrimaryKeyHex and pinnedSecondaryKeyHex are the build-time
// pinned Ed25519 public keys for the pricing catalogue (spec.md §4.5).
// Left blank in this tree: the real keys are provisioned at release
// build time, not committed to source.
var (
	pinnedPrimaryKeyHex   = ""
	pinnedSecondaryKeyHex = ""
)

func loadKeySet() (sigverify.KeySet, error) {
	var ks sigverify.KeySet
	if pinnedPrimaryKeyHex != "" {
		raw, err := hex.DecodeString(pinnedPrimaryKeyHex)
		if err != nil || len(raw) != ed25519.PublicKeySize {
			return ks, errs.Internal("malformed pinned primary key")
		}
		ks.Primary = ed25519.PublicKey(raw)
	}
	if pinnedSecondaryKeyHex != "" {
		raw, err := hex.DecodeString(pinnedSecondaryKeyHex)
		if err != nil || len(raw) != ed25519.PublicKeySize {
			return ks, errs.Internal("malformed pinned secondary key")
		}
		ks.Secondary = ed25519.PublicKey(raw)
	}
	return ks, nil
}

func newPricingCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pricing",
		Short: "Inspect the resolved pricing catalogue",
	}
	cmd.AddCommand(newPricingShowCmd())
	cmd.AddCommand(newPricingVerifyCmd())
	return cmd
}

func newPricingShowCmd() *cobra.Command {
	var model string
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the resolved catalogue's staleness and (optionally) one model's rates",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cat, err := resolveCatalogue()
			if err != nil {
				return err
			}
			staleness := catalogStaleness(cat)
			fmt.Printf("source: %s\n", cat.Source)
			fmt.Printf("valid_until: %s\n", cat.ValidUntil.Format("2006-01-02"))
			fmt.Printf("staleness: %s\n", staleness.String())
			if model != "" {
				pd, ok := cat.Lookup(model)
				if !ok {
					return errs.Data("unknown model").WithField("model", model)
				}
				fmt.Printf("%s: input=$%.4f/Mtok output=$%.4f/Mtok\n", model, pd.InputRate, pd.OutputRate)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&model, "model", "", "print this model's rates")
	return cmd
}

func newPricingVerifyCmd() *cobra.Command {
	var catalogPath, sigPath string
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify a catalogue file against its minisign signature",
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := os.ReadFile(catalogPath)
			if err != nil {
				return errs.ConfigurationWrap("reading catalogue file", err).WithField("path", catalogPath)
			}
			sig, err := os.ReadFile(sigPath)
			if err != nil {
				return errs.ConfigurationWrap("reading signature file", err).WithField("path", sigPath)
			}

			cat, err := catalog.Parse(data)
			if err != nil {
				return err
			}
			revoked := sigverify.NewRevocationSet(revocationKeyIDs(cat))

			keys, err := loadKeySet()
			if err != nil {
				return err
			}
			result, err := sigverify.Verify(data, sig, keys, revoked)
			if err != nil {
				return err
			}
			fmt.Printf("signature valid, signed by %v key\n", result.SignedBy)
			return nil
		},
	}
	cmd.Flags().StringVar(&catalogPath, "catalog", "", "path to the pricing catalogue JSON file (required)")
	cmd.Flags().StringVar(&sigPath, "sig", "", "path to the minisign signature file (required)")
	_ = cmd.MarkFlagRequired("catalog")
	_ = cmd.MarkFlagRequired("sig")
	return cmd
}

func revocationKeyIDs(cat *catalog.Catalogue) [][8]byte {
	ids := make([][8]byte, 0, len(cat.Revocations))
	for _, r := range cat.Revocations {
		raw, err := hex.DecodeString(r.KeyID)
		if err != nil || len(raw) != 8 {
			continue
		}
		var id [8]byte
		copy(id[:], raw)
		ids = append(ids, id)
	}
	return ids
}
