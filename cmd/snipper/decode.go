package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/menta2k/snipper/pkg/gardiner"
	"github.com/menta2k/snipper/pkg/mdc"
)

var (
	showNames bool
	qKopf     bool
)

var glyphCmd = &cobra.Command{
	Use:     "glyph <codes>...",
	Short:   "Render Gardiner sign codes as hieroglyphs, e.g. A1-G17-N35",
	Example: "  snipper glyph G17-N35\n  snipper glyph --names Aa15",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		decoder := gardiner.NewDecoder()
		for _, arg := range args {
			text, err := decoder.Decode(arg)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)

			if showNames {
				for _, code := range gardiner.Split(arg) {
					name, err := gardiner.UnicodeName(code)
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "  %s\t%s\n", code, name)
				}
			}
		}
		return nil
	},
}

var translitCmd = &cobra.Command{
	Use:     "translit <mdc>...",
	Short:   "Render Manuel de Codage transliterations, e.g. sA=f",
	Example: "  snipper translit nTr\n  snipper translit --q-kopf=false qd",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		decoder := mdc.NewDecoder(mdc.WithQKopf(qKopf))
		for _, arg := range args {
			text, err := decoder.Decode(arg)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)
		}
		return nil
	},
}

func init() {
	glyphCmd.Flags().BoolVar(&showNames, "names", false, "also print the Unicode name of each sign")
	translitCmd.Flags().BoolVar(&qKopf, "q-kopf", true, "write q as ḳ (--q-kopf=false keeps q)")
}
