package main

import (
	"fmt"
	"io"
	"strings"

	"dolphinretro/cheats"
	"dolphinretro/emucore/mock"

	"github.com/spf13/cobra"
)

func (a *app) newClassifyCommand() *cobra.Command {
	var (
		index   int
		enabled bool
	)

	cmd := &cobra.Command{
		Use:   "classify [code...]",
		Short: "Classify cheat text as Action Replay or Gecko and print the parsed code",
		Long: "Classify parses the code given as arguments, or read from stdin when there are none. " +
			"Statements are separated by newlines or semicolons.",
		RunE: func(cmd *cobra.Command, args []string) error {
			code := strings.Join(args, "\n")
			if len(args) == 0 || code == "-" {
				b, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return err
				}
				code = string(b)
			}
			return a.classify(cmd.OutOrStdout(), index, enabled, code)
		},
	}

	f := cmd.Flags()
	f.IntVar(&index, "index", 0, "cheat slot index")
	f.BoolVar(&enabled, "enabled", true, "mark the cheat enabled")
	return cmd
}

func (a *app) classify(out io.Writer, index int, enabled bool, code string) error {
	// the in-memory core stands in for the core's Action Replay decrypter
	c := cheats.NewClassifier(a.logger(), mock.NewCore())

	entry, err := c.Classify(index, enabled, code)
	fmt.Fprintln(out, entry)
	switch entry.Backend {
	case cheats.ActionReplay:
		for _, op := range entry.AR.Ops {
			fmt.Fprintf(out, "  %08X %08X\n", op.CmdAddr, op.Value)
		}
	case cheats.Gecko:
		for _, line := range entry.Gecko.Codes {
			if _, ok := cheats.ParseGeckoLine(line.OriginalLine); !ok {
				fmt.Fprintf(out, "  %s (passthrough)\n", line.OriginalLine)
				continue
			}
			fmt.Fprintf(out, "  %08X %08X\n", line.Address, line.Data)
		}
	}
	return err
}
