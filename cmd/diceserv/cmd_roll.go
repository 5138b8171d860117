package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"go-dice/cmd/diceserv/games"
	"go-dice/cmd/diceserv/render"
	"go-dice/pkg/lib"
)

var rollShort = map[render.Mode]string{
	render.ModeRoll:   "Roll an expression, rounding results to integers",
	render.ModeExroll: "Roll an expression and show every die thrown",
	render.ModeCalc:   "Evaluate an expression without rounding",
	render.ModeExcalc: "Evaluate an expression without rounding and show every die thrown",
}

const rollLong = "EXPR is a dice expression: numbers, + - * / %% ^, parentheses,\n" +
	"dice written NdS (N defaults to 1, d%% is d100), functions and the\n" +
	"constants pi and e. Prefix it with N~ or write N[EXPR] to roll it up\n" +
	"to 25 times.\n\n" +
	"A #channel after the expression renders the reply as if said in that\n" +
	"channel; remaining words become the comment.\n\n" +
	"Examples:\n" +
	"  %[1]s %[2]s 3d6+2\n" +
	"  %[1]s %[2]s '6~4d6' '#dnd' stats\n" +
	"  %[1]s %[2]s 'max(1d20,1d20)+5' advantage"

func newRollCommand(mode render.Mode) *cobra.Command {
	var flags outputFlags
	cmd := &cobra.Command{
		Use:               mode.String() + " EXPR [#channel] [comment...]",
		Short:             rollShort[mode],
		Long:              rollShort[mode] + ".\n\n" + fmt.Sprintf(rollLong, appName, mode.String()),
		Args:              cobra.MinimumNArgs(1),
		ValidArgsFunction: completeExpression,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, _, err := flags.setup(cmd.Flags())
			if err != nil {
				return err
			}
			in := games.ParseArgs(args)
			in.Nick = flags.nick
			return report(cmd.OutOrStdout(), svc.Roll(mode, in))
		},
	}
	cmd.Flags().SetInterspersed(false)
	flags.register(cmd.Flags())
	return cmd
}

func newEarthdawnCommand() *cobra.Command {
	var flags outputFlags
	cmd := &cobra.Command{
		Use:   "earthdawn STEP[+KARMA] [#channel] [comment...]",
		Short: "Roll an Earthdawn step, with optional karma",
		Long: "Roll the dice for an Earthdawn step between 1 and 100. Any die that\n" +
			"shows its highest face is rolled again and the bonus added, for as\n" +
			"long as the highest face keeps coming.\n\n" +
			"Example:\n" +
			"  " + appName + " earthdawn 12+4 '#barsaive' attack",
		Args: cobra.MinimumNArgs(1),
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			return nil, cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, _, err := flags.setup(cmd.Flags())
			if err != nil {
				return err
			}
			in := games.ParseArgs(args)
			in.Nick = flags.nick
			return report(cmd.OutOrStdout(), svc.Earthdawn(in))
		},
	}
	cmd.Flags().SetInterspersed(false)
	flags.register(cmd.Flags())
	return cmd
}

func newDnD3eCommand() *cobra.Command {
	var flags outputFlags
	cmd := &cobra.Command{
		Use:   "dnd3e [#channel] [comment...]",
		Short: "Roll a D&D 3rd edition character's ability scores",
		Long: "Roll 4d6 six times, dropping the lowest die each time. Sets whose\n" +
			"modifiers add up to 0 or less, or whose best score is 13 or less,\n" +
			"are thrown away and rolled again.",
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			return nil, cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, _, err := flags.setup(cmd.Flags())
			if err != nil {
				return err
			}
			in := games.ParseTarget(args)
			in.Nick = flags.nick
			return report(cmd.OutOrStdout(), svc.DnD3e(in))
		},
	}
	cmd.Flags().SetInterspersed(false)
	flags.register(cmd.Flags())
	return cmd
}

// report prints reply and turns a failed roll into an exit status.
func report(out io.Writer, reply games.Reply) error {
	printReply(out, reply)
	if reply.Err != nil {
		return lib.Shown(reply.Err)
	}
	return nil
}
