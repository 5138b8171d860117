package main

import (
	"strings"

	"github.com/spf13/cobra"

	"go-dice/cmd/diceserv/expr"
)

var rootCmd = &cobra.Command{
	Use:   appName + " [command]",
	Short: "Dice roller and calculator",
	Long: appName + " evaluates dice expressions such as 3d6+2, 4~1d20 or\n" +
		"max(1d8,1d8), either once from the command line, in an interactive\n" +
		"shell, or as an HTTP and websocket service.\n\n" +
		"Results are rendered the way a chat bot replies:\n" +
		"  <Exroll [2d6+1]: {2d6=(4 3)} 8>",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "",
		"config file (default: $"+envConfigDir+" > $XDG_CONFIG_HOME/"+appName+" > ~/.config/"+appName+", file "+configFileName+")")
}

// completeExpression offers function names for the word being typed at the
// end of an expression.
func completeExpression(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	start := len(toComplete)
	for start > 0 && isWordByte(toComplete[start-1]) {
		start--
	}
	head, word := toComplete[:start], strings.ToLower(toComplete[start:])
	if word == "" || word[0] >= '0' && word[0] <= '9' {
		return nil, cobra.ShellCompDirectiveNoFileComp | cobra.ShellCompDirectiveNoSpace
	}
	var suggestions []string
	for _, f := range expr.Functions() {
		if strings.HasPrefix(f.Name, word) {
			suggestions = append(suggestions, head+f.Name+"(\t"+f.Description)
		}
	}
	return suggestions, cobra.ShellCompDirectiveNoFileComp | cobra.ShellCompDirectiveNoSpace
}

func isWordByte(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}
