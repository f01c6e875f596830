package cli

import "github.com/spf13/cobra"

// completionCommand creates the shell completion command.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for melonchart.

To load completions:

Bash:
  $ source <(melonchart completion bash)

  # To load completions for each session, execute once:
  $ melonchart completion bash > ~/.local/share/bash-completion/completions/melonchart

Zsh:
  $ melonchart completion zsh > "${fpath[1]}/_melonchart"

Fish:
  $ melonchart completion fish | source

  # To load completions for each session, execute once:
  $ melonchart completion fish > ~/.config/fish/completions/melonchart.fish

PowerShell:
  PS> melonchart completion powershell | Out-String | Invoke-Expression

  # To load completions for every new session, run:
  PS> melonchart completion powershell > melonchart.ps1
  # and source this file from your PowerShell profile.
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletionV2(out, true)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			default:
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
		},
	}

	return cmd
}
