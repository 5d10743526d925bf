package cli

import (
	"github.com/spf13/cobra"
)

// completionCmd generates shell completion scripts.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion script",
	Long: `Generate shell completion scripts for pocket.

To load completions:

Bash:
  $ source <(pocket completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ pocket completion bash > /etc/bash_completion.d/pocket
  # macOS:
  $ pocket completion bash > $(brew --prefix)/etc/bash_completion.d/pocket

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. You can execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ pocket completion zsh > "${fpath[1]}/_pocket"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ pocket completion fish | source

  # To load completions for each session, execute once:
  $ pocket completion fish > ~/.config/fish/completions/pocket.fish

PowerShell:
  PS> pocket completion powershell | Out-String | Invoke-Expression

  # To load completions for every new session, run:
  PS> pocket completion powershell > pocket.ps1
  # and source this file from your PowerShell profile.
`,
	Example: `  pocket completion bash > /etc/bash_completion.d/pocket
  pocket completion zsh > "${fpath[1]}/_pocket"`,
	GroupID:               groupConfig,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		switch args[0] {
		case "bash":
			return cmd.Root().GenBashCompletion(cmd.OutOrStdout())
		case "zsh":
			return cmd.Root().GenZshCompletion(cmd.OutOrStdout())
		case "fish":
			return cmd.Root().GenFishCompletion(cmd.OutOrStdout(), true)
		case "powershell":
			return cmd.Root().GenPowerShellCompletionWithDesc(cmd.OutOrStdout())
		}
		return nil
	},
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(completionCmd)
}
