package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"gridscape/internal/ai/prompt"
	"gridscape/internal/model"
	"gridscape/internal/service"
)

var promptReq model.UpgradeRequest

var promptCmd = &cobra.Command{
	Use:   "prompt [text]",
	Short: "Print the composed prompt for a request",
	Long: `Print the system and user messages that would be sent to the model cascade.
Nothing is sent upstream.`,
	Args: cobra.ExactArgs(1),
	RunE: runPrompt,
}

func init() {
	rootCmd.AddCommand(promptCmd)

	flags := promptCmd.Flags()
	flags.StringVarP(&promptReq.Mode, "mode", "m", "sophisticate", "sophisticate, simplify, emotional or custom")
	flags.StringVar(&promptReq.Task, "task", "", `"define" to request a word definition`)
	flags.StringVar(&promptReq.CustomPrompt, "custom", "", "persona name or instruction for custom mode")
	flags.IntVarP(&promptReq.Level, "level", "l", prompt.DefaultLevel, "intensity level")
	flags.StringVar(&promptReq.ContextMode, "register", "speaking", "speaking or writing")
	flags.StringVar(&promptReq.Context, "context", "", "previous rationale, or the sentence for define")
	flags.Bool("personas", false, "list persona presets and exit")
}

func runPrompt(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	if list, _ := cmd.Flags().GetBool("personas"); list {
		names := prompt.Personas()
		sort.Strings(names)
		for _, n := range names {
			fmt.Fprintln(out, n)
		}
		return nil
	}

	promptReq.Text = args[0]
	req, err := service.ToRewriteRequest(&promptReq)
	if err != nil {
		return err
	}

	composed, err := prompt.NewComposer().Compose(*req)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "# operation=%s register=%s level=%d\n\n", req.Operation, req.Register, req.Level)
	fmt.Fprintln(out, "## system")
	fmt.Fprintln(out, composed.SystemInstructions)
	fmt.Fprintln(out)
	fmt.Fprintln(out, "## user")
	fmt.Fprintln(out, composed.UserMessage)
	return nil
}
