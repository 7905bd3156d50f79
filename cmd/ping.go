package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/staarai/internal/llm"
	"github.com/abhisek/staarai/internal/logging"
)

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Send a tiny completion to check the LLM provider",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Provider: %s\n", appCfg.LLM.Provider)
		fmt.Fprintf(out, "Model:    %s\n", configuredModel(appCfg.LLM))
		if key := configuredKey(appCfg.LLM); key != "" {
			fmt.Fprintf(out, "Key:      %s\n", logging.RedactSecret(key))
		}

		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		provider, err := llm.NewProvider(cmd.Context(), appCfg.LLM, s.EventRepo(), logger)
		if err != nil {
			return errors.New(llm.UserMessage(err))
		}

		ctx := llm.WithPurpose(cmd.Context(), llm.PurposePing)
		start := time.Now()
		resp, err := provider.Generate(ctx, llm.Request{
			Messages:    llm.SingleTurn("Reply with READY"),
			MaxTokens:   2,
			Temperature: 0,
		})
		if err != nil {
			var trunc *llm.ErrMaxTokensExceeded
			if !errors.As(err, &trunc) {
				return errors.New(llm.UserMessage(err))
			}
		}

		reply := ""
		if resp != nil {
			reply = resp.Text()
		}
		fmt.Fprintf(out, "OK in %s: %q\n", time.Since(start).Round(time.Millisecond), reply)
		return nil
	},
}
