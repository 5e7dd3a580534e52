package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

type chatOptions struct {
	Conversation string
}

func newChatCmd(opts *globalOptions) *cobra.Command {
	var options chatOptions

	cmd := &cobra.Command{
		Use:   "chat <message...>",
		Short: "Send a chat message to the assistant",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := opts.client()
			uid, err := c.userID(cmd.Context())
			if err != nil {
				return err
			}
			body := map[string]any{"message": strings.Join(args, " ")}
			if options.Conversation != "" {
				body["conversation_id"] = options.Conversation
			}
			var resp struct {
				ConversationID string `json:"conversation_id"`
				Response       string `json:"response"`
				ToolCalls      []struct {
					ToolName string `json:"tool_name"`
					Error    string `json:"error"`
				} `json:"tool_calls"`
			}
			if err := c.post(cmd.Context(), "/api/"+uid+"/chat", body, &resp); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, resp.Response)
			for _, tc := range resp.ToolCalls {
				if tc.Error != "" {
					fmt.Fprintf(cmd.ErrOrStderr(), "  [%s failed: %s]\n", tc.ToolName, tc.Error)
				}
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "(conversation %s)\n", resp.ConversationID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&options.Conversation, "conversation", "c", "", "continue an existing conversation")
	return cmd
}
