package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/danielpatrickdp/companion-core/internal/orchestrator"
	"github.com/danielpatrickdp/companion-core/internal/profile"
)

var (
	chatUser string
	chatName string
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the companion in the terminal",
	Long: `Start an interactive session. Each line is processed like POST /chat/interact:
logged, analyzed, scored, classified and answered. Type 'quit' or 'exit' to leave.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			if err := ensureProfile(ctx, a, chatUser, chatName); err != nil {
				return err
			}
			return runChat(ctx, a.orch, chatUser, a.cfg.Chat.Persona, cmd.InOrStdin(), cmd.OutOrStdout())
		})
	},
}

func init() {
	chatCmd.Flags().StringVarP(&chatUser, "user", "u", "", "User id (required)")
	chatCmd.Flags().StringVar(&chatName, "name", "", "Create the profile with this name when it does not exist")
	_ = chatCmd.MarkFlagRequired("user")
}

// ensureProfile creates a minimal profile for a new user when a name is supplied.
func ensureProfile(ctx context.Context, a *app, userID, name string) error {
	ok, err := a.store.Profiles.Exists(ctx, userID)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	if name == "" {
		return fmt.Errorf("no profile for %q; pass --name to create one", userID)
	}
	a.logger.Info("creating profile", zap.String("user", userID))
	return a.store.Profiles.Create(ctx, userID, profile.Profile{Name: name})
}

// #region repl

// conversation is the slice of the orchestrator the REPL drives.
type conversation interface {
	ProcessMessage(ctx context.Context, userID, text string) (orchestrator.Response, error)
}

func runChat(ctx context.Context, conv conversation, userID, persona string, in io.Reader, out io.Writer) error {
	if persona == "" {
		persona = orchestrator.DefaultConfig().Persona
	}
	fmt.Fprintf(out, "%s is listening. Type 'quit' to exit.\n", persona)

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" {
			break
		}

		resp, err := conv.ProcessMessage(ctx, userID, line)
		if errors.Is(err, orchestrator.ErrEmptyMessage) {
			continue
		}
		if err != nil {
			return err
		}
		if jsonOut {
			if err := printJSON(out, resp); err != nil {
				return err
			}
			continue
		}
		fmt.Fprintf(out, "%s: %s\n", persona, resp.Text)
		fmt.Fprintf(out, "  [%s | %s | stress %d burnout %d danger %d chaos %d]\n",
			resp.Phase, resp.Strategy,
			resp.Prediction.Stress, resp.Prediction.Burnout, resp.Prediction.Danger, resp.Prediction.Chaos)
		for _, s := range resp.Suggestions {
			fmt.Fprintf(out, "  - %s (%s, %s)\n", s.Text, s.Category, s.Difficulty)
		}
	}
	return scanner.Err()
}

// #endregion repl
