package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/Nyukimin/leadqual/internal/application/qualification"
	"github.com/Nyukimin/leadqual/internal/domain/llm"
)

func newAssistantCmd(a *app) *cobra.Command {
	var contextKind string

	cmd := &cobra.Command{
		Use:   "assistant",
		Short: "Interactive operations assistant (type exit to quit)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.load(); err != nil {
				return err
			}

			deps, err := buildDependencies(cmd.Context(), a.cfg, a.logger)
			if err != nil {
				return err
			}

			rl, err := readline.NewEx(&readline.Config{
				Prompt:          "leadqual> ",
				InterruptPrompt: "^C",
				EOFPrompt:       "exit",
			})
			if err != nil {
				return fmt.Errorf("failed to start console: %w", err)
			}
			defer rl.Close()

			// 会話履歴はこのセッション内のみ保持
			var history []llm.Message
			out := rl.Stdout()

			for {
				line, err := rl.Readline()
				if errors.Is(err, readline.ErrInterrupt) {
					if line == "" {
						return nil
					}
					continue
				}
				if errors.Is(err, io.EOF) {
					return nil
				}
				if err != nil {
					return err
				}

				prompt := strings.TrimSpace(line)
				switch prompt {
				case "":
					continue
				case "exit", "quit":
					return nil
				}

				answer := deps.service.Answer(cmd.Context(), qualification.AnswerRequest{
					Prompt:      prompt,
					History:     history,
					ContextKind: contextKind,
				})
				printAnswer(out, answer)

				history = append(history,
					llm.Message{Role: llm.RoleUser, Content: prompt},
					llm.Message{Role: llm.RoleModel, Content: answer.Text},
				)
			}
		},
	}

	cmd.Flags().StringVar(&contextKind, "context", "general", "Console view the questions relate to")
	return cmd
}

func printAnswer(w io.Writer, answer qualification.Answer) {
	fmt.Fprintf(w, "[%s %s]\n%s\n", answer.Route, answer.Model, answer.Text)
	for i, ref := range answer.GroundingReferences {
		title := ref.Title
		if title == "" {
			title = ref.URI
		}
		fmt.Fprintf(w, "  [%d] %s <%s>\n", i+1, title, ref.URI)
	}
}
