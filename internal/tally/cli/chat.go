package cli

import (
	"bufio"
	"context"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/tally/internal/apperror"
	"github.com/abdul-hamid-achik/tally/internal/chat"
	"github.com/abdul-hamid-achik/tally/internal/logger"
)

var chatCmd = &cobra.Command{
	Use:   "chat [question]",
	Short: "Ask the AI assistant about the current dataset",
	Long: `Ask a single question, or start an interactive session when no
question is given.

The transcript is kept per dataset. With chat.redis_url configured it
survives between runs.

Interactive commands:
  /history   Print the transcript
  /clear     Clear the transcript (asks for confirmation)
  /exit      Leave the session

Examples:
  tally chat "Which channel grew fastest?"
  tally chat`,
	RunE: runChat,
}

var chatShowHistory bool

func init() {
	chatCmd.Flags().BoolVar(&chatShowHistory, "history", false, "Print the saved transcript and exit")
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx := GetContext()
	id := currentDataset()
	ctx = logger.WithDatasetID(ctx, id)

	store, closeStore, err := openChatStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = closeStore() }()

	session := newSession(store)
	if err := session.Open(ctx, id); err != nil {
		printer.Warn("Chat history unavailable: %v", err)
	}

	if chatShowHistory {
		return printTranscript(session.Messages())
	}

	if len(args) > 0 {
		reply, err := ask(ctx, session, strings.Join(args, " "))
		if err != nil {
			return err
		}
		if jsonOutput {
			return printer.JSON(reply)
		}
		printMessage(reply)
		return nil
	}

	if id == "" {
		printer.Warn("No dataset loaded; answers will not refer to your data")
	}
	return repl(ctx, session, cmd.InOrStdin())
}

func ask(ctx context.Context, session *chat.Session, text string) (chat.Message, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.GetTimeout("chat"))
	defer cancel()
	return session.Send(ctx, text)
}

func repl(ctx context.Context, session *chat.Session, in io.Reader) error {
	history := session.Messages()
	printMessage(history[len(history)-1])

	scanner := bufio.NewScanner(in)
	for {
		printer.Printf("> ")
		if !scanner.Scan() {
			printer.Println()
			return scanner.Err()
		}
		if ctx.Err() != nil {
			return nil
		}

		line := scanner.Text()
		switch strings.TrimSpace(line) {
		case "":
			continue
		case "/exit", "/quit":
			return nil
		case "/history":
			_ = printTranscript(session.Messages())
			continue
		case "/clear":
			cleared, err := session.Clear(ctx, func() bool { return confirm(scanner, "Clear the chat history?") })
			if err != nil {
				printer.Failed("clear", err)
			} else if cleared {
				printer.Success("Chat history cleared")
			}
			continue
		}

		reply, err := ask(ctx, session, line)
		if err != nil {
			printer.Error("%s", apperror.SafeMessage(err))
			continue
		}
		printMessage(reply)
	}
}

// confirm reads a y/N answer from the same input as the session.
func confirm(scanner *bufio.Scanner, question string) bool {
	printer.Printf("%s [y/N] ", question)
	if !scanner.Scan() {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(scanner.Text()))
	return answer == "y" || answer == "yes"
}

func printMessage(m chat.Message) {
	author := "You"
	if m.Role == chat.RoleAssistant {
		author = "AI assistant"
	}
	printer.Message(author, m.Content, m.Role == chat.RoleAssistant)
}

func printTranscript(messages []chat.Message) error {
	if jsonOutput {
		return printer.JSON(messages)
	}
	for _, m := range messages {
		printMessage(m)
	}
	return nil
}
