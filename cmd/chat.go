package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/linkedin-coach/internal/chat"
	"github.com/spigell/linkedin-coach/internal/logger"
	"github.com/spigell/linkedin-coach/internal/profile"
	"github.com/spigell/linkedin-coach/internal/session"
)

const (
	PromptContinue = "Continue previous chat"
	PromptStartNew = "Start new chat"
)

var errExit = errors.New("exit requested")

var sessionPrompt = promptui.Select{
	Label: "A previous session found",
	Items: []string{PromptContinue, PromptStartNew},
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the assistant about a LinkedIn profile",
	Run: func(cmd *cobra.Command, _ []string) {
		runChat(cmd)
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)

	chatCmd.Flags().StringP("url", "u", "", "LinkedIn profile url, asked interactively when unset")
	chatCmd.Flags().StringP("mode", "m", "", "continue or new, asked interactively when a previous session exists")
}

func runChat(cmd *cobra.Command) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the linkedin-coach", zap.String("version", buildVersion()))

	app, err := newApplication(ctx, config, logger)
	if err != nil {
		logger.Fatal("initializing", zap.Error(err))
	}
	defer app.Close()

	url, err := profileURL(cmd)
	if err != nil {
		logger.Fatal("reading profile url", zap.Error(err))
	}

	mode, err := sessionMode(ctx, cmd, app.chat, url)
	if err != nil {
		logger.Fatal("choosing session", zap.Error(err))
	}

	sess, err := app.chat.Open(ctx, url, mode)
	if err != nil {
		logger.Fatal("opening session", zap.Error(err))
	}

	logger.Info("session ready",
		zap.String("thread_id", sess.ThreadID),
		zap.Bool("resumed", sess.Resumed),
	)

	if sess.Resumed {
		history, err := app.chat.History(ctx, sess.ThreadID)
		if err != nil {
			logger.Fatal("loading history", zap.Error(err))
		}
		printHistory(history)
	}

	for {
		if err := converse(ctx, app.chat, sess.ThreadID); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			if errors.Is(err, session.ErrStateValidation) {
				logger.Fatal("session state is corrupted, restart with --mode new", zap.Error(err))
			}
			logger.Error("turn failed", zap.Error(err))
		}
	}
}

// converse reads one message and prints the reply.
func converse(ctx context.Context, svc *chat.Service, threadID string) error {
	input := promptui.Prompt{Label: "You"}
	message, err := input.Run()
	if err != nil {
		if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
			return errExit
		}
		return err
	}

	message = strings.TrimSpace(message)
	switch strings.ToLower(message) {
	case "":
		return nil
	case "exit", "quit":
		return errExit
	}

	reply, err := svc.Send(ctx, threadID, message)
	if err != nil {
		return err
	}

	fmt.Printf("\nAssistant: %s\n\n", reply)
	return nil
}

func profileURL(cmd *cobra.Command) (string, error) {
	url, _ := cmd.Flags().GetString("url")
	if url != "" {
		return url, profile.ValidateURL(url)
	}

	input := promptui.Prompt{
		Label:    "Profile URL (e.g. https://www.linkedin.com/in/username/)",
		Validate: profile.ValidateURL,
	}
	return input.Run()
}

func sessionMode(ctx context.Context, cmd *cobra.Command, svc *chat.Service, url string) (chat.Mode, error) {
	if flag, _ := cmd.Flags().GetString("mode"); flag != "" {
		return chat.ParseMode(flag)
	}

	_, found, err := svc.Lookup(ctx, url)
	if err != nil || !found {
		return chat.ModeNew, err
	}

	_, choice, err := sessionPrompt.Run()
	if err != nil {
		return "", err
	}
	if choice == PromptStartNew {
		return chat.ModeNew, nil
	}
	return chat.ModeContinue, nil
}

func printHistory(turns []session.Turn) {
	for _, turn := range turns {
		switch turn.Kind {
		case session.TurnUser:
			fmt.Printf("You: %s\n", turn.Content)
		case session.TurnAssistant:
			fmt.Printf("Assistant: %s\n", turn.Content)
		}
	}
	fmt.Println()
}
