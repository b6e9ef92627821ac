package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/zhouzirui/advice-chat/internal/model/chat"
)

var errNoAdvice = errors.New("no advice received (see log output)")

func newAskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask QUESTION...",
		Short: "Ask one question and print the advice",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, false)
			if err != nil {
				return err
			}

			ctrl := newController(cfg)
			defer ctrl.Close()

			reply, err := ask(ctrl, strings.Join(args, " "), cfg.Advice.Timeout+time.Second)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), reply)
			return nil
		},
	}
	return cmd
}

type asker interface {
	Submit(text string) bool
	Subscribe() (<-chan chat.State, func())
}

// ask submits question and waits for the request to settle.
func ask(conv asker, question string, timeout time.Duration) (string, error) {
	updates, unsubscribe := conv.Subscribe()
	defer unsubscribe()

	// the initial snapshot
	<-updates

	if !conv.Submit(question) {
		return "", errors.New("question is empty")
	}

	deadline := time.After(timeout)
	for {
		select {
		case state, ok := <-updates:
			if !ok {
				return "", errNoAdvice
			}
			if state.IsTyping {
				continue
			}
			if last, ok := state.Last(); ok && last.Role == chat.RoleBot {
				return last.Text, nil
			}
			return "", errNoAdvice
		case <-deadline:
			return "", fmt.Errorf("timed out after %s", timeout)
		}
	}
}
