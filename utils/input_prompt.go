package utils

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/meysamhadeli/reviewmentor/constants/lipgloss"
	"golang.org/x/term"
)

// InputPromptWithContext prints label and reads one line, giving up when ctx
// is cancelled. EOF yields an empty answer.
func InputPromptWithContext(ctx context.Context, reader *bufio.Reader, label string) (string, error) {
	inputChan := make(chan string, 1)
	errChan := make(chan error, 1)

	go func() {
		fmt.Print(lipgloss.BlueSky.Render(label))

		userInput, err := reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				inputChan <- strings.TrimSpace(userInput)
			} else {
				errChan <- fmt.Errorf("error reading input: %w", err)
			}
			return
		}
		inputChan <- strings.TrimSpace(userInput)
	}()

	select {
	case <-ctx.Done():
		fmt.Println()
		return "", ctx.Err()
	case err := <-errChan:
		return "", err
	case input := <-inputChan:
		return input, nil
	}
}

// Answer is what the user chose for one proposed fix.
type Answer string

const (
	AnswerAccept Answer = "accept"
	AnswerReject Answer = "reject"
	AnswerSkip   Answer = "skip"
)

// ParseAnswer maps a typed reply to an answer.
func ParseAnswer(input string) (Answer, bool) {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "a", "y", "yes", "accept":
		return AnswerAccept, true
	case "r", "n", "no", "reject":
		return AnswerReject, true
	case "s", "skip", "":
		return AnswerSkip, true
	default:
		return "", false
	}
}

// DecisionPrompt asks whether the fix for file should be accepted, rejected
// or left pending, repeating the question until the answer is understood.
func DecisionPrompt(ctx context.Context, reader *bufio.Reader, file string) (Answer, error) {
	label := fmt.Sprintf("Apply fix to %s? [a]ccept / [r]eject / [s]kip: ", file)
	for {
		input, err := InputPromptWithContext(ctx, reader, label)
		if err != nil {
			return AnswerSkip, err
		}
		if answer, ok := ParseAnswer(input); ok {
			return answer, nil
		}
		fmt.Println(lipgloss.Yellow.Render("Please answer 'a', 'r' or 's'."))
	}
}

var ErrEmptyCredential = errors.New("no API key entered")

// CredentialPrompt reads the API key without echo when in is a terminal, and
// as a plain line otherwise.
func CredentialPrompt(in *os.File, reader *bufio.Reader) (string, error) {
	fmt.Print(lipgloss.BlueSky.Render("Enter API key: "))

	var credential string
	if in != nil && term.IsTerminal(int(in.Fd())) {
		secret, err := term.ReadPassword(int(in.Fd()))
		fmt.Println()
		if err != nil {
			return "", fmt.Errorf("error reading API key: %w", err)
		}
		credential = string(secret)
	} else {
		line, err := reader.ReadString('\n')
		if err != nil && err != io.EOF {
			return "", fmt.Errorf("error reading API key: %w", err)
		}
		credential = line
	}

	credential = strings.TrimSpace(credential)
	if credential == "" {
		return "", ErrEmptyCredential
	}
	return credential, nil
}
