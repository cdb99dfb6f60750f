package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/calhours/internal/keyring"
)

var promptToken = promptTokenForm

type TokenSetCmd struct {
	Value string `arg:"" optional:"" help:"Bearer token. Prompted for when omitted."`
}

func (c *TokenSetCmd) Run(ctx *Context) error {
	token := strings.TrimSpace(c.Value)
	if token == "" {
		if !isTerminal() {
			return errors.New("no token given and stdin is not a terminal")
		}
		var err error
		if token, err = promptToken(); err != nil {
			return err
		}
	}

	if err := keyring.SetToken(token); err != nil {
		return err
	}
	fmt.Fprintln(ctx.out(), "Token stored in OS keyring.")
	return nil
}

type TokenDeleteCmd struct{}

func (c *TokenDeleteCmd) Run(ctx *Context) error {
	if err := keyring.DeleteToken(); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			fmt.Fprintln(ctx.out(), "No token stored.")
			return nil
		}
		return err
	}
	fmt.Fprintln(ctx.out(), "Token removed from OS keyring.")
	return nil
}

func promptTokenForm() (string, error) {
	var token string
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Bearer token").
				EchoMode(huh.EchoModePassword).
				Value(&token).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("token cannot be empty")
					}
					return nil
				}),
		),
	).Run()
	if err != nil {
		return "", fmt.Errorf("token prompt: %w", err)
	}
	return strings.TrimSpace(token), nil
}
