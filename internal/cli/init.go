package cli

import "fmt"

type InitCmd struct{}

func (c *InitCmd) Run(ctx *Context) error {
	if err := ctx.Store.Init(); err != nil {
		return err
	}
	defer ctx.Store.Close()
	fmt.Fprintf(ctx.out(), "Initialized calhours storage at: %s\n", ctx.Store.GetConfigPath())
	return nil
}
