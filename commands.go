package lottietex

type Commands struct {
	app *App
}

func (cmd *Commands) AddResources(resources ...any) *Commands {
	cmd.app.addResources(resources...)
	return cmd
}

func (cmd *Commands) UseSystem(system systemFn) *Commands {
	cmd.app.UseSystem(System(system))
	return cmd
}

// Exit stops App.Run after the current step.
func (cmd *Commands) Exit() {
	cmd.app.exit = true
}

func (cmd *Commands) Logger() Logger {
	return cmd.app.Logger()
}
