package colors

import "github.com/fatih/color"

var (
	CliCmdC          = color.New(color.FgMagenta)
	SuccessC         = color.New(color.FgGreen)
	FailureC         = color.New(color.FgRed)
	WarningC         = color.New(color.FgYellow)
	TroubleshootingC = color.New(color.Faint)
	UserInputC       = color.New(color.FgCyan)
	FaintC           = color.New(color.Faint)
	BoldC            = color.New(color.Bold)
)

var (
	CliCmd          = CliCmdC.Sprint
	Success         = SuccessC.Sprint
	Failure         = FailureC.Sprint
	Warning         = WarningC.Sprint
	Troubleshooting = TroubleshootingC.Sprint
	UserInput       = UserInputC.Sprint
	Faint           = FaintC.Sprint
	Bold            = BoldC.Sprint
)
