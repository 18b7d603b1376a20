package main

import (
	"fmt"
	"os"
	"time"

	"emperror.dev/errors"
	"github.com/kr/text"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/aviator-co/stackcore/internal/config"
	"github.com/aviator-co/stackcore/internal/utils/colors"
)

var rootFlags struct {
	Debug     bool
	Directory string
}

var rootCmd = &cobra.Command{
	Use: "stackcore",

	// Don't automatically print errors or usage information; main()
	// renders the final error itself.
	SilenceErrors: true,
	SilenceUsage:  true,

	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if rootFlags.Debug {
			logrus.SetLevel(logrus.DebugLevel)
		}

		configDirs := []string{}
		if gitDir, err := resolveGitCommonDir(cmd.Context()); err == nil {
			configDirs = append(configDirs, gitDir)
		} else {
			logrus.WithError(err).Debug("unable to resolve git common dir (probably not inside a repo)")
		}

		if _, err := config.Load(configDirs); err != nil {
			return errors.Wrap(err, "failed to load configuration")
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(
		&rootFlags.Debug, "debug", false,
		"enable verbose debug logging",
	)
	rootCmd.PersistentFlags().StringVarP(
		&rootFlags.Directory, "repo", "C", "",
		"directory to use for the git repository",
	)
	rootCmd.AddCommand(
		stackCmd,
		planCmd,
		confirmCmd,
		stepCmd,
		cancelCmd,
	)
}

func main() {
	colors.SetupBackgroundColorTypeFromEnv()

	startTime := time.Now()
	err := rootCmd.Execute()
	logrus.WithField("duration", time.Since(startTime)).Debug("command exited")

	if err != nil {
		if rootFlags.Debug {
			stackTrace := fmt.Sprintf("%+v", err)
			fmt.Fprintf(os.Stderr, "error: %s\n%s\n", err, text.Indent(stackTrace, "\t"))
		} else {
			fmt.Fprint(os.Stderr, renderError(err))
		}
		os.Exit(1)
	}
}
