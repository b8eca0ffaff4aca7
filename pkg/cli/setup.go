package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lincza/al-build/pkg/compiler"
	"github.com/lincza/al-build/pkg/console"
	"github.com/lincza/al-build/pkg/logger"
)

var setupLog = logger.New("cli:setup")

// NewSetupCommand creates the setup command
func NewSetupCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "setup",
		Short: "Install the AL compiler as a dotnet global tool",
		Long: `Install or update the AL compiler used to build extensions.

The compiler ships as the Microsoft.Dynamics.BusinessCentral.Development.Tools
dotnet global tool and requires an installed .NET SDK. On GitHub Actions the
dotnet tools directory is appended to the runner PATH for subsequent steps.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			setupLog.Print("Running setup")
			if err := compiler.Install(cmd.Context()); err != nil {
				fmt.Fprintln(os.Stderr, console.FormatErrorMessage(err.Error()))
				return err
			}
			fmt.Println(console.FormatSuccessMessage("AL compiler installed"))
			return nil
		},
	}
}
