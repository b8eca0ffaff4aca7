package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lincza/al-build/pkg/config"
	"github.com/lincza/al-build/pkg/console"
	"github.com/lincza/al-build/pkg/logger"
	"github.com/lincza/al-build/pkg/project"
	"github.com/lincza/al-build/pkg/publish"
)

var publishCmdLog = logger.New("cli:publish")

// NewPublishCommand creates the publish command
func NewPublishCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "publish <file>",
		Short: "Submit a package to the marketplace",
		Long: `Submit a compiled package to the marketplace through Partner Center.

Only store-eligible projects (an object ID range starting at 100000 or
above) are submitted; anything else skips publication successfully, so the
command is safe to run unconditionally in a pipeline. Credentials come
from AZURE_TENANT_ID, AZURE_CLIENT_ID and AZURE_CLIENT_SECRET; the Partner
Center product is configured in .albuild.yml or via --product-id.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			productID, _ := cmd.Flags().GetString("product-id")
			return RunPublish(cmd, projectDir(cmd), args[0], productID)
		},
	}
	cmd.Flags().String("product-id", "", "Partner Center product ID (default: from .albuild.yml)")
	return cmd
}

// RunPublish checks eligibility and submits the package.
func RunPublish(cmd *cobra.Command, dir, file, productID string) error {
	descriptor, err := project.Load(dir)
	if err != nil {
		fmt.Fprintln(os.Stderr, console.FormatErrorMessage(err.Error()))
		return err
	}
	if !project.IsStoreEligible(descriptor.IDRanges) {
		fmt.Println(console.FormatInfoMessage("Project has no marketplace ID ranges, skipping publication"))
		return nil
	}

	if productID == "" {
		cfg, err := config.Load(dir)
		if err != nil {
			return err
		}
		productID = cfg.Publish.ProductID
	}

	publisher, err := publish.NewPublisher(publish.Credentials{
		TenantID:     os.Getenv("AZURE_TENANT_ID"),
		ClientID:     os.Getenv("AZURE_CLIENT_ID"),
		ClientSecret: os.Getenv("AZURE_CLIENT_SECRET"),
	}, productID)
	if err != nil {
		fmt.Fprintln(os.Stderr, console.FormatErrorMessage(err.Error()))
		return err
	}

	publishCmdLog.Printf("Publishing %s for product %s", file, productID)
	if err := publisher.Submit(cmd.Context(), file); err != nil {
		fmt.Fprintln(os.Stderr, console.FormatErrorMessage(err.Error()))
		return err
	}
	fmt.Println(console.FormatSuccessMessage("Submitted to the marketplace"))
	return nil
}
