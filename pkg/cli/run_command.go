package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/lincza/al-build/pkg/actions"
	"github.com/lincza/al-build/pkg/buildver"
	"github.com/lincza/al-build/pkg/compiler"
	"github.com/lincza/al-build/pkg/config"
	"github.com/lincza/al-build/pkg/console"
	"github.com/lincza/al-build/pkg/logger"
	"github.com/lincza/al-build/pkg/project"
	"github.com/lincza/al-build/pkg/publish"
	"github.com/lincza/al-build/pkg/sign"
)

var runLog = logger.New("cli:run")

// NewRunCommand creates the run command
func NewRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the full CI build pipeline",
		Long: `Run the complete pipeline as a GitHub Actions step.

The triggering event and ref classify the build: pushes to main, master or
a bcNN branch are production builds, manual dispatches from develop are
development builds, everything else is a validation build. The build
version is derived from the mode, the platform major version and the
current time. Production artifacts are signed and, when the project is
store-eligible, submitted to the marketplace.

Outputs written to GITHUB_OUTPUT:
  build-mode            Validation, Development or Production
  build-version         The generated four-part version
  build-number          <version>_<short commit SHA>
  compilation-success   true or false
  app-file-path         Path of the compiled package, when produced`,
		RunE: func(cmd *cobra.Command, args []string) error {
			buildType, _ := cmd.Flags().GetString("build-type")
			return RunPipeline(cmd.Context(), projectDir(cmd), buildType)
		},
	}
	cmd.Flags().String("build-type", "", "Version tag to build (default: auto-detect)")
	return cmd
}

// RunPipeline executes classify, version, compile, sign and publish.
func RunPipeline(ctx context.Context, dir, buildType string) error {
	cfg, err := config.Load(dir)
	if err != nil {
		return err
	}
	if buildType == "" {
		buildType = cfg.Build.BuildType
	}

	buildCtx := actions.NewBuildContext()
	mode := buildver.Classify(buildCtx.Event, buildCtx.Ref)
	fmt.Println(console.FormatInfoMessage(fmt.Sprintf("Build mode: %s (event=%s ref=%s)", mode, buildCtx.Event, buildCtx.Ref)))
	actions.SetOutput("build-mode", string(mode))

	active, err := project.Select(dir, buildType)
	if err != nil {
		fmt.Fprintln(os.Stderr, console.FormatErrorMessage(err.Error()))
		return err
	}
	defer active.Restore()

	version, err := buildver.Generate(mode, active.Descriptor.PlatformMajor(), buildCtx.Now)
	if err != nil {
		fmt.Fprintln(os.Stderr, console.FormatErrorMessage(err.Error()))
		return err
	}
	if err := active.SetVersion(version.String()); err != nil {
		fmt.Fprintln(os.Stderr, console.FormatErrorMessage(err.Error()))
		return err
	}

	buildNumber := version.String() + "_" + buildCtx.ShortCommit()
	actions.SetOutput("build-version", version.String())
	actions.SetOutput("build-number", buildNumber)
	runLog.Printf("Building %s version %s", active.Descriptor.Name, version)

	out := fmt.Sprintf("%s_%s_%s.app", active.Descriptor.CleanName(), version, buildCtx.ShortCommit())
	result, err := compileActive(ctx, dir, cfg, active, out)
	if err != nil {
		actions.SetOutput("compilation-success", "false")
		fmt.Fprintln(os.Stderr, console.FormatErrorMessage(err.Error()))
		return err
	}
	reportCompile(result)
	actions.SetOutput("compilation-success", strconv.FormatBool(result.Success))
	if !result.Success {
		return fmt.Errorf("compilation failed")
	}
	actions.SetOutput("app-file-path", result.ArtifactPath)
	summarize(active.Descriptor, version, result)

	if mode.ShouldSign() {
		if err := signArtifact(ctx, cfg, result.ArtifactPath); err != nil {
			return err
		}
	}
	if mode.ShouldPublish() {
		if err := publishArtifact(ctx, cfg, active.Descriptor, result.ArtifactPath); err != nil {
			return err
		}
	}
	return nil
}

func summarize(d *project.Descriptor, version buildver.Version, result compiler.Result) {
	size := "unknown"
	if info, err := os.Stat(result.ArtifactPath); err == nil {
		size = console.FormatFileSize(info.Size())
	}
	fmt.Println(console.FormatInfoMessage(fmt.Sprintf("Built %s %s (%s)", d.Name, version, size)))
}

// signArtifact signs a production artifact using either Key Vault or a
// base64 certificate from the environment. A production build without any
// signing configuration proceeds unsigned with a warning; a configured but
// failing signing step fails the build.
func signArtifact(ctx context.Context, cfg *config.Config, artifact string) error {
	cert, err := loadCertificate(ctx, cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, console.FormatErrorMessage(err.Error()))
		return err
	}
	if cert == nil {
		fmt.Println(console.FormatWarningMessage("No signing certificate configured, skipping signing"))
		return nil
	}
	defer cert.Close()

	req := sign.Request{File: artifact, Certificate: cert, TimestampURL: cfg.Signing.TimestampURL}
	if err := sign.Sign(ctx, req); err != nil {
		fmt.Fprintln(os.Stderr, console.FormatErrorMessage(err.Error()))
		return err
	}
	fmt.Println(console.FormatSuccessMessage("Artifact signed"))
	return nil
}

func loadCertificate(ctx context.Context, cfg *config.Config) (*sign.Certificate, error) {
	if cfg.Signing.VaultURL != "" {
		return sign.CertificateFromVault(ctx, sign.VaultConfig{
			VaultURL:     cfg.Signing.VaultURL,
			CertName:     cfg.Signing.CertName,
			TenantID:     os.Getenv("AZURE_TENANT_ID"),
			ClientID:     os.Getenv("AZURE_CLIENT_ID"),
			ClientSecret: os.Getenv("AZURE_CLIENT_SECRET"),
		})
	}
	if encoded := os.Getenv("SIGNING_CERT_BASE64"); encoded != "" {
		return sign.CertificateFromBase64(encoded, os.Getenv("SIGNING_CERT_PASSWORD"))
	}
	return nil, nil
}

// publishArtifact submits a store-eligible artifact to the marketplace.
// Ineligible projects skip publication successfully.
func publishArtifact(ctx context.Context, cfg *config.Config, d *project.Descriptor, artifact string) error {
	if !project.IsStoreEligible(d.IDRanges) {
		fmt.Println(console.FormatInfoMessage("Project has no marketplace ID ranges, skipping publication"))
		return nil
	}
	if cfg.Publish.ProductID == "" {
		fmt.Println(console.FormatWarningMessage("No marketplace product configured, skipping publication"))
		return nil
	}

	publisher, err := publish.NewPublisher(publish.Credentials{
		TenantID:     os.Getenv("AZURE_TENANT_ID"),
		ClientID:     os.Getenv("AZURE_CLIENT_ID"),
		ClientSecret: os.Getenv("AZURE_CLIENT_SECRET"),
	}, cfg.Publish.ProductID)
	if err != nil {
		fmt.Fprintln(os.Stderr, console.FormatErrorMessage(err.Error()))
		return err
	}
	if err := publisher.Submit(ctx, artifact); err != nil {
		fmt.Fprintln(os.Stderr, console.FormatErrorMessage(err.Error()))
		return err
	}
	fmt.Println(console.FormatSuccessMessage("Submitted to the marketplace"))
	return nil
}
