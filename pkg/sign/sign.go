// Package sign signs compiled extension artifacts with an Authenticode
// certificate, using SignTool on Windows or osslsigncode elsewhere.
package sign

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/lincza/al-build/pkg/logger"
)

var signLog = logger.New("sign:sign")

// DefaultTimestampURL is the timestamp authority used when none is
// configured.
const DefaultTimestampURL = "http://timestamp.sectigo.com"

// navxMagic is the 4-byte header of Business Central extension packages.
var navxMagic = []byte("NAVX")

// signtoolCandidates are the usual Windows SDK install locations, checked
// when signtool.exe is not on PATH.
var signtoolCandidates = []string{
	`C:\Program Files (x86)\Windows Kits\10\bin\10.0.22000.0\x64\signtool.exe`,
	`C:\Program Files (x86)\Windows Kits\10\bin\10.0.19041.0\x64\signtool.exe`,
	`C:\Program Files (x86)\Windows Kits\10\bin\10.0.18362.0\x64\signtool.exe`,
	`C:\Program Files (x86)\Microsoft SDKs\Windows\v10.0A\bin\NETFX 4.8 Tools\x64\signtool.exe`,
}

// IsExtensionPackage reports whether the file carries the NAVX package
// header.
func IsExtensionPackage(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	header := make([]byte, len(navxMagic))
	if _, err := f.Read(header); err != nil {
		return false
	}
	return bytes.Equal(header, navxMagic)
}

// CheckPlatform verifies the current platform can sign the given file.
// NAVX packages require Windows SignTool; force overrides the gate for
// experimentation and will usually fail downstream.
func CheckPlatform(path string, force bool) error {
	if runtime.GOOS == "windows" || !IsExtensionPackage(path) {
		return nil
	}
	if force {
		signLog.Print("Forcing NAVX signing on non-Windows platform")
		return nil
	}
	return fmt.Errorf("extension packages can only be signed on Windows; run this step on a windows runner or pass --force")
}

// FindTool locates a signing tool: signtool.exe on PATH, then the known
// Windows SDK locations, then osslsigncode.
func FindTool() (string, error) {
	if path, err := exec.LookPath("signtool.exe"); err == nil {
		return path, nil
	}
	if path, err := exec.LookPath("signtool"); err == nil {
		return path, nil
	}
	for _, candidate := range signtoolCandidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	if path, err := exec.LookPath("osslsigncode"); err == nil {
		return path, nil
	}
	return "", fmt.Errorf("no signing tool found; install the Windows SDK (signtool) or osslsigncode")
}

// Request describes one signing operation.
type Request struct {
	File         string
	Certificate  *Certificate
	TimestampURL string
	Force        bool
}

// Sign signs the file in place and verifies the result. Verification
// failures are logged but do not fail the operation.
func Sign(ctx context.Context, req Request) error {
	if _, err := os.Stat(req.File); err != nil {
		return fmt.Errorf("file to sign not found: %w", err)
	}
	if err := CheckPlatform(req.File, req.Force); err != nil {
		return err
	}

	tool, err := FindTool()
	if err != nil {
		return err
	}
	signLog.Printf("Signing %s with %s", req.File, tool)

	timestampURL := req.TimestampURL
	if timestampURL == "" {
		timestampURL = DefaultTimestampURL
	}

	if strings.Contains(strings.ToLower(tool), "osslsigncode") {
		err = signWithOsslsigncode(ctx, tool, req.File, req.Certificate, timestampURL)
	} else {
		err = signWithSigntool(ctx, tool, req.File, req.Certificate, timestampURL)
	}
	if err != nil {
		return err
	}

	if verifyErr := verify(ctx, tool, req.File); verifyErr != nil {
		signLog.Printf("Signature verification failed: %v", verifyErr)
	}
	return nil
}

func signWithSigntool(ctx context.Context, tool, file string, cert *Certificate, timestampURL string) error {
	args := []string{
		"sign",
		"/f", cert.Path,
		"/p", cert.Password,
		"/fd", "SHA256",
		"/tr", timestampURL,
		"/td", "SHA256",
		"/v",
		file,
	}
	if out, err := runTool(ctx, tool, args); err != nil {
		return fmt.Errorf("signtool failed: %s", out)
	}
	return nil
}

func signWithOsslsigncode(ctx context.Context, tool, file string, cert *Certificate, timestampURL string) error {
	// osslsigncode cannot sign in place.
	signed := file + ".signed"
	args := []string{
		"sign",
		"-pkcs12", cert.Path,
		"-in", file,
		"-out", signed,
	}
	if cert.Password != "" {
		args = append(args, "-pass", cert.Password)
	}
	if timestampURL != "" {
		args = append(args, "-t", timestampURL)
	}
	if out, err := runTool(ctx, tool, args); err != nil {
		os.Remove(signed)
		return fmt.Errorf("osslsigncode failed: %s", out)
	}
	return os.Rename(signed, file)
}

func verify(ctx context.Context, tool, file string) error {
	var args []string
	if strings.Contains(strings.ToLower(tool), "osslsigncode") {
		args = []string{"verify", file}
	} else {
		args = []string{"verify", "/pa", file}
	}
	if out, err := runTool(ctx, tool, args); err != nil {
		return fmt.Errorf("%s", out)
	}
	signLog.Print("Signature verified")
	return nil
}

func runTool(ctx context.Context, tool string, args []string) (string, error) {
	cmd := exec.CommandContext(ctx, tool, args...)
	var combined bytes.Buffer
	cmd.Stdout = &combined
	cmd.Stderr = &combined
	err := cmd.Run()
	return strings.TrimSpace(combined.String()), err
}
