// Package publish submits store-eligible extension packages to the
// marketplace through the Partner Center ingestion API.
package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/hashicorp/go-retryablehttp"

	"github.com/lincza/al-build/pkg/logger"
)

var publishLog = logger.New("publish:publish")

const (
	ingestionBaseURL = "https://api.partner.microsoft.com/v1.0/ingestion"
	ingestionScope   = "https://api.partner.microsoft.com/.default"
)

// Credentials is the service principal allowed to submit to Partner
// Center.
type Credentials struct {
	TenantID     string
	ClientID     string
	ClientSecret string
}

// Validate reports whether all credential fields are present.
func (c Credentials) Validate() error {
	if c.TenantID == "" || c.ClientID == "" || c.ClientSecret == "" {
		return fmt.Errorf("marketplace credentials incomplete: tenant ID, client ID and client secret are all required")
	}
	return nil
}

// Publisher drives a marketplace submission for one product.
type Publisher struct {
	Credentials Credentials
	// ProductID is the Partner Center product the package belongs to.
	ProductID string

	http  *retryablehttp.Client
	token string
}

// NewPublisher validates the credentials and prepares the HTTP client.
func NewPublisher(creds Credentials, productID string) (*Publisher, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}
	if productID == "" {
		return nil, fmt.Errorf("marketplace product ID is required")
	}

	client := retryablehttp.NewClient()
	client.RetryMax = 3
	client.RetryWaitMin = time.Second
	client.RetryWaitMax = 10 * time.Second
	client.HTTPClient.Timeout = 2 * time.Minute
	client.Logger = nil

	return &Publisher{Credentials: creds, ProductID: productID, http: client}, nil
}

// authenticate acquires an AAD token for the ingestion API using the
// client credentials flow.
func (p *Publisher) authenticate(ctx context.Context) error {
	cred, err := azidentity.NewClientSecretCredential(
		p.Credentials.TenantID, p.Credentials.ClientID, p.Credentials.ClientSecret, nil)
	if err != nil {
		return fmt.Errorf("failed to create Azure credential: %w", err)
	}
	token, err := cred.GetToken(ctx, policy.TokenRequestOptions{Scopes: []string{ingestionScope}})
	if err != nil {
		return fmt.Errorf("failed to authenticate with Partner Center: %w", err)
	}
	p.token = token.Token
	publishLog.Print("Authenticated with Partner Center")
	return nil
}

func (p *Publisher) do(ctx context.Context, method, url string, body io.Reader, out any) error {
	req, err := retryablehttp.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+p.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("partner center returned %s: %s", resp.Status, bytes.TrimSpace(data))
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

type packageResource struct {
	ID        string `json:"id,omitempty"`
	Type      string `json:"resourceType"`
	FileName  string `json:"fileName"`
	FileSAS   string `json:"fileSasUri,omitempty"`
	State     string `json:"state,omitempty"`
	ODataETag string `json:"@odata.etag,omitempty"`
}

type submissionResource struct {
	ID    string `json:"id,omitempty"`
	State string `json:"state,omitempty"`
}

// Submit uploads the package and creates a submission for it. The
// submission is left in Partner Center's review pipeline; certification
// progress is not awaited.
func (p *Publisher) Submit(ctx context.Context, appFile string) error {
	info, err := os.Stat(appFile)
	if err != nil {
		return fmt.Errorf("package not found: %w", err)
	}
	publishLog.Printf("Submitting %s (%d bytes) for product %s", appFile, info.Size(), p.ProductID)

	if err := p.authenticate(ctx); err != nil {
		return err
	}

	pkg, err := p.createPackage(ctx, filepath.Base(appFile))
	if err != nil {
		return err
	}
	if err := p.uploadPackage(ctx, pkg, appFile); err != nil {
		return err
	}
	if err := p.markUploaded(ctx, pkg); err != nil {
		return err
	}

	submission, err := p.createSubmission(ctx)
	if err != nil {
		return err
	}
	publishLog.Printf("Submission %s created in state %s", submission.ID, submission.State)
	return nil
}

// createPackage registers the package and receives a SAS URI to upload
// the binary to.
func (p *Publisher) createPackage(ctx context.Context, fileName string) (*packageResource, error) {
	body, err := json.Marshal(packageResource{
		Type:     "Dynamics365BusinessCentralAddOnExtensionPackage",
		FileName: fileName,
	})
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/products/%s/packages", ingestionBaseURL, p.ProductID)
	var pkg packageResource
	if err := p.do(ctx, http.MethodPost, url, bytes.NewReader(body), &pkg); err != nil {
		return nil, fmt.Errorf("failed to create package resource: %w", err)
	}
	if pkg.FileSAS == "" {
		return nil, fmt.Errorf("package resource %s has no upload URI", pkg.ID)
	}
	return &pkg, nil
}

// uploadPackage puts the binary to the SAS URI as an Azure block blob.
func (p *Publisher) uploadPackage(ctx context.Context, pkg *packageResource, appFile string) error {
	f, err := os.Open(appFile)
	if err != nil {
		return err
	}
	defer f.Close()

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPut, pkg.FileSAS, f)
	if err != nil {
		return err
	}
	req.Header.Set("x-ms-blob-type", "BlockBlob")
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := p.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to upload package: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("package upload returned %s", resp.Status)
	}
	publishLog.Print("Package uploaded")
	return nil
}

// markUploaded acknowledges the upload so Partner Center starts
// processing the package.
func (p *Publisher) markUploaded(ctx context.Context, pkg *packageResource) error {
	pkg.State = "Uploaded"
	body, err := json.Marshal(pkg)
	if err != nil {
		return err
	}
	url := fmt.Sprintf("%s/products/%s/packages/%s", ingestionBaseURL, p.ProductID, pkg.ID)
	if err := p.do(ctx, http.MethodPut, url, bytes.NewReader(body), nil); err != nil {
		return fmt.Errorf("failed to acknowledge upload: %w", err)
	}
	return nil
}

func (p *Publisher) createSubmission(ctx context.Context) (*submissionResource, error) {
	body := bytes.NewReader([]byte(`{"resourceType":"SubmissionCreationRequest","targets":[{"type":"Scope","value":"preview"}]}`))
	url := fmt.Sprintf("%s/products/%s/submissions", ingestionBaseURL, p.ProductID)
	var submission submissionResource
	if err := p.do(ctx, http.MethodPost, url, body, &submission); err != nil {
		return nil, fmt.Errorf("failed to create submission: %w", err)
	}
	return &submission, nil
}
