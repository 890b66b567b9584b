package domain

import "fmt"

// ConnectorType selects where the ingestion backend sources input from.
type ConnectorType string

const (
	ConnectorFileUpload ConnectorType = "file_upload"
	ConnectorURL        ConnectorType = "url"
)

// OutputType selects how the backend delivers artifacts.
type OutputType string

const OutputSignedURL OutputType = "s3-signed-url"

// Connector is a tagged union: FileIDs for file_upload, URLs for url.
type Connector struct {
	Type    ConnectorType `json:"type"`
	FileIDs []string      `json:"file_ids,omitempty"`
	URLs    []string      `json:"urls,omitempty"`
}

// FileUploadConnector sources the job from previously uploaded files.
func FileUploadConnector(fileIDs ...string) Connector {
	return Connector{Type: ConnectorFileUpload, FileIDs: fileIDs}
}

// URLConnector sources the job from remote documents.
func URLConnector(urls ...string) Connector {
	return Connector{Type: ConnectorURL, URLs: urls}
}

// Output describes the artifact sink.
type Output struct {
	Type           OutputType `json:"type"`
	ExpiresMinutes int        `json:"expires_minutes,omitempty"`
}

// SignedURLOutput delivers artifacts as signed URLs; zero minutes keeps the backend default.
func SignedURLOutput(expiresMinutes int) Output {
	return Output{Type: OutputSignedURL, ExpiresMinutes: expiresMinutes}
}

// JobInput is the body of a job submission.
type JobInput struct {
	Connector Connector `json:"connector"`
	Output    Output    `json:"output"`
}

// Validate checks that the variant fields match the connector type.
func (in JobInput) Validate() error {
	switch in.Connector.Type {
	case ConnectorFileUpload:
		if len(in.Connector.FileIDs) == 0 {
			return ValidationError("submit job", "file_upload connector requires at least one file id")
		}
		if len(in.Connector.URLs) > 0 {
			return ValidationError("submit job", "file_upload connector does not accept urls")
		}
	case ConnectorURL:
		if len(in.Connector.URLs) == 0 {
			return ValidationError("submit job", "url connector requires at least one url")
		}
		if len(in.Connector.FileIDs) > 0 {
			return ValidationError("submit job", "url connector does not accept file ids")
		}
	default:
		return ValidationError("submit job", fmt.Sprintf("unknown connector type %q", in.Connector.Type))
	}

	if in.Output.Type != OutputSignedURL {
		return ValidationError("submit job", fmt.Sprintf("unsupported output type %q", in.Output.Type))
	}
	if in.Output.ExpiresMinutes < 0 {
		return ValidationError("submit job", "expires_minutes must not be negative")
	}
	return nil
}
