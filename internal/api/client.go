// Package api uploads exported trace files to a collector over HTTP.
package api

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/moonlitstudios/backlot/pkg/core"
)

// UploadPath is the collector endpoint trace files are posted to.
const UploadPath = "/api/v1/traces"

// UploadMetadata describes a trace file alongside the upload.
type UploadMetadata struct {
	SessionName string
	// Duration is the session length in seconds of simulated time.
	Duration  float64
	ClockHour float64
	FinalTick uint64
	Delivered bool
}

// MetadataFor summarizes a finished session.
func MetadataFor(s *core.Session) UploadMetadata {
	meta := UploadMetadata{
		SessionName: s.Name,
		ClockHour:   s.ClockHour,
		FinalTick:   s.Outcome.FinalTick,
		Delivered:   s.Outcome.Delivered,
	}
	if s.TickRate > 0 {
		meta.Duration = float64(s.Outcome.FinalTick) / float64(s.TickRate)
	}
	return meta
}

// Client handles communication with the trace collector.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// New creates a new API client.
func New(baseURL, apiKey string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Healthcheck checks if the collector is reachable.
func (c *Client) Healthcheck() error {
	resp, err := c.httpClient.Get(c.baseURL + "/healthcheck")
	if err != nil {
		return fmt.Errorf("healthcheck request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("healthcheck returned status %d", resp.StatusCode)
	}
	return nil
}

// Upload streams a trace file to the collector as a multipart form.
func (c *Client) Upload(filePath string, meta UploadMetadata) error {
	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	pr, pw := io.Pipe()
	writer := multipart.NewWriter(pw)

	errCh := make(chan error, 1)
	go func() {
		fields := [][2]string{
			{"secret", c.apiKey},
			{"filename", filepath.Base(filePath)},
			{"sessionName", meta.SessionName},
			{"duration", fmt.Sprintf("%f", meta.Duration)},
			{"clockHour", strconv.FormatFloat(meta.ClockHour, 'f', -1, 64)},
			{"finalTick", strconv.FormatUint(meta.FinalTick, 10)},
			{"delivered", strconv.FormatBool(meta.Delivered)},
		}
		for _, f := range fields {
			if err := writer.WriteField(f[0], f[1]); err != nil {
				pw.CloseWithError(err)
				errCh <- err
				return
			}
		}

		part, err := writer.CreateFormFile("file", filepath.Base(filePath))
		if err == nil {
			_, err = io.Copy(part, file)
		}
		if err == nil {
			err = writer.Close()
		}
		if err != nil {
			err = fmt.Errorf("failed to write form: %w", err)
			pw.CloseWithError(err)
			errCh <- err
			return
		}
		errCh <- pw.Close()
	}()

	req, err := http.NewRequest(http.MethodPost, c.baseURL+UploadPath, pr)
	if err != nil {
		pr.Close()
		<-errCh
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		pr.Close()
		<-errCh
		return fmt.Errorf("upload request failed: %w", err)
	}
	defer resp.Body.Close()

	if writeErr := <-errCh; writeErr != nil {
		return writeErr
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("upload returned status %d", resp.StatusCode)
	}
	return nil
}
