package reporting

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/carelink/mission-service/internal/domain"
	"github.com/carelink/mission-service/internal/ports"
)

// HTTPGenerator asks the document service to render a completion report and
// returns the stored PDF path.
type HTTPGenerator struct {
	endpoint string
	client   *http.Client
}

func NewHTTPGenerator(endpoint string, timeout time.Duration) *HTTPGenerator {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPGenerator{
		endpoint: strings.TrimRight(endpoint, "/"),
		client:   &http.Client{Timeout: timeout},
	}
}

type generateResponse struct {
	PDFPath string `json:"pdf_path"`
}

func (g *HTTPGenerator) GenerateMissionReport(ctx context.Context, report ports.MissionReport) (string, error) {
	body, err := json.Marshal(report)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint+"/reports/missions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", "mission-report:"+report.MissionID)

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: report service: %v", domain.ErrDependencyUnavailable, err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode >= http.StatusMultipleChoices {
		return "", fmt.Errorf("%w: report service returned %d: %s", domain.ErrDependencyUnavailable, resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	var out generateResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("decode report response: %w", err)
	}
	if strings.TrimSpace(out.PDFPath) == "" {
		return "", errors.New("report service returned an empty pdf_path")
	}
	return out.PDFPath, nil
}

// DisabledGenerator is wired when no report service is configured; the
// service logs its error and completes the mission without a PDF.
type DisabledGenerator struct{}

func (DisabledGenerator) GenerateMissionReport(context.Context, ports.MissionReport) (string, error) {
	return "", fmt.Errorf("%w: report generation is not configured", domain.ErrDependencyUnavailable)
}
