package vision

import (
	"context"
	"encoding/json"
	"os"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/skyledger/flightlog/pkg/flightlog"
	"github.com/skyledger/flightlog/pkg/jsonutil"
	"github.com/skyledger/flightlog/pkg/logging"
	"github.com/skyledger/flightlog/pkg/retry"
)

// AgentConfig configures the extraction agent.
type AgentConfig struct {
	Concurrency int           // concurrent page requests (default 10)
	Timeout     time.Duration // per-request ceiling (default 2m)
	Retry       *retry.Config // nil uses retry defaults
}

// Agent turns page images into flight-log entries, one vision request per
// page, with per-page failure isolation.
type Agent struct {
	client Client
	cfg    AgentConfig
	logger *zap.Logger
}

// NewAgent creates an extraction agent.
func NewAgent(client Client, cfg AgentConfig, logger *zap.Logger) *Agent {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 10
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Minute
	}
	return &Agent{
		client: client,
		cfg:    cfg,
		logger: logger.Named("vision"),
	}
}

// rawEntry mirrors the response schema with flexible field types: the model
// sometimes emits a bare number where the schema says string.
type rawEntry struct {
	Date                 json.RawMessage `json:"date"`
	From                 json.RawMessage `json:"from"`
	To                   json.RawMessage `json:"to"`
	AircraftRegistration json.RawMessage `json:"aircraft_registration"`
	Passengers           json.RawMessage `json:"passengers"`
	FlightNumber         json.RawMessage `json:"flight_number"`
}

// ExtractPage runs one page through the vision service. A transport or API
// failure sets the result's Error and yields zero entries; a response that
// cannot be parsed yields zero entries with the raw text retained but is
// NOT a page error - malformed output is expected, not exceptional.
func (a *Agent) ExtractPage(ctx context.Context, imagePath string, pageNumber int) flightlog.PageExtractionResult {
	result := flightlog.PageExtractionResult{
		PageNumber: pageNumber,
		ImagePath:  imagePath,
		Entries:    []flightlog.FlightLogEntry{},
	}

	imageData, err := os.ReadFile(imagePath)
	if err != nil {
		result.Error = err.Error()
		a.logger.Warn("page image unreadable",
			zap.Int("page", pageNumber),
			zap.Error(err))
		return result
	}

	raw, err := retry.DoWithResult(ctx, a.cfg.Retry, func() (string, error) {
		reqCtx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
		defer cancel()
		return a.client.Describe(reqCtx, imageData, MediaTypeForImage(imagePath), extractionInstruction)
	})
	if err != nil {
		result.Error = logging.SanitizeError(err)
		a.logger.Warn("page extraction failed",
			zap.Int("page", pageNumber),
			zap.String("error", result.Error))
		return result
	}

	result.RawResponse = raw

	entries, parseErr := parseEntries(raw)
	if parseErr != nil {
		a.logger.Warn("page response unparseable, keeping raw text",
			zap.Int("page", pageNumber),
			zap.String("response", logging.TruncateString(raw, 200)),
			zap.Error(parseErr))
		return result
	}

	for i := range entries {
		entries[i].SourcePage = pageNumber
	}
	result.Entries = entries

	a.logger.Debug("page extracted",
		zap.Int("page", pageNumber),
		zap.Int("entries", len(entries)))

	return result
}

// ExtractAll processes all page images under the configured concurrency
// cap. The page number of imagePaths[i] is firstPage+i. The returned slice
// has exactly one result per image, sorted by page number; completion order
// of the underlying requests is not guaranteed.
func (a *Agent) ExtractAll(ctx context.Context, imagePaths []string, firstPage int, onProgress func(completed, total int)) []flightlog.PageExtractionResult {
	if firstPage < 1 {
		firstPage = 1
	}

	items := make([]WorkItem[flightlog.PageExtractionResult], len(imagePaths))
	for i, path := range imagePaths {
		page := firstPage + i
		imagePath := path
		items[i] = WorkItem[flightlog.PageExtractionResult]{
			ID: page,
			Execute: func(ctx context.Context) (flightlog.PageExtractionResult, error) {
				return a.ExtractPage(ctx, imagePath, page), nil
			},
		}
	}

	a.logger.Info("starting extraction",
		zap.Int("pages", len(items)),
		zap.Int("concurrency", a.cfg.Concurrency),
		zap.String("model", a.client.Model()))

	raw := RunPool(ctx, PoolConfig{MaxConcurrent: a.cfg.Concurrency}, items, onProgress)

	results := make([]flightlog.PageExtractionResult, 0, len(raw))
	for _, r := range raw {
		if r.Err != nil {
			// Only the pool's cancellation path reports through Err;
			// ExtractPage itself never fails.
			results = append(results, flightlog.PageExtractionResult{
				PageNumber: r.ID,
				ImagePath:  imagePaths[r.ID-firstPage],
				Entries:    []flightlog.FlightLogEntry{},
				Error:      r.Err.Error(),
			})
			continue
		}
		results = append(results, r.Result)
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].PageNumber < results[j].PageNumber
	})

	return results
}

// parseEntries extracts the JSON array from the raw response and maps it
// onto flight-log entries.
func parseEntries(raw string) ([]flightlog.FlightLogEntry, error) {
	rawEntries, err := jsonutil.ParseArray[rawEntry](raw)
	if err != nil {
		return nil, err
	}

	entries := make([]flightlog.FlightLogEntry, 0, len(rawEntries))
	for _, re := range rawEntries {
		entries = append(entries, flightlog.FlightLogEntry{
			Date:                 strings.TrimSpace(jsonutil.FlexibleString(re.Date)),
			From:                 strings.TrimSpace(jsonutil.FlexibleString(re.From)),
			To:                   strings.TrimSpace(jsonutil.FlexibleString(re.To)),
			AircraftRegistration: strings.TrimSpace(jsonutil.FlexibleString(re.AircraftRegistration)),
			Passengers:           strings.TrimSpace(jsonutil.FlexibleString(re.Passengers)),
			FlightNumber:         strings.TrimSpace(jsonutil.FlexibleString(re.FlightNumber)),
		})
	}
	return entries, nil
}
