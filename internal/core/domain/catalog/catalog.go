package catalog

import (
	"encoding/json"
	"net/http"
)

// EnvelopeStatusSuccess is the only upstream status value that counts as
// success; anything else is a failed envelope.
const EnvelopeStatusSuccess = "success"

// Envelope is the raw wrapper the upstream content API returns. Data is kept
// as raw bytes so payloads pass through untouched.
type Envelope struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
}

func (e *Envelope) IsSuccess() bool {
	return e.Status == EnvelopeStatusSuccess
}

// Shape selects which payload key a Response carries. The frontend expects
// the homepage payload under "data" and everything else under "results".
type Shape int

const (
	ShapeResults Shape = iota
	ShapeData
)

// Response is the stable contract this server guarantees to its clients.
// Exactly one of Results/Data is set on success; neither on failure.
type Response struct {
	Status  int             `json:"status"`
	Success bool            `json:"success"`
	Results json.RawMessage `json:"results,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// ErrorResponse is the uniform failure envelope every route falls back to.
type ErrorResponse struct {
	Status  int    `json:"status"`
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

func NewErrorResponse(message string, err error) *ErrorResponse {
	detail := ""
	if err != nil {
		detail = err.Error()
	}
	return &ErrorResponse{
		Status:  http.StatusInternalServerError,
		Success: false,
		Message: message,
		Error:   detail,
	}
}

// Transform normalizes an upstream envelope into the frontend contract.
// Pure: no I/O, deterministic, and the payload bytes are passed through
// verbatim. A success envelope with a null data field stays a success with a
// literal null payload.
func Transform(env *Envelope, shape Shape) *Response {
	if !env.IsSuccess() {
		return &Response{Status: http.StatusInternalServerError, Success: false}
	}

	payload := env.Data
	if len(payload) == 0 {
		payload = json.RawMessage("null")
	}

	resp := &Response{Status: http.StatusOK, Success: true}
	if shape == ShapeData {
		resp.Data = payload
	} else {
		resp.Results = payload
	}
	return resp
}

// ProcessedSource is one entry of the upstream "processedSources" list. The
// ID is kept raw because upstream is inconsistent about numeric vs string
// identifiers.
type ProcessedSource struct {
	ID        json.RawMessage `json:"id"`
	Quality   json.Number     `json:"quality"`
	ProxyURL  string          `json:"proxyUrl"`
	DirectURL string          `json:"directUrl"`
	Size      json.Number     `json:"size"`
	Format    string          `json:"format"`
}

// Source is the descriptor handed to the player. Both download and stream
// URLs point at the upstream proxy URL so direct origin URLs are never
// exposed; the origin URL is retained only as original_url.
type Source struct {
	ID          json.RawMessage `json:"id"`
	Quality     string          `json:"quality"`
	DownloadURL string          `json:"download_url"`
	StreamURL   string          `json:"stream_url"`
	OriginalURL string          `json:"original_url"`
	Size        json.Number     `json:"size"`
	Format      string          `json:"format"`
}

type sourcesPayload struct {
	ProcessedSources []ProcessedSource `json:"processedSources"`
}

// MapSources converts a success envelope into the source list for the
// player. A success payload without a processedSources list is an empty
// result, not an error. ok is false only for a non-success envelope.
func MapSources(env *Envelope) (sources []Source, ok bool) {
	if !env.IsSuccess() {
		return nil, false
	}

	sources = []Source{}
	if len(env.Data) == 0 {
		return sources, true
	}

	var payload sourcesPayload
	if err := json.Unmarshal(env.Data, &payload); err != nil {
		// Malformed payload degrades to an empty result.
		return sources, true
	}

	for _, ps := range payload.ProcessedSources {
		format := ps.Format
		if format == "" {
			format = "mp4"
		}
		size := ps.Size
		if size == "" {
			// an empty json.Number would not re-marshal
			size = "0"
		}
		sources = append(sources, Source{
			ID:          ps.ID,
			Quality:     ps.Quality.String() + "p",
			DownloadURL: ps.ProxyURL,
			StreamURL:   ps.ProxyURL,
			OriginalURL: ps.DirectURL,
			Size:        size,
			Format:      format,
		})
	}
	return sources, true
}
