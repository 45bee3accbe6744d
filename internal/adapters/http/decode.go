package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/carelink/mission-service/internal/application"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const maxBodyBytes = 16 << 20

// verificationBody accepts coordinates and consent either as JSON scalars or as
// strings, the way mobile forms post them.
type verificationBody struct {
	Latitude       json.RawMessage `json:"latitude"`
	Longitude      json.RawMessage `json:"longitude"`
	Consent        json.RawMessage `json:"consent"`
	ProofPhotoData string          `json:"proofPhotoData"`
	SignatureData  string          `json:"signatureData"`
}

func (b verificationBody) toInput() application.VerificationInput {
	return application.VerificationInput{
		Latitude:       flexibleFloat(b.Latitude),
		Longitude:      flexibleFloat(b.Longitude),
		Consent:        flexibleBool(b.Consent),
		ProofPhotoData: b.ProofPhotoData,
		SignatureData:  b.SignatureData,
	}
}

func flexibleFloat(raw json.RawMessage) *float64 {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var v float64
	if err := json.Unmarshal(raw, &v); err != nil {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil
		}
		parsed, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return nil
		}
		v = parsed
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func flexibleBool(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return false
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return b
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n == 1
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "true", "1", "on", "yes":
			return true
		}
	}
	return false
}

// decodeJSON treats an empty body as an empty object.
func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(out)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func uuidParam(r *http.Request, name string) (uuid.UUID, error) {
	return uuid.Parse(chi.URLParam(r, name))
}

func intQuery(r *http.Request, name string) int {
	n, _ := strconv.Atoi(r.URL.Query().Get(name))
	return n
}
