package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/shopspring/decimal"
)

// flexString accepts a JSON string or a bare number, so clients may
// send "amount": 12.5 as well as "amount": "12,50". Numbers in exponent
// form are written out in plain decimal notation.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*f = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("expected a string or number, got %s", data)
		}
		d, err := decimal.NewFromString(n.String())
		if err != nil {
			return fmt.Errorf("expected a string or number, got %s", data)
		}
		*f = flexString(d.String())
	}
	return nil
}

type transactionRequest struct {
	Type     string     `json:"type"`
	Amount   flexString `json:"amount"`
	Date     string     `json:"date"`
	Category string     `json:"category"`
	Note     string     `json:"note"`
	Notes    string     `json:"notes"`
}

// notes prefers "notes" and falls back to the legacy "note" field.
func (r transactionRequest) notes() string {
	if r.Notes != "" {
		return r.Notes
	}
	return r.Note
}

type budgetRequest struct {
	Month    string     `json:"month"`
	Category string     `json:"category"`
	Amount   flexString `json:"amount"`
}

var errEmptyBody = errors.New("request body is empty")

// decodeJSON reads one JSON object from the request body, capped at
// maxBodyBytes.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		return err
	}
	return nil
}
