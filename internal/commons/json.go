package commons

import (
	"encoding/json"
	"log"
	"math"
	"net/http"
)

type errorResponse struct {
	Error string `json:"error"`
}

// RespondWithError logs server errors through logf when provided.
func RespondWithError(w http.ResponseWriter, code int, msg string, logf func(format string, v ...interface{})) {
	if code > 499 && logf != nil {
		logf("responding with %d error: %s", code, msg)
	}
	RespondWithJSON(w, code, errorResponse{
		Error: msg,
	})
}

func RespondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	dat, err := json.Marshal(payload)
	if err != nil {
		log.Printf("error marshalling JSON: %s", err)
		w.WriteHeader(500)
		return
	}
	w.WriteHeader(code)
	w.Write(dat)
}

// RoundForDisplay rounds a rate for on-screen display. Exports stay unrounded.
func RoundForDisplay(v float64) float64 {
	p := math.Pow10(DisplayPrecision)
	return math.Round(v*p) / p
}
