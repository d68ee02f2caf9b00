package controller

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	ctypes "github.com/arcadenet/voteguard/app/guard/controller/types"
	"github.com/arcadenet/voteguard/pkg/engine"
	enginetypes "github.com/arcadenet/voteguard/pkg/engine/types"
)

// blockRetryAfterSeconds is the advisory back-off returned on 429.
const blockRetryAfterSeconds = 300

// HandleVote classifies a submitted vote.
// Endpoint: POST /votes
//
// 400 on shape errors (missing params, bad polarity), 429 on a block
// decision, 200 with the analysis attached for accept and flag.
func (c *Controller) HandleVote(w http.ResponseWriter, r *http.Request) {
	var req ctypes.VoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	analysis, err := c.App.Engine.Classify(req.Event())
	if err != nil {
		var missing *engine.MissingParamsError
		switch {
		case errors.As(err, &missing):
			writeJSON(w, http.StatusBadRequest, ctypes.MissingParamsResponse{
				Error:   "MissingParams",
				Missing: missing.Fields,
			})
		case errors.Is(err, engine.ErrInvalidPolarity):
			writeError(w, http.StatusBadRequest, "InvalidPolarity")
		default:
			writeError(w, http.StatusInternalServerError, "classification failed")
		}
		return
	}

	if analysis.Decision == enginetypes.DecisionBlock {
		w.Header().Set("Retry-After", strconv.Itoa(blockRetryAfterSeconds))
		writeJSON(w, http.StatusTooManyRequests, ctypes.BlockedResponse{
			Error:             "Blocked",
			Reasons:           analysis.Reasons(),
			RiskScore:         analysis.RiskScore,
			RetryAfterSeconds: blockRetryAfterSeconds,
		})
		return
	}

	writeJSON(w, http.StatusOK, ctypes.VoteResponse{
		Decision:  string(analysis.Decision),
		RiskScore: analysis.RiskScore,
		Findings:  analysis.Findings,
	})
}
