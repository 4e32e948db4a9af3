package authapi

import (
	"net/http"

	"skygate/cmd/internal/producer"
)

// handleDashboard runs the producer for an authenticated caller and reports
// whether the upstream flight API answered.
func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	res, err := h.producer.Run(r.Context())
	if err != nil {
		h.log.Error("producer.dashboard.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "producer_failed", msgDashboardFailed)
		return
	}

	switch res.Outcome {
	case producer.OutcomeReady:
		writeMessage(w, http.StatusOK, msgDashboardReady)
	case producer.OutcomeCompleted:
		writeMessage(w, http.StatusOK, msgProducerNoMarker)
	default:
		h.log.Error("producer.dashboard.exit", "exit_code", res.ExitCode)
		writeError(w, http.StatusInternalServerError, "producer_failed", msgDashboardFailed)
	}
}

func (h *Handler) handleStartProducer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	res, err := h.producer.Run(r.Context())
	if err != nil {
		h.log.Error("producer.start_endpoint.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "producer_failed", msgProducerFailed)
		return
	}

	switch res.Outcome {
	case producer.OutcomeReady:
		writeMessage(w, http.StatusOK, msgProducerReady)
	case producer.OutcomeCompleted:
		writeMessage(w, http.StatusOK, msgProducerNoMarker)
	default:
		h.log.Error("producer.start_endpoint.exit", "exit_code", res.ExitCode)
		writeError(w, http.StatusInternalServerError, "producer_failed", msgProducerFailed)
	}
}
