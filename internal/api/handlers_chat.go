package api

import (
	"encoding/json"
	"net/http"

	"github.com/inauto/garage-booking/internal/chatbot"
)

func chatHandler(responder *chatbot.Responder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		intent, reply := responder.Reply(req.Message)
		writeJSON(w, http.StatusOK, ChatResponse{
			Intent: string(intent),
			Reply:  reply,
		})
	}
}
