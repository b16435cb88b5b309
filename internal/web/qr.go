package web

import (
	"net/http"

	"github.com/skip2/go-qrcode"
	log "github.com/sirupsen/logrus"
)

const qrSize = 256

// handleQR renders a PNG QR code for a link this tool produced. Arbitrary
// URLs are refused so the endpoint cannot be used as a generic encoder.
func (s *Server) handleQR(w http.ResponseWriter, r *http.Request) {
	u := r.URL.Query().Get("u")
	if u == "" || len(u) > 2048 || !s.builder.Links.Owns(u) {
		writeJSONError(w, r, http.StatusBadRequest, "unsupported link")
		return
	}

	png, err := qrcode.Encode(u, qrcode.Medium, qrSize)
	if err != nil {
		log.WithError(err).Error("Encoding QR code")
		writeJSONError(w, r, http.StatusInternalServerError, "QR encode failed")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.Header().Set("Content-Disposition", "inline; filename=\"route.png\"")
	if _, err := w.Write(png); err != nil {
		log.WithError(err).Warn("Writing QR code")
	}
}
