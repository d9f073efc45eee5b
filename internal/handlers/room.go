package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
	"github.com/skip2/go-qrcode"

	"github.com/partyroom/partyroom/backend/api-server/internal/service"
)

const qrSize = 320 // QRコード画像の一辺（px）

type RoomHandler struct {
	svc *service.RoomService
}

func NewRoomHandler(s *service.RoomService) *RoomHandler { return &RoomHandler{svc: s} }

// Get はルームの参加者と状態を返します（ルーム存在確認用）
func (h *RoomHandler) Get(w http.ResponseWriter, r *http.Request) {
	code := normalizeCode(chi.URLParam(r, "code"))
	if err := validateRoomCode(code); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	room, ok := h.svc.Get(r.Context(), code)
	if !ok {
		respondError(w, http.StatusNotFound, service.ErrRoomNotFound.Error())
		return
	}
	respondJSON(w, http.StatusOK, room)
}

// QR はルームコードを埋め込んだQRコードをPNGで返します
// joinパラメータが指定された場合は、コードの代わりに参加用URLを埋め込みます
func (h *RoomHandler) QR(w http.ResponseWriter, r *http.Request) {
	code := normalizeCode(chi.URLParam(r, "code"))
	if err := validateRoomCode(code); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if _, ok := h.svc.Get(r.Context(), code); !ok {
		respondError(w, http.StatusNotFound, service.ErrRoomNotFound.Error())
		return
	}

	content := code
	if base := r.URL.Query().Get("join"); base != "" {
		content = base + code
	}
	png, err := qrcode.Encode(content, qrcode.Medium, qrSize)
	if err != nil {
		log.Error().Err(err).Str("room", code).Msg("failed to encode qr code")
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(png); err != nil {
		log.Debug().Err(err).Msg("failed to write qr code")
	}
}
