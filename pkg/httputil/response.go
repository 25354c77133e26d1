package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/cwrk-planet/room-chat/pkg/errs"
	"github.com/cwrk-planet/room-chat/pkg/logger"
)

// ErrorBody: единый формат ошибки API.
type ErrorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("write json response failed", slog.Any("err", err))
	}
}

// Error maps err to a status and a machine-checkable kind. Internal errors are
// logged and hidden from the client.
func Error(ctx context.Context, w http.ResponseWriter, err error) {
	status := errs.ToHTTP(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		logger.Ctx(ctx).Error("request failed", "status", status, "err", err)
		if status == http.StatusInternalServerError {
			msg = "internal error"
		}
	}
	JSON(w, status, ErrorBody{Error: msg, Kind: string(errs.KindOf(err))})
}

// DecodeJSON reads a JSON body into dst. An empty body leaves dst untouched.
func DecodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(dst)
	if err != nil && !errors.Is(err, io.EOF) {
		return errs.ErrInvalidInput
	}
	return nil
}
