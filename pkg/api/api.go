package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	pkgerrors "github.com/absmach/fldash/pkg/errors"
	"github.com/absmach/supermq"
	apiutil "github.com/absmach/supermq/api/http/util"
)

const (
	OffsetKey = "offset"
	LimitKey  = "limit"
	DefOffset = 0
	DefLimit  = 100

	ContentType = "application/json"

	MaxLimitSize = 1000
)

func EncodeResponse(_ context.Context, w http.ResponseWriter, response any) error {
	if ar, ok := response.(supermq.Response); ok {
		for k, v := range ar.Headers() {
			w.Header().Set(k, v)
		}
		w.Header().Set("Content-Type", ContentType)
		w.WriteHeader(ar.Code())

		if ar.Empty() {
			return nil
		}
	}

	return json.NewEncoder(w).Encode(response)
}

type errorRes struct {
	Err string `json:"error"`
}

func EncodeError(_ context.Context, err error, w http.ResponseWriter) {
	w.Header().Set("Content-Type", ContentType)
	switch {
	case errors.Is(err, apiutil.ErrValidation),
		errors.Is(err, pkgerrors.ErrValidation),
		errors.Is(err, pkgerrors.ErrInvalidData):
		w.WriteHeader(http.StatusBadRequest)
	case errors.Is(err, pkgerrors.ErrNotFound):
		w.WriteHeader(http.StatusNotFound)
	case errors.Is(err, pkgerrors.ErrUnavailable):
		w.WriteHeader(http.StatusServiceUnavailable)
	default:
		w.WriteHeader(http.StatusInternalServerError)
	}

	if err := json.NewEncoder(w).Encode(errorRes{Err: err.Error()}); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
	}
}
