package api

import (
	"fmt"

	"github.com/absmach/fldash/pkg/api"
	apiutil "github.com/absmach/supermq/api/http/util"
)

type historyReq struct {
	offset, limit uint64
}

func (req historyReq) validate() error {
	if req.limit > api.MaxLimitSize {
		return fmt.Errorf("%w: %d exceeds %d", apiutil.ErrLimitSize, req.limit, api.MaxLimitSize)
	}

	return nil
}
