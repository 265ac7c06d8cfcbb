package fl

import "errors"

var ErrInvalidWorkerLosses = errors.New("invalid worker_losses")
