package errprocess

import (
	"errors"

	"pgfinder_chat_session/pkg/logger"
)

// Set set err info
func Set(errMsg string) error {
	logger.Log.Error(errMsg)
	return errors.New(errMsg)
}
