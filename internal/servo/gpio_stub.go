//go:build !linux

package servo

import (
	"errors"

	logx "petfeeder/pkg/logx"
)

func newGPIO(cfg Config, log logx.Logger) (Driver, error) {
	_ = cfg
	_ = log
	return nil, errors.New("gpio servo driver is only available on linux")
}
