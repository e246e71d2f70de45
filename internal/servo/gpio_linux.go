//go:build linux

package servo

import (
	"errors"
	"fmt"
	"sync"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"

	logx "petfeeder/pkg/logx"
)

// Standard hobby servo timing: 50Hz frame, ~1ms pulse at one end of travel,
// ~2ms at the other.
const (
	servoFrequency = 50 * physic.Hertz
	restDutyFrac   = 0.05 // 1ms / 20ms
	openDutyFrac   = 0.10 // 2ms / 20ms
)

var hostOnce sync.Once
var hostErr error

type gpioDriver struct {
	pin gpio.PinIO
	log logx.Logger
}

func newGPIO(cfg Config, log logx.Logger) (Driver, error) {
	hostOnce.Do(func() {
		_, hostErr = host.Init()
	})
	if hostErr != nil {
		return nil, fmt.Errorf("periph host init: %w", hostErr)
	}

	pin := gpioreg.ByName(cfg.Pin)
	if pin == nil {
		return nil, errors.New("gpio pin not found: " + cfg.Pin)
	}

	d := &gpioDriver{pin: pin, log: log.With(logx.String("pin", pin.Name()))}
	// Park at rest so a restart mid-dispense doesn't leave the gate open.
	if err := d.Rest(); err != nil {
		return nil, err
	}
	return d, nil
}

func duty(frac float64) gpio.Duty {
	return gpio.Duty(float64(gpio.DutyMax) * frac)
}

func (d *gpioDriver) Open() error {
	return d.pin.PWM(duty(openDutyFrac), servoFrequency)
}

func (d *gpioDriver) Rest() error {
	return d.pin.PWM(duty(restDutyFrac), servoFrequency)
}

func (d *gpioDriver) Close() error {
	return d.pin.Halt()
}
