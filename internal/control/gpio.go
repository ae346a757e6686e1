package control

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"
)

// GpioHandler receives GPIO wake events.
type GpioHandler interface {
	OnGpioWake()
}

// GpioMonitor polls a GPIO pin via sysfs for a falling-edge wake button,
// used as an alternative control surface on embedded targets without a
// terminal.
type GpioMonitor struct {
	pin          int
	pollInterval time.Duration
	handler      GpioHandler

	ctx    context.Context
	cancel context.CancelFunc
}

// NewGpioMonitor creates a new GPIO monitor on pin, polled every
// pollInterval.
func NewGpioMonitor(parentCtx context.Context, pin int, pollInterval time.Duration, handler GpioHandler) *GpioMonitor {
	ctx, cancel := context.WithCancel(parentCtx)
	return &GpioMonitor{pin: pin, pollInterval: pollInterval, handler: handler, ctx: ctx, cancel: cancel}
}

// Start exports and begins polling the pin.
func (gm *GpioMonitor) Start() error {
	if err := gm.initGpio(); err != nil {
		return fmt.Errorf("initialize gpio %d: %w", gm.pin, err)
	}
	go gm.monitorLoop()
	log.Printf("control: gpio monitor started on pin %d (poll %v)", gm.pin, gm.pollInterval)
	return nil
}

// Stop stops polling.
func (gm *GpioMonitor) Stop() error {
	gm.cancel()
	return nil
}

func (gm *GpioMonitor) initGpio() error {
	pinStr := fmt.Sprintf("%d", gm.pin)
	gpioDir := fmt.Sprintf("/sys/class/gpio/gpio%d", gm.pin)

	if _, err := os.Stat(gpioDir); os.IsNotExist(err) {
		if err := os.WriteFile("/sys/class/gpio/export", []byte(pinStr), 0644); err != nil {
			return fmt.Errorf("export gpio %d: %w", gm.pin, err)
		}
		time.Sleep(50 * time.Millisecond)
	}

	directionPath := fmt.Sprintf("%s/direction", gpioDir)
	if err := os.WriteFile(directionPath, []byte("in"), 0644); err != nil {
		return fmt.Errorf("set gpio %d direction: %w", gm.pin, err)
	}
	return nil
}

func (gm *GpioMonitor) readGpioValue() (int, error) {
	valuePath := fmt.Sprintf("/sys/class/gpio/gpio%d/value", gm.pin)
	data, err := os.ReadFile(valuePath)
	if err != nil {
		return -1, err
	}
	if strings.TrimSpace(string(data)) == "0" {
		return 0, nil
	}
	return 1, nil
}

func (gm *GpioMonitor) monitorLoop() {
	ticker := time.NewTicker(gm.pollInterval)
	defer ticker.Stop()

	prevState, err := gm.readGpioValue()
	if err != nil {
		log.Printf("control: read initial gpio state: %v", err)
		prevState = 1
	}

	for {
		select {
		case <-gm.ctx.Done():
			return
		case <-ticker.C:
			currentState, err := gm.readGpioValue()
			if err != nil {
				log.Printf("control: read gpio value: %v", err)
				continue
			}
			if prevState == 1 && currentState == 0 {
				gm.handler.OnGpioWake()
			}
			prevState = currentState
		}
	}
}
