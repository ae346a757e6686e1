// Package control implements the operator-facing control surface that
// starts and stops a capture+encode session: a polled control file, a
// stdin debug console, and an optional GPIO wake button.
package control

import (
	"bytes"
	"context"
	"io/ioutil"
	"log"
	"time"

	"github.com/duskcast/streampipe/internal/config"
)

// Command is a control command read off one of the monitors.
type Command string

const (
	CmdStartCapture Command = "1"
	CmdStopCapture  Command = "2"
	CmdQuit         Command = "q"
)

// Handler receives control commands.
type Handler interface {
	HandleCommand(cmd Command)
}

// FileMonitor polls a control file for a single-character command,
// clearing it once handled.
type FileMonitor struct {
	config  *config.ControlConfig
	handler Handler

	ctx    context.Context
	cancel context.CancelFunc
}

// NewFileMonitor creates a new file monitor.
func NewFileMonitor(cfg *config.ControlConfig, handler Handler) *FileMonitor {
	ctx, cancel := context.WithCancel(context.Background())
	return &FileMonitor{config: cfg, handler: handler, ctx: ctx, cancel: cancel}
}

// Start initializes the control file and begins polling.
func (fm *FileMonitor) Start() error {
	if err := fm.initControlFile(); err != nil {
		return err
	}
	go fm.monitorLoop()
	return nil
}

// Stop stops polling.
func (fm *FileMonitor) Stop() error {
	fm.cancel()
	return nil
}

func (fm *FileMonitor) initControlFile() error {
	return ioutil.WriteFile(fm.config.FilePath, []byte{}, 0644)
}

func (fm *FileMonitor) monitorLoop() {
	ticker := time.NewTicker(fm.config.MonitorDelay)
	defer ticker.Stop()

	var lastCmd string
	for {
		select {
		case <-fm.ctx.Done():
			return
		case <-ticker.C:
			if err := fm.checkFile(&lastCmd); err != nil {
				log.Printf("control: check control file: %v", err)
			}
		}
	}
}

func (fm *FileMonitor) checkFile(lastCmd *string) error {
	content, err := ioutil.ReadFile(fm.config.FilePath)
	if err != nil {
		return err
	}

	current := string(bytes.TrimSpace(content))
	if current == "" || current == *lastCmd {
		return nil
	}
	*lastCmd = current

	fm.handler.HandleCommand(Command(current))

	if err := ioutil.WriteFile(fm.config.FilePath, []byte{}, 0644); err != nil {
		log.Printf("control: clear control file: %v", err)
	}
	return nil
}
