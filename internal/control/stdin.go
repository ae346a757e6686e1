package control

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/duskcast/streampipe/internal/config"
)

// StdinMonitor is the stdin debug console.
type StdinMonitor struct {
	config  *config.ControlConfig
	handler Handler

	ctx    context.Context
	cancel context.CancelFunc
}

// NewStdinMonitor creates a new stdin monitor.
func NewStdinMonitor(parentCtx context.Context, cfg *config.ControlConfig, handler Handler) *StdinMonitor {
	ctx, cancel := context.WithCancel(parentCtx)
	return &StdinMonitor{config: cfg, handler: handler, ctx: ctx, cancel: cancel}
}

// Start begins reading commands from stdin.
func (sm *StdinMonitor) Start() error {
	go sm.monitorLoop()
	return nil
}

// Stop stops reading stdin.
func (sm *StdinMonitor) Stop() error {
	sm.cancel()
	return nil
}

func (sm *StdinMonitor) monitorLoop() {
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("\n=== streampipe debug console ===")
	fmt.Println("  1 or start - start capture+encode session")
	fmt.Println("  2 or stop  - stop session")
	fmt.Println("  q or quit  - exit")
	fmt.Println("=================================")

	for {
		select {
		case <-sm.ctx.Done():
			return
		default:
			fmt.Print("> ")
			input, err := reader.ReadString('\n')
			if err != nil {
				log.Printf("control: read stdin: %v", err)
				continue
			}
			input = strings.TrimSpace(input)
			if input == "" {
				continue
			}
			sm.processCommand(input)
		}
	}
}

func (sm *StdinMonitor) processCommand(input string) {
	input = strings.ToLower(input)

	var cmd Command
	switch input {
	case "1", "start":
		cmd = CmdStartCapture
	case "2", "stop":
		cmd = CmdStopCapture
	case "q", "quit", "exit":
		sm.handler.HandleCommand(CmdQuit)
		return
	default:
		fmt.Printf("unknown command: %s\n", input)
		return
	}
	sm.handler.HandleCommand(cmd)
}
