package execute

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/cdgriffith/pi-streaming-setup/internal/logging"
)

type exitReason int

const (
	exitReasonProcessExit exitReason = iota
	exitReasonShutdown
	exitReasonRestart
)

// Process manages the lifecycle of a long-running subprocess (the ffmpeg
// invocation in foreground mode): graceful shutdown on SIGINT/SIGTERM and
// restart with a replacement command when configuration changes.
type Process struct {
	command         string
	commandMu       sync.RWMutex
	cmd             *exec.Cmd
	logger          logging.Logger
	outputLogger    logging.Logger
	ctx             context.Context
	cancel          context.CancelFunc
	restartChan     chan string
	gracefulTimeout time.Duration
	killTimeout     time.Duration
}

// NewProcess creates a supervised process for the given command line.
// Subprocess output is forwarded line by line to outputLogger.
func NewProcess(command string, logger, outputLogger logging.Logger) *Process {
	ctx, cancel := context.WithCancel(context.Background())
	return &Process{
		command:         command,
		logger:          logger,
		outputLogger:    outputLogger,
		ctx:             ctx,
		cancel:          cancel,
		restartChan:     make(chan string, 1),
		gracefulTimeout: 5 * time.Second,
		killTimeout:     5 * time.Second,
	}
}

// Command returns the current command line.
func (p *Process) Command() string {
	p.commandMu.RLock()
	defer p.commandMu.RUnlock()
	return p.command
}

// RequestRestart requests a restart with a new command.
// Non-blocking: if a restart is already pending, this is a no-op.
func (p *Process) RequestRestart(newCommand string) {
	select {
	case p.restartChan <- newCommand:
		p.logger.Info("Restart requested")
	default:
		p.logger.Warn("Restart already pending, ignoring")
	}
}

// Shutdown triggers a graceful shutdown of the process.
func (p *Process) Shutdown() {
	p.cancel()
}

// RunWithRestart runs the subprocess, restarting it on RequestRestart.
// Returns the final exit code on shutdown or unexpected process exit.
func (p *Process) RunWithRestart() int {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	for {
		exitCode, reason := p.runOnce(sigChan)
		switch reason {
		case exitReasonShutdown:
			p.logger.Info("Shutdown complete", "exit_code", exitCode)
			return exitCode
		case exitReasonRestart:
			p.logger.Info("Restarting process")
		case exitReasonProcessExit:
			p.logger.Info("Process exited", "exit_code", exitCode)
			return exitCode
		}
	}
}

type runningProcess struct {
	processDone <-chan error
	outputDone  chan struct{} // receives twice, once per stream
}

func (p *Process) runOnce(sigChan <-chan os.Signal) (int, exitReason) {
	rp, err := p.start(p.Command())
	if err != nil {
		return 1, exitReasonProcessExit
	}
	defer func() {
		<-rp.outputDone
		<-rp.outputDone
	}()

	select {
	case <-p.ctx.Done():
		p.logger.Info("Context cancelled, shutting down process")
		p.sendStopSignal()
		return p.waitForExit(rp.processDone), exitReasonShutdown

	case sig := <-sigChan:
		p.logger.Info("Received shutdown signal", "signal", sig.String())
		p.sendStopSignal()
		return p.waitForExit(rp.processDone), exitReasonShutdown

	case newCmd := <-p.restartChan:
		p.sendStopSignal()
		p.commandMu.Lock()
		p.command = newCmd
		p.commandMu.Unlock()
		return p.waitForExit(rp.processDone), exitReasonRestart

	case processErr := <-rp.processDone:
		return exitCodeFromError(processErr), exitReasonProcessExit
	}
}

func (p *Process) start(command string) (*runningProcess, error) {
	args, err := parseCommand(command)
	if err != nil {
		p.logger.Error("Failed to parse command", "error", err)
		return nil, err
	}
	if len(args) == 0 {
		return nil, errors.New("empty command")
	}

	p.cmd = exec.Command(args[0], args[1:]...)
	p.cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	stdout, err := p.cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	stderr, err := p.cmd.StderrPipe()
	if err != nil {
		return nil, err
	}

	if startErr := p.cmd.Start(); startErr != nil {
		p.logger.Error("Failed to start process", "error", startErr, "command", command)
		return nil, startErr
	}
	p.logger.Info("Process started", "pid", p.cmd.Process.Pid)

	outputDone := make(chan struct{}, 2)
	go func() {
		p.streamOutput(stdout, "stdout")
		outputDone <- struct{}{}
	}()
	go func() {
		p.streamOutput(stderr, "stderr")
		outputDone <- struct{}{}
	}()

	processDone := make(chan error, 1)
	go func() {
		processDone <- p.cmd.Wait()
	}()

	return &runningProcess{processDone: processDone, outputDone: outputDone}, nil
}

func (p *Process) sendStopSignal() {
	if p.cmd == nil || p.cmd.Process == nil {
		return
	}
	if err := p.cmd.Process.Signal(syscall.SIGINT); err != nil {
		p.logger.Warn("Failed to send SIGINT", "error", err)
	}
}

func (p *Process) waitForExit(processDone <-chan error) int {
	select {
	case err := <-processDone:
		return exitCodeFromError(err)
	case <-time.After(p.gracefulTimeout):
		p.logger.Warn("Graceful shutdown timeout, forcing kill", "timeout", p.gracefulTimeout)
		if p.cmd.Process != nil {
			if err := p.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
				p.logger.Error("Failed to kill process", "error", err)
			}
		}
		select {
		case <-processDone:
		case <-time.After(p.killTimeout):
			p.logger.Error("Process did not exit after kill signal")
		}
		return 137
	}
}

func (p *Process) streamOutput(reader io.Reader, source string) {
	scanner := bufio.NewScanner(reader)
	for scanner.Scan() {
		p.outputLogger.Info(scanner.Text(), "source", source)
	}
	if err := scanner.Err(); err != nil {
		p.logger.Warn("Error reading output", "source", source, "error", err)
	}
}

func exitCodeFromError(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return 1
}
