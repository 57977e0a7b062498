/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"

	"github.com/valpere/subtran/internal/orchestrator"
)

// progress reports batch events on stderr: a progress bar on a terminal,
// log lines otherwise.
type progress struct {
	out    io.Writer
	tty    bool
	logger *zap.Logger

	bar   *progressbar.ProgressBar
	done  int
	total int
}

func newProgress(out *os.File, logger *zap.Logger) *progress {
	return &progress{out: out, tty: isTerminal(out), logger: logger}
}

func isTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// start resets the counters for a batch of total entries.
func (p *progress) start(total int, label string) {
	p.done = 0
	p.total = total
	if !p.tty {
		return
	}
	p.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(p.out),
		progressbar.OptionSetDescription(label),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionClearOnFinish(),
	)
}

func (p *progress) EntryUpdated(u orchestrator.Update) {
	switch u.Phase {
	case orchestrator.PhaseRetrying:
		if p.bar != nil {
			p.bar.Describe(fmt.Sprintf("cue %d: retry %d", u.EntryID, u.Attempt+1))
		}
	case orchestrator.PhaseDone:
		p.done++
		if p.bar != nil {
			_ = p.bar.Add(1)
			return
		}
		fields := []zap.Field{zap.Int("entry", u.EntryID), zap.Int("done", p.done), zap.Int("total", p.total)}
		if u.Err != nil {
			p.logger.Info("cue failed", append(fields, zap.String("kind", string(u.Err.Kind)))...)
			return
		}
		p.logger.Info("cue translated", fields...)
	}
}

func (p *progress) BatchChanged(s orchestrator.State) {
	switch s.Status {
	case orchestrator.StatusRunning:
		if s.HasCurrent && p.bar != nil {
			p.bar.Describe(fmt.Sprintf("cue %d", s.Current))
		}
	case orchestrator.StatusIdle, orchestrator.StatusCancelled:
		if p.bar != nil {
			_ = p.bar.Finish()
			p.bar = nil
		}
	}
}
