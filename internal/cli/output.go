package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/shaiso/Pericortex/internal/pool"
)

// Output печатает результаты команд: данные в stdout (таблица или JSON),
// сообщения в stderr.
type Output struct {
	jsonMode bool
	w        io.Writer
	errW     io.Writer
}

// NewOutput создаёт Output поверх stdout/stderr.
func NewOutput(jsonMode bool) *Output {
	return &Output{jsonMode: jsonMode, w: os.Stdout, errW: os.Stderr}
}

// Success печатает сообщение об успешном действии.
func (o *Output) Success(msg string) {
	fmt.Fprintln(o.errW, msg)
}

// slotView — строка итогового отчёта по слоту.
type slotView struct {
	Slot      int    `json:"slot"`
	Identity  string `json:"identity"`
	Delivered int    `json:"delivered"`
	Empty     int    `json:"empty"`
	Failed    int    `json:"failed"`
	Aborted   int    `json:"aborted"`
	Duration  string `json:"duration"`
	Error     string `json:"error,omitempty"`
}

func newSlotView(s pool.SlotResult) slotView {
	v := slotView{
		Slot:      s.Ordinal,
		Identity:  s.Identity.String(),
		Delivered: s.Stats.Delivered,
		Empty:     s.Stats.Empty,
		Failed:    s.Stats.Failed,
		Aborted:   s.Stats.Aborted,
		Duration:  s.Duration.Round(time.Millisecond).String(),
	}
	if s.Err != nil {
		// стек паники остаётся в логе
		v.Error, _, _ = strings.Cut(s.Err.Error(), "\n")
	}
	return v
}

var reportColumns = []string{"SLOT", "IDENTITY", "DELIVERED", "EMPTY", "FAILED", "ABORTED", "DURATION", "ERROR"}

// Report печатает итог работы пула: по строке на слот и строку TOTAL.
// В JSON-режиме выводится массив слотов без итоговой строки.
func (o *Output) Report(report pool.Report) {
	views := make([]slotView, 0, len(report.Slots))
	for _, s := range report.Slots {
		views = append(views, newSlotView(s))
	}

	if o.jsonMode {
		enc := json.NewEncoder(o.w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(views); err != nil {
			fmt.Fprintln(o.errW, "Error:", err)
		}
		return
	}

	tw := tabwriter.NewWriter(o.w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(reportColumns, "\t"))

	var total slotView
	for _, v := range views {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%d\t%d\t%s\t%s\n",
			v.Slot, v.Identity, v.Delivered, v.Empty, v.Failed, v.Aborted, v.Duration, v.Error)

		total.Delivered += v.Delivered
		total.Empty += v.Empty
		total.Failed += v.Failed
		total.Aborted += v.Aborted
	}

	if len(views) > 1 {
		fmt.Fprintf(tw, "TOTAL\t\t%d\t%d\t%d\t%d\t\t%d failed slot(s)\n",
			total.Delivered, total.Empty, total.Failed, total.Aborted, len(report.Failures()))
	}

	tw.Flush()
}
