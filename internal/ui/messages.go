package ui

import (
	"context"
	"fmt"
	"io"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/yusukeinoue-jpg/lime-tool/internal/models"
	"github.com/yusukeinoue-jpg/lime-tool/internal/retrieval"
)

// SnapshotOpener opens the fleet snapshot to process
type SnapshotOpener func() (io.ReadCloser, error)

// resultMsg is sent when the pipeline finishes
type resultMsg struct {
	result retrieval.Result
}

// errMsg is a message type for errors
type errMsg struct {
	err error
}

// runPipeline loads the snapshot and matches it in the background
func runPipeline(svc *retrieval.Service, open SnapshotOpener, ports []models.ReferencePort) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		f, err := open()
		if err != nil {
			return errMsg{err: fmt.Errorf("opening snapshot: %w", err)}
		}
		defer f.Close()

		return resultMsg{result: svc.Run(ctx, f, ports)}
	}
}
