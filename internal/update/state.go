package update

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
)

// uiState is the small piece of interface state that survives restarts:
// which view was open and which workspace was active.
type uiState struct {
	LastView        string `json:"last_view"`
	ActiveWorkspace string `json:"active_workspace"`
}

func (m *Model) persistUIState() error {
	if strings.TrimSpace(m.stateFilePath) == "" {
		return nil
	}
	dir := filepath.Dir(m.stateFilePath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	payload, err := json.MarshalIndent(uiState{
		LastView:        string(m.CurrentView),
		ActiveWorkspace: m.ActiveWorkspace,
	}, "", "  ")
	if err != nil {
		return err
	}
	tmp := m.stateFilePath + ".tmp"
	if err := os.WriteFile(tmp, append(payload, '\n'), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, m.stateFilePath)
}

func loadUIState(path string) (uiState, error) {
	var out uiState
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return out, nil
	}
	raw, err := os.ReadFile(trimmed)
	if err != nil {
		if os.IsNotExist(err) {
			return out, nil
		}
		return out, err
	}
	if strings.TrimSpace(string(raw)) == "" {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, err
	}
	return out, nil
}
