package main

import (
	"os"
	"path/filepath"
	"strings"
)

// ScanTracker records the last date a scheduled scan completed
type ScanTracker struct {
	stateFile string
}

// NewScanTracker creates a new tracker with the given state file path
func NewScanTracker(stateFile string) *ScanTracker {
	return &ScanTracker{stateFile: stateFile}
}

// LastScanDate reads the last completed scan date from the state file
func (t *ScanTracker) LastScanDate() string {
	data, err := os.ReadFile(t.stateFile)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// SetLastScanDate writes the date to the state file
func (t *ScanTracker) SetLastScanDate(date string) error {
	dir := filepath.Dir(t.stateFile)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return err
	}
	return os.WriteFile(t.stateFile, []byte(date+"\n"), 0600)
}

// AlreadyScanned checks if the given date was already scanned
func (t *ScanTracker) AlreadyScanned(date string) bool {
	return t.LastScanDate() == date
}
