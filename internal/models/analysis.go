package models

import (
	"strings"
	"time"
)

const (
	DefaultDeviceID = "default"
	StreamPrefix    = "stream_"
)

// AnalysisRecord is one persisted analysis. Records are append-only.
type AnalysisRecord struct {
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	FramePath string    `json:"frame_path"`
	Prompt    string    `json:"prompt"`
	Result    string    `json:"result"`
	DeviceID  string    `json:"device_id"`
}

func NewAnalysisRecord(ts time.Time, framePath, prompt, result, deviceID string) *AnalysisRecord {
	return &AnalysisRecord{
		Timestamp: ts.UTC(),
		FramePath: framePath,
		Prompt:    prompt,
		Result:    result,
		DeviceID:  deviceID,
	}
}

// HistoryQuery selects history records. StreamsOnly wins over DeviceID.
type HistoryQuery struct {
	DeviceID    string
	StreamsOnly bool
}

// StreamDeviceID namespaces a device id for live-snapshot records.
func StreamDeviceID(deviceID string) string {
	if deviceID == "" {
		deviceID = DefaultDeviceID
	}
	if strings.HasPrefix(deviceID, StreamPrefix) {
		return deviceID
	}
	return StreamPrefix + deviceID
}

// NormalizeDeviceID maps an empty id to the default device.
func NormalizeDeviceID(deviceID string) string {
	deviceID = strings.TrimSpace(deviceID)
	if deviceID == "" {
		return DefaultDeviceID
	}
	return deviceID
}
