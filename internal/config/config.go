// Package config loads and validates the Supervisor's configuration
// record: process identity, transport URIs, and per-Manager worker pool
// shape.
package config

import (
	"os"
	"strconv"

	jsoniter "github.com/json-iterator/go"

	"github.com/waveacq/rtadp/internal/cmn"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// SocketType names a transport pattern for a configured endpoint.
type SocketType string

const (
	SocketPushPull SocketType = "pushpull"
	SocketPubSub   SocketType = "pubsub"
	SocketCustom   SocketType = "custom"
	SocketNone     SocketType = "none"
)

// DataflowType names how a listener interprets an incoming message body.
type DataflowType string

const (
	DataflowBinary   DataflowType = "binary"
	DataflowFilename DataflowType = "filename"
	DataflowString   DataflowType = "string"
)

// ManagerConfig describes one WorkerManager: its worker pool shape and
// its result-publishing sockets.
type ManagerConfig struct {
	Name             string       `json:"name"`
	WorkerCount      int          `json:"worker_count"`
	WorkerNames      []string     `json:"worker_names,omitempty"`
	ResultSocketType SocketType   `json:"result_socket_type"`
	ResultDataflow   DataflowType `json:"result_dataflow_type"`
	ResultLPURI      string       `json:"result_lp_uri"`
	ResultHPURI      string       `json:"result_hp_uri"`

	// SinkBackend, when non-empty, persists every published result for
	// this Manager through internal/sink in addition to forwarding it
	// downstream on the result sockets.
	SinkBackend string `json:"sink_backend,omitempty"`
}

// Config is the Supervisor's configuration record, loaded once at
// process startup. Field names mirror spec §6 "Configuration record".
type Config struct {
	ProcessName string `json:"process_name"`
	LogPath     string `json:"log_path"`
	LogMode     string `json:"log_mode"` // "json" or "console"
	LogLevel    string `json:"log_level"`

	ProcessingType string       `json:"processing_type"`
	DataflowType   DataflowType `json:"dataflow_type"`
	DatasocketType SocketType   `json:"datasocket_type"`

	LPDataURI string `json:"lp_data_uri"`
	HPDataURI string `json:"hp_data_uri"`
	CommandURI string `json:"command_uri"`
	MonitorURI string `json:"monitor_uri"`

	// CtrlURI, when non-empty, is the frontend control port CtrlClient
	// dials at construction.
	CtrlURI string `json:"ctrl_uri,omitempty"`
	RunID   uint16 `json:"run_id,omitempty"`

	Managers []ManagerConfig `json:"managers"`

	// FlushIntervalMillis and FlushMaxRecords bound how often a Manager's
	// buffered sink records are flushed (SPEC_FULL §3 "Batch record").
	FlushIntervalMillis int `json:"flush_interval_millis,omitempty"`
	FlushMaxRecords     int `json:"flush_max_records,omitempty"`

	DedupeEnabled bool `json:"dedupe_enabled,omitempty"`

	SinkBackend   string `json:"sink_backend,omitempty"`
	SinkDir       string `json:"sink_dir,omitempty"`
	SinkCompress  bool   `json:"sink_compress,omitempty"`
	SinkECEnabled bool   `json:"sink_ec_enabled,omitempty"`
	SinkECDataShards   int `json:"sink_ec_data_shards,omitempty"`
	SinkECParityShards int `json:"sink_ec_parity_shards,omitempty"`

	S3Bucket    string `json:"s3_bucket,omitempty"`
	S3Prefix    string `json:"s3_prefix,omitempty"`
	HDFSAddr    string `json:"hdfs_addr,omitempty"`
	HDFSDir     string `json:"hdfs_dir,omitempty"`

	// MonitorHTTPAddr, when non-empty, starts the fasthttp status/metrics
	// surface described in SPEC_FULL §4.6.
	MonitorHTTPAddr string `json:"monitor_http_addr,omitempty"`
}

// Load reads and parses a Config from path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, cmn.WrapError(cmn.KindConfigurationInvalid, err, "read config file")
	}
	var c Config
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, cmn.WrapError(cmn.KindConfigurationInvalid, err, "parse config file")
	}
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.FlushIntervalMillis <= 0 {
		c.FlushIntervalMillis = 1000
	}
	if c.FlushMaxRecords <= 0 {
		c.FlushMaxRecords = 500
	}
	if c.SinkECDataShards <= 0 {
		c.SinkECDataShards = 4
	}
	if c.SinkECParityShards <= 0 {
		c.SinkECParityShards = 2
	}
	if c.LogMode == "" {
		c.LogMode = "console"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// Validate checks the record for internal consistency, returning a
// *cmn.Error of kind KindConfigurationInvalid describing the first
// problem found.
func (c *Config) Validate() error {
	if c.ProcessName == "" {
		return cmn.NewError(cmn.KindConfigurationInvalid, "process_name is required")
	}
	switch c.DataflowType {
	case DataflowBinary, DataflowFilename, DataflowString:
	default:
		return cmn.NewError(cmn.KindConfigurationInvalid, "dataflow_type must be one of binary|filename|string, got "+string(c.DataflowType))
	}
	switch c.DatasocketType {
	case SocketPushPull, SocketPubSub, SocketCustom:
	default:
		return cmn.NewError(cmn.KindConfigurationInvalid, "datasocket_type must be one of pushpull|pubsub|custom, got "+string(c.DatasocketType))
	}
	if c.LPDataURI == "" || c.HPDataURI == "" {
		return cmn.NewError(cmn.KindConfigurationInvalid, "lp_data_uri and hp_data_uri are required")
	}
	if c.CommandURI == "" || c.MonitorURI == "" {
		return cmn.NewError(cmn.KindConfigurationInvalid, "command_uri and monitor_uri are required")
	}
	if len(c.Managers) == 0 {
		return cmn.NewError(cmn.KindConfigurationInvalid, "at least one manager is required")
	}
	seen := make(map[string]bool, len(c.Managers))
	for i := range c.Managers {
		m := &c.Managers[i]
		if m.Name == "" {
			return cmn.NewError(cmn.KindConfigurationInvalid, "manager name is required")
		}
		if seen[m.Name] {
			return cmn.NewError(cmn.KindConfigurationInvalid, "duplicate manager name "+m.Name)
		}
		seen[m.Name] = true
		if m.WorkerCount <= 0 {
			return cmn.NewError(cmn.KindConfigurationInvalid, "manager "+m.Name+": worker_count must be > 0")
		}
		switch m.ResultSocketType {
		case SocketPushPull, SocketPubSub, SocketCustom, SocketNone, "":
		default:
			return cmn.NewError(cmn.KindConfigurationInvalid, "manager "+m.Name+": invalid result_socket_type")
		}
	}
	if c.SinkBackend != "" {
		switch c.SinkBackend {
		case "local", "s3", "hdfs":
		default:
			return cmn.NewError(cmn.KindConfigurationInvalid, "sink_backend must be one of local|s3|hdfs")
		}
	}
	return nil
}

// WorkerNamesOrDefault returns m.WorkerNames if populated, else
// synthesizes "<manager>-worker-<i>" for i in [0,WorkerCount).
func (m *ManagerConfig) WorkerNamesOrDefault() []string {
	if len(m.WorkerNames) == m.WorkerCount {
		return m.WorkerNames
	}
	names := make([]string, m.WorkerCount)
	for i := range names {
		names[i] = m.Name + "-worker-" + strconv.Itoa(i)
	}
	return names
}
