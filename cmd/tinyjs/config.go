package main

import (
	"os"

	"gopkg.in/yaml.v2"

	"github.com/kristofer/tinyjs/pkg/vm"
)

// tuningFile is the optional on-disk shape of a VM tuning config, loaded
// the same way the teacher's addon pack loads a manifest: read the whole
// file, yaml.Unmarshal into a plain struct, apply only the fields present.
type tuningFile struct {
	StackCap     int   `yaml:"stack_cap"`
	CallDepthCap int   `yaml:"call_depth_cap"`
	GCThreshold  int64 `yaml:"gc_threshold"`
	HeapCapacity int   `yaml:"heap_capacity"`
}

// loadOptions reads path (if non-empty) as a YAML tuning file and overlays
// its fields onto vm.DefaultOptions(); a missing or empty path just returns
// the defaults, since config is never required (SPEC_FULL's Configuration
// clause).
func loadOptions(path string) (vm.Options, error) {
	opts := vm.DefaultOptions()
	if path == "" {
		return opts, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return opts, err
	}
	var cfg tuningFile
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return opts, err
	}
	if cfg.StackCap > 0 {
		opts.StackCap = cfg.StackCap
	}
	if cfg.CallDepthCap > 0 {
		opts.CallDepthCap = cfg.CallDepthCap
	}
	if cfg.GCThreshold > 0 {
		opts.GCThreshold = cfg.GCThreshold
	}
	if cfg.HeapCapacity > 0 {
		opts.HeapCapacity = cfg.HeapCapacity
	}
	return opts, nil
}
