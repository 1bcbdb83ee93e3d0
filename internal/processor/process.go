package processor

import (
	"fmt"
	"log"

	"github.com/divVerent/midisplitter/internal/smf"
)

// AllName is the name of the optional output holding the untouched input.
const AllName = "All"

// Config is the global configuration.
type Config struct {
	// Policy is applied to note-on events of every track but the selected one.
	Policy VelocityPolicy `yaml:"policy,omitempty"`

	// RunningStatus controls running status compression of the outputs.
	RunningStatus smf.RunningStatusMode `yaml:"running_status,omitempty"`

	// IncludeAll adds an output with all tracks unchanged.
	IncludeAll bool `yaml:"include_all,omitempty"`

	// Verify reads every output back with an independent MIDI parser.
	Verify bool `yaml:"verify,omitempty"`

	// Verbose logs what is being done.
	Verbose bool `yaml:"verbose,omitempty"`
}

// Options describe one input file.
type Options struct {
	InputFile       string `yaml:"input_file"`
	InputFileSHA256 string `yaml:"input_file_sha256,omitempty"`

	// OutputPrefix is prepended to every output file name.
	OutputPrefix string `yaml:"output_prefix,omitempty"`

	// Zip, if set, bundles all outputs into this zip file instead.
	Zip string `yaml:"zip,omitempty"`
}

// Output is one encoded result file.
type Output struct {
	// Index is the selected track, or -1 for the All output.
	Index int
	// Name is a label derived from the track name.
	Name string
	Data []byte
}

// Process splits the given MIDI file into one file per track.
func Process(in []byte, config *Config) ([]Output, error) {
	// A single track cannot be split, whatever the rest of the file holds.
	if format, err := smf.ReadFormat(in); err == nil && format == 0 {
		return nil, fmt.Errorf("format 0 file: %w", smf.ErrNotSplittable)
	}
	mid, err := smf.Decode(in)
	if err != nil {
		return nil, fmt.Errorf("could not decode: %w", err)
	}
	if config.Verbose {
		Dump("input", mid, false)
	}
	splits, err := Split(mid, config.Policy)
	if err != nil {
		return nil, err
	}

	var reserved []string
	if config.IncludeAll {
		reserved = append(reserved, AllName)
	}
	labels := trackLabels(mid, reserved...)
	opts := smf.EncodeOptions{RunningStatus: config.RunningStatus}

	outputs := make([]Output, 0, len(splits)+1)
	for i, s := range splits {
		data, err := smf.Encode(s, opts)
		if err != nil {
			return nil, fmt.Errorf("could not encode track %d: %w", i, err)
		}
		if config.Verify {
			if err := verifyOutput(data, s, i, config.Policy); err != nil {
				return nil, fmt.Errorf("verification of track %d failed: %w", i, err)
			}
		}
		if config.Verbose {
			log.Printf("track %d: %s (%d bytes, policy %v).", i, labels[i], len(data), config.Policy)
		}
		outputs = append(outputs, Output{Index: i, Name: labels[i], Data: data})
	}

	if config.IncludeAll {
		data, err := smf.Encode(mid, opts)
		if err != nil {
			return nil, fmt.Errorf("could not encode all tracks: %w", err)
		}
		if config.Verify {
			if err := verifyOutput(data, mid, -1, VelocityPolicy{Kind: Keep}); err != nil {
				return nil, fmt.Errorf("verification of all tracks failed: %w", err)
			}
		}
		outputs = append(outputs, Output{Index: -1, Name: AllName, Data: data})
	}
	return outputs, nil
}
