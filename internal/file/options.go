package file

import (
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/divVerent/midisplitter/internal/processor"
)

func ReadOptions(fsys fs.FS, optionsFile string) (*processor.Options, error) {
	f, err := fsys.Open(optionsFile)
	if err != nil {
		return nil, fmt.Errorf("could not open %v: %w", optionsFile, err)
	}
	defer f.Close()
	var options processor.Options
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	err = dec.Decode(&options)
	if err != nil {
		return nil, fmt.Errorf("could not decode %v: %w", optionsFile, err)
	}
	if options.InputFile == "" {
		return nil, fmt.Errorf("%v has no input_file", optionsFile)
	}
	return &options, nil
}

func WriteOptions(optionsFile string, options *processor.Options) (err error) {
	f, err := os.Create(optionsFile)
	if err != nil {
		return fmt.Errorf("could not recreate %v: %w", optionsFile, err)
	}
	defer func() {
		closeErr := f.Close()
		if closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	enc := yaml.NewEncoder(f)
	enc.SetIndent(2) // Match yq.
	return enc.Encode(options)
}
