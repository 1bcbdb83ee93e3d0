package file

import (
	"crypto/sha256"
	"fmt"
	"io/fs"

	"github.com/divVerent/midisplitter/internal/processor"
)

// Process reads the input named by options from fsys and splits it. If
// options carries no checksum yet, it is filled in.
func Process(fsys fs.FS, config *processor.Config, options *processor.Options) ([]processor.Output, error) {
	inBytes, err := fs.ReadFile(fsys, options.InputFile)
	if err != nil {
		return nil, fmt.Errorf("could not read %v: %w", options.InputFile, err)
	}

	sum := fmt.Sprintf("%x", sha256.Sum256(inBytes))
	if options.InputFileSHA256 != "" && options.InputFileSHA256 != sum {
		return nil, fmt.Errorf("mismatching checksum of %v: got %v, want %v", options.InputFile, sum, options.InputFileSHA256)
	}

	output, err := processor.Process(inBytes, config)
	if err != nil {
		return nil, fmt.Errorf("failed to process %v: %w", options.InputFile, err)
	}

	options.InputFileSHA256 = sum
	return output, nil
}
