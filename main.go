package main

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"

	"golang.org/x/term"

	"github.com/divVerent/midisplitter/internal/file"
	"github.com/divVerent/midisplitter/internal/processor"
	"github.com/divVerent/midisplitter/internal/smf"
	"github.com/divVerent/midisplitter/internal/version"
)

var (
	c             = flag.String("c", "", "config file name (YAML)")
	i             = flag.String("i", "", "input file name (MIDI)")
	optionsFile   = flag.String("options", "", "input options file name (YAML); overrides -i")
	addChecksum   = flag.Bool("add_checksum", false, "automatically add checksum to the options YAML")
	oPrefix       = flag.String("o_prefix", "", "output file name prefix")
	zipFile       = flag.String("zip", "", "write all outputs into this zip file instead of separate files")
	agePassphrase = flag.String("age_passphrase", "", "encrypt the zip file with this age passphrase")
	agePrompt     = flag.Bool("age_prompt", false, "read the age passphrase from the terminal")
	policy        = flag.String("policy", "", "velocity policy for the other tracks: mute, keep or reduce:N")
	runningStatus = flag.String("running_status", "", "running status compression: auto, always or never")
	all           = flag.Bool("all", false, "also write a file with all tracks unchanged")
	verify        = flag.Bool("verify", false, "read every output back with gomidi")
	verbose       = flag.Bool("v", false, "log what is being done")
	dump          = flag.Bool("dump", false, "dump the input events and exit")
	printVersion  = flag.Bool("version", false, "print the version and exit")
)

func loadConfig(setFlags map[string]bool) (*processor.Config, error) {
	config := &processor.Config{}
	if *c != "" {
		var err error
		config, err = file.ReadConfig(splitPath(*c))
		if err != nil {
			return nil, fmt.Errorf("failed to read config %v: %w", *c, err)
		}
	}
	if setFlags["policy"] {
		p, err := processor.ParseVelocityPolicy(*policy)
		if err != nil {
			return nil, err
		}
		config.Policy = p
	}
	if setFlags["running_status"] {
		m, err := smf.ParseRunningStatusMode(*runningStatus)
		if err != nil {
			return nil, err
		}
		config.RunningStatus = m
	}
	if setFlags["all"] {
		config.IncludeAll = *all
	}
	if setFlags["verify"] {
		config.Verify = *verify
	}
	if setFlags["v"] {
		config.Verbose = *verbose
	}
	return config, nil
}

func loadOptions() (*processor.Options, error) {
	if *optionsFile == "" {
		if *i == "" {
			return nil, errors.New("need -i or -options")
		}
		return &processor.Options{InputFile: *i}, nil
	}
	return file.ReadOptions(splitPath(*optionsFile))
}

// splitPath turns a path into a file system and a name valid in it.
func splitPath(name string) (fs.FS, string) {
	abs, err := filepath.Abs(name)
	if err != nil {
		return os.DirFS("."), name
	}
	return os.DirFS(filepath.Dir(abs)), filepath.Base(abs)
}

// inputPath returns the input file path relative to the working directory.
func inputPath(options *processor.Options) string {
	if *optionsFile == "" || filepath.IsAbs(options.InputFile) {
		return options.InputFile
	}
	return filepath.Join(filepath.Dir(*optionsFile), options.InputFile)
}

func passphrase() (string, error) {
	if !*agePrompt {
		return *agePassphrase, nil
	}
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("-age_prompt needs a terminal")
	}
	fmt.Fprint(os.Stderr, "age passphrase: ")
	pw, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("could not read passphrase: %w", err)
	}
	return string(pw), nil
}

func Main() error {
	setFlags := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { setFlags[f.Name] = true })

	config, err := loadConfig(setFlags)
	if err != nil {
		return err
	}
	options, err := loadOptions()
	if err != nil {
		return err
	}

	input := inputPath(options)

	if *dump {
		data, err := os.ReadFile(input)
		if err != nil {
			return fmt.Errorf("could not read %v: %w", input, err)
		}
		mid, err := smf.Decode(data)
		if err != nil {
			return fmt.Errorf("could not decode %v: %w", input, err)
		}
		processor.Dump(input, mid, true)
		return nil
	}

	wantChecksum := options.InputFileSHA256 == ""

	fsys, name := splitPath(input)
	in := *options
	in.InputFile = name
	output, err := file.Process(fsys, config, &in)
	if errors.Is(err, smf.ErrNotSplittable) {
		return fmt.Errorf("%v is a format 0 file with a single multi-channel track; convert it to format 1 first: %w", input, err)
	}
	if err != nil {
		return err
	}
	options.InputFileSHA256 = in.InputFileSHA256

	prefix := *oPrefix
	if prefix == "" {
		prefix = options.OutputPrefix
	}
	if prefix == "" {
		prefix = file.PrefixFromInput(input)
	}
	zipName := *zipFile
	if zipName == "" {
		zipName = options.Zip
	}

	if zipName != "" {
		pw, err := passphrase()
		if err != nil {
			return err
		}
		err = file.WriteZipFile(zipName, prefix, pw, output)
		if err != nil {
			return fmt.Errorf("failed to write %v: %w", zipName, err)
		}
		log.Printf("wrote %d files to %v.", len(output), zipName)
	} else {
		names, err := file.WriteFiles(prefix, output)
		if err != nil {
			return err
		}
		for _, name := range names {
			log.Printf("wrote %v.", name)
		}
	}

	if *optionsFile != "" && wantChecksum && *addChecksum {
		err = file.WriteOptions(*optionsFile, options)
		if err != nil {
			return fmt.Errorf("failed to write %v: %w", *optionsFile, err)
		}
	}

	return nil
}

func main() {
	flag.Parse()
	if *printVersion {
		fmt.Println(version.Version())
		return
	}
	err := Main()
	if err != nil {
		log.Println(err)
		os.Exit(1)
	}
}
