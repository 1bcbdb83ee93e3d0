package file

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"filippo.io/age"

	"github.com/divVerent/midisplitter/internal/processor"
)

// OutputName returns the file name for an output: <prefix>_<name>.mid.
func OutputName(prefix string, o processor.Output) string {
	return fmt.Sprintf("%s_%s.mid", prefix, o.Name)
}

// PrefixFromInput derives an output prefix from the input file name.
func PrefixFromInput(inputFile string) string {
	ext := filepath.Ext(inputFile)
	switch strings.ToLower(ext) {
	case ".mid", ".midi", ".smf", ".kar":
		return strings.TrimSuffix(inputFile, ext)
	}
	return inputFile
}

// WriteFiles writes every output to its own file and returns the names written.
func WriteFiles(prefix string, outputs []processor.Output) ([]string, error) {
	var names []string
	for _, o := range outputs {
		name := OutputName(prefix, o)
		err := os.WriteFile(name, o.Data, 0o644)
		if err != nil {
			return names, fmt.Errorf("failed to write %v: %w", name, err)
		}
		names = append(names, name)
	}
	return names, nil
}

// WriteZip writes all outputs into a zip archive. Entry names use the base
// name of prefix.
func WriteZip(w io.Writer, prefix string, outputs []processor.Output) error {
	base := filepath.Base(prefix)
	zw := zip.NewWriter(w)
	for _, o := range outputs {
		f, err := zw.Create(OutputName(base, o))
		if err != nil {
			return fmt.Errorf("could not add %v to zip: %w", o.Name, err)
		}
		_, err = f.Write(o.Data)
		if err != nil {
			return fmt.Errorf("could not write %v to zip: %w", o.Name, err)
		}
	}
	return zw.Close()
}

// Encrypt wraps w so that everything written is encrypted with an age
// passphrase. The returned writer must be closed.
func Encrypt(w io.Writer, passphrase string) (io.WriteCloser, error) {
	recipient, err := age.NewScryptRecipient(passphrase)
	if err != nil {
		return nil, fmt.Errorf("could not build scrypt recipient: %w", err)
	}
	return age.Encrypt(w, recipient)
}

// Decrypt reads age passphrase encrypted data.
func Decrypt(r io.Reader, passphrase string) ([]byte, error) {
	id, err := age.NewScryptIdentity(passphrase)
	if err != nil {
		return nil, fmt.Errorf("could not build scrypt identity: %w", err)
	}
	plaintextReader, err := age.Decrypt(r, id)
	if err != nil {
		return nil, fmt.Errorf("could not start decrypting: %w", err)
	}
	plaintext, err := io.ReadAll(plaintextReader)
	if err != nil {
		return nil, fmt.Errorf("could not finish decrypting: %w", err)
	}
	return plaintext, nil
}

// WriteZipFile writes the zip bundle to name, encrypted if passphrase is set.
func WriteZipFile(name, prefix, passphrase string, outputs []processor.Output) (err error) {
	f, err := os.Create(name)
	if err != nil {
		return fmt.Errorf("could not create %v: %w", name, err)
	}
	defer func() {
		closeErr := f.Close()
		if closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	if passphrase == "" {
		return WriteZip(f, prefix, outputs)
	}
	enc, err := Encrypt(f, passphrase)
	if err != nil {
		return err
	}
	err = WriteZip(enc, prefix, outputs)
	if err != nil {
		enc.Close()
		return err
	}
	return enc.Close()
}
