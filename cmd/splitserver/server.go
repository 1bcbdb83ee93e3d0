package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/divVerent/midisplitter/internal/file"
	"github.com/divVerent/midisplitter/internal/processor"
	"github.com/divVerent/midisplitter/internal/smf"
	"github.com/divVerent/midisplitter/internal/version"
)

var (
	c       = flag.String("c", "", "config file name (YAML) with the defaults for every request")
	listen  = flag.String("listen", ":8080", "address to listen on")
	maxSize = flag.Int64("max_size", 16<<20, "maximum accepted MIDI file size in bytes")
)

type server struct {
	config  processor.Config
	maxSize int64
}

func newRouter(s *server) http.Handler {
	router := mux.NewRouter().StrictSlash(true)
	router.HandleFunc("/split", s.handleSplit).Methods("POST")
	router.HandleFunc("/healthz", handleHealth).Methods("GET")
	return cors.New(cors.Options{
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		ExposedHeaders: []string{"Content-Disposition", "X-Request-Id"},
	}).Handler(router)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	fmt.Fprintln(w, version.Version())
}

// readInput returns the uploaded MIDI file and its name. Both raw bodies
// and multipart forms with a "file" field are accepted.
func (s *server) readInput(r *http.Request) ([]byte, string, error) {
	body := http.MaxBytesReader(nil, r.Body, s.maxSize)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		r.Body = body
		f, header, err := r.FormFile("file")
		if err != nil {
			return nil, "", fmt.Errorf("could not read form field file: %w", err)
		}
		defer f.Close()
		data, err := io.ReadAll(f)
		return data, header.Filename, err
	}
	data, err := io.ReadAll(body)
	return data, r.URL.Query().Get("name"), err
}

// requestConfig applies query parameters to the server defaults.
func (s *server) requestConfig(r *http.Request) (*processor.Config, error) {
	config := s.config
	q := r.URL.Query()
	if p := q.Get("policy"); p != "" {
		policy, err := processor.ParseVelocityPolicy(p)
		if err != nil {
			return nil, err
		}
		config.Policy = policy
	}
	if rs := q.Get("running_status"); rs != "" {
		mode, err := smf.ParseRunningStatusMode(rs)
		if err != nil {
			return nil, err
		}
		config.RunningStatus = mode
	}
	if q.Get("all") != "" {
		config.IncludeAll = q.Get("all") == "1" || q.Get("all") == "true"
	}
	return &config, nil
}

func (s *server) handleSplit(w http.ResponseWriter, r *http.Request) {
	id := uuid.New().String()
	w.Header().Set("X-Request-Id", id)

	config, err := s.requestConfig(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	data, name, err := s.readInput(r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, err.Error(), http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	output, err := processor.Process(data, config)
	if err != nil {
		log.Printf("%s: could not split %q: %v", id, name, err)
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	prefix := file.PrefixFromInput(filepath.Base(name))
	if name == "" || prefix == "." || prefix == string(filepath.Separator) {
		prefix = id
	}
	var buf bytes.Buffer
	err = file.WriteZip(&buf, prefix, output)
	if err != nil {
		log.Printf("%s: could not build zip: %v", id, err)
		http.Error(w, "could not build zip", http.StatusInternalServerError)
		return
	}
	log.Printf("%s: split %q into %d files (%d bytes).", id, name, len(output), buf.Len())
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", prefix+".zip"))
	w.Write(buf.Bytes())
}

func Main() error {
	s := &server{maxSize: *maxSize}
	if *c != "" {
		abs, err := filepath.Abs(*c)
		if err != nil {
			return err
		}
		config, err := file.ReadConfig(os.DirFS(filepath.Dir(abs)), filepath.Base(abs))
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}
		s.config = *config
	}
	log.Printf("splitserver %s listening on %s.", version.Version(), *listen)
	return http.ListenAndServe(*listen, newRouter(s))
}

func main() {
	flag.Parse()
	err := Main()
	if err != nil {
		log.Println(err)
		os.Exit(1)
	}
}
