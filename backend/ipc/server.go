package ipc

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"
)

var errMissingParam = errors.New("missing query parameter")

type PlaybackHandler interface {
	Open(ref string) error
	Play() error
	Pause() error
	PlayPause() error
	Next() error
	Previous() error
	SeekTo(secs float64) error
	SeekBy(secs float64) error
	// SetLoop sets the loop mode, or toggles it if on is nil.
	// Returns the resulting mode.
	SetLoop(on *bool) (bool, error)
	// SetVolume returns the applied (clamped) volume.
	SetVolume(vol float64) (float64, error)
	Status() Status
}

type WindowHandler interface {
	Show()
	Hide()
	Quit()
}

type serverImpl struct {
	pbHandler PlaybackHandler
	wdHandler WindowHandler
	log       *log.Logger
}

func NewServer(pbHandler PlaybackHandler, wdHandler WindowHandler, logger *log.Logger) *http.Server {
	if logger == nil {
		logger = log.Default()
	}
	s := serverImpl{pbHandler: pbHandler, wdHandler: wdHandler, log: logger.WithPrefix("ipc")}
	return &http.Server{
		Handler: s.createHandler(),
	}
}

func (s *serverImpl) createHandler() http.Handler {
	m := http.NewServeMux()
	m.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("The given path is not valid"))
	})
	m.HandleFunc(PingPath, s.makeSimpleEndpointHandler(func() error { return nil }))
	m.HandleFunc(ShowPath, s.makeSimpleEndpointHandler(func() error {
		s.wdHandler.Show()
		return nil
	}))
	m.HandleFunc(HidePath, s.makeSimpleEndpointHandler(func() error {
		s.wdHandler.Hide()
		return nil
	}))
	m.HandleFunc(QuitPath, s.makeSimpleEndpointHandler(func() error {
		go s.wdHandler.Quit()
		return nil
	}))
	m.HandleFunc(StatusPath, func(w http.ResponseWriter, r *http.Request) {
		s.writeJSON(w, s.pbHandler.Status())
	})
	m.HandleFunc(OpenPath, func(w http.ResponseWriter, r *http.Request) {
		ref := r.URL.Query().Get("ref")
		if ref == "" {
			s.writeErr(w, http.StatusBadRequest, fmt.Errorf("%w: ref", errMissingParam))
			return
		}
		s.writeSimpleResponse(w, s.pbHandler.Open(ref))
	})
	m.HandleFunc(PlayPath, s.makeSimpleEndpointHandler(s.pbHandler.Play))
	m.HandleFunc(PausePath, s.makeSimpleEndpointHandler(s.pbHandler.Pause))
	m.HandleFunc(PlayPausePath, s.makeSimpleEndpointHandler(s.pbHandler.PlayPause))
	m.HandleFunc(PreviousPath, s.makeSimpleEndpointHandler(s.pbHandler.Previous))
	m.HandleFunc(NextPath, s.makeSimpleEndpointHandler(s.pbHandler.Next))
	m.HandleFunc(SeekToPath, s.makeSecondsHandler(s.pbHandler.SeekTo))
	m.HandleFunc(SeekByPath, s.makeSecondsHandler(s.pbHandler.SeekBy))
	m.HandleFunc(LoopPath, func(w http.ResponseWriter, r *http.Request) {
		var on *bool
		if v := r.URL.Query().Get("on"); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				s.writeErr(w, http.StatusBadRequest, err)
				return
			}
			on = &b
		}
		loop, err := s.pbHandler.SetLoop(on)
		if err != nil {
			s.writeErr(w, http.StatusInternalServerError, err)
			return
		}
		s.writeJSON(w, struct {
			Loop bool `json:"loop"`
		}{Loop: loop})
	})
	m.HandleFunc(VolumePath, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			s.writeJSON(w, struct {
				Volume float64 `json:"volume"`
			}{Volume: s.pbHandler.Status().Volume})
			return
		}
		v, err := floatParam(r, "v")
		if err != nil {
			s.writeErr(w, http.StatusBadRequest, err)
			return
		}
		applied, err := s.pbHandler.SetVolume(v)
		if err != nil {
			s.writeErr(w, http.StatusInternalServerError, err)
			return
		}
		s.writeJSON(w, struct {
			Volume float64 `json:"volume"`
		}{Volume: applied})
	})
	return m
}

func (s *serverImpl) makeSimpleEndpointHandler(f func() error) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		s.log.Debug("request", "path", r.URL.Path)
		s.writeSimpleResponse(w, f())
	}
}

func (s *serverImpl) makeSecondsHandler(f func(float64) error) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		secs, err := floatParam(r, "s")
		if err != nil {
			s.writeErr(w, http.StatusBadRequest, err)
			return
		}
		s.log.Debug("request", "path", r.URL.Path, "secs", secs)
		s.writeSimpleResponse(w, f(secs))
	}
}

func floatParam(r *http.Request, name string) (float64, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, fmt.Errorf("%w: %s", errMissingParam, name)
	}
	return strconv.ParseFloat(v, 64)
}

func (s *serverImpl) writeSimpleResponse(w http.ResponseWriter, err error) {
	if err == nil {
		s.writeJSON(w, Response{})
	} else {
		s.writeErr(w, http.StatusInternalServerError, err)
	}
}

func (s *serverImpl) writeJSON(w http.ResponseWriter, v any) (int, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return 0, err
	}
	w.Header().Set("Content-Type", "application/json")
	return w.Write(b)
}

func (s *serverImpl) writeErr(w http.ResponseWriter, status int, err error) (int, error) {
	s.log.Warn("request failed", "err", err)
	r := Response{Error: err.Error()}
	b, err := json.Marshal(&r)
	if err != nil {
		return 0, err
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return w.Write(b)
}
