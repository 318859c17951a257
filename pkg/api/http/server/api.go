package server

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/gorilla/mux"

	"github.com/charonlabs/charon/pkg/api"
	"github.com/charonlabs/charon/pkg/api/http/common"
	"github.com/charonlabs/charon/pkg/structs"
)

const (
	wait = 30 * time.Second
)

type Server struct {
	addr       string
	tlsCert    string
	tlsKey     string
	debug      bool
	svc        api.API
	exit       chan os.Signal
	httpserver *http.Server
}

func (s *Server) ServeForever(svc api.API) error {
	s.svc = svc

	router := mux.NewRouter()
	router.HandleFunc("/healthz", s.Health).Methods(http.MethodGet)
	router.HandleFunc(common.API_JOBS, s.Jobs).Methods(http.MethodGet, http.MethodPost)
	router.HandleFunc(common.API_JOB, s.FetchJob).Methods(http.MethodGet)
	router.HandleFunc(common.API_CONFIRM, s.ConfirmJob).Methods(http.MethodPost)

	if s.debug {
		log.Println("Debug enabled, adding per-request logging middleware")
		router.Use(loggingMiddleware)
	}

	s.httpserver = &http.Server{
		Handler:      router,
		Addr:         s.addr,
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
	}

	go func() {
		log.Println("Listening on", s.httpserver.Addr)
		var err error
		if s.tlsCert != "" && s.tlsKey != "" {
			err = s.httpserver.ListenAndServeTLS(s.tlsCert, s.tlsKey)
		} else {
			err = s.httpserver.ListenAndServe()
		}
		if err != nil {
			log.Println(err)
		}
	}()

	signal.Notify(s.exit, os.Interrupt)
	defer s.Close()
	<-s.exit

	ctx, cancel := context.WithTimeout(context.Background(), wait)
	defer cancel()
	s.httpserver.Shutdown(ctx)
	return nil
}

func (s *Server) Jobs(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.getJobs(w, r)
	case http.MethodPost:
		s.createJob(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) createJob(w http.ResponseWriter, r *http.Request) {
	cjr := &structs.CreateJobRequest{}
	err := unmarshalJson(w, r, cjr)
	if err != nil {
		return
	}

	resp, err := s.svc.CreateJob(r.Context(), cjr)
	if err != nil {
		http.Error(w, err.Error(), mapError(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	err = json.NewEncoder(w).Encode(resp)
	if err != nil {
		log.Println("failed to encode response:", err)
	}
}

func (s *Server) getJobs(w http.ResponseWriter, r *http.Request) {
	q := &structs.Query{}
	err := unmarshalQuery(w, r, q)
	if err != nil {
		return
	}

	resp, err := s.svc.Jobs(r.Context(), q)
	if err != nil {
		http.Error(w, err.Error(), mapError(err))
		return
	}
	if s.debug {
		log.Println(r.URL, "returned", len(resp.Jobs), "items")
	}

	w.Header().Set("Content-Type", "application/json")
	err = json.NewEncoder(w).Encode(resp)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// FetchJob serves one job. An unpaid job answers with a payment challenge
// (status 402) unless the request carries a proof the verifier accepts.
func (s *Server) FetchJob(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["job_id"]

	proof := r.Header.Get(common.HEADER_PAYMENT)
	if proof == "" {
		proof = r.URL.Query().Get(common.PARAM_PROOF)
	}

	resp, err := s.svc.FetchJob(r.Context(), id, proof)
	if err != nil {
		http.Error(w, err.Error(), mapError(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if resp.PaymentRequired {
		w.WriteHeader(http.StatusPaymentRequired)
	}
	err = json.NewEncoder(w).Encode(resp)
	if err != nil {
		log.Println("failed to encode response:", err)
	}
}

func (s *Server) ConfirmJob(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["job_id"]

	j, err := s.svc.ConfirmJob(r.Context(), id)
	if err != nil {
		http.Error(w, err.Error(), mapError(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	err = json.NewEncoder(w).Encode(j)
	if err != nil {
		log.Println("failed to encode response:", err)
	}
}

func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (s *Server) Close() error {
	s.exit <- os.Interrupt
	return nil
}

func NewServer(addr, tlsCert, tlsKey string, debug bool) *Server {
	return &Server{
		addr:    addr,
		tlsCert: tlsCert,
		tlsKey:  tlsKey,
		debug:   debug,
		exit:    make(chan os.Signal, 1),
	}
}
