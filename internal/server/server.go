package server

import (
	"context"
	"embed"
	"encoding/base64"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"solarintake/internal/attachment"
	"solarintake/internal/cep"
	"solarintake/internal/intake"
	"solarintake/internal/submit"
	"solarintake/pkg/types"

	"github.com/alexedwards/flow"
	"github.com/go-playground/form/v4"
	"github.com/gorilla/securecookie"
	"github.com/sirupsen/logrus"
)

//go:embed templates
var uiFS embed.FS
var decoder = form.NewDecoder()

type Service struct {
	logger    *logrus.Logger
	config    *types.Config
	drafts    *intake.Registry
	lookuper  cep.Lookuper
	transport submit.Transport
	guard     *attachment.Guard
	templates *template.Template
	cookie    *securecookie.SecureCookie

	server *http.Server
}

func New(
	config *types.Config,
	logger *logrus.Logger,
	drafts *intake.Registry,
	lookuper cep.Lookuper,
	transport submit.Transport,
	guard *attachment.Guard,
) (*Service, error) {
	mux := flow.New()

	hashKey, blockKey, err := cookieKeys(config, logger)
	if err != nil {
		return nil, err
	}

	s := &Service{
		logger:    logger,
		config:    config,
		drafts:    drafts,
		lookuper:  lookuper,
		transport: transport,
		guard:     guard,
		cookie:    securecookie.New(hashKey, blockKey),

		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", config.ServerPort),
			ReadTimeout:       time.Duration(config.ReadTimeoutSec) * time.Second,
			ReadHeaderTimeout: time.Duration(config.ReadTimeoutSec) * time.Second,
			WriteTimeout:      time.Duration(config.WriteTimeoutSec) * time.Second,
			MaxHeaderBytes:    1 << 20,
		},
	}

	templates, err := loadTemplates()
	if err != nil {
		return nil, err
	}
	s.templates = templates

	s.buildRouter(mux)
	// unmatched paths never reach mux middleware, so the redirect wraps it
	s.server.Handler = s.StripTrailingSlash(mux)

	return s, nil
}

func (s *Service) Start() error {
	return s.server.ListenAndServe()
}

func (s *Service) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Service) Handler() http.Handler {
	return s.server.Handler
}

// cookieKeys decodes the configured keys. Without a hash key, random keys
// are generated and drafts do not survive a restart.
func cookieKeys(config *types.Config, logger logrus.FieldLogger) ([]byte, []byte, error) {
	if config.CookieHashKey == "" {
		logger.Warn("COOKIE_HASH_KEY not set, using ephemeral cookie keys")
		return securecookie.GenerateRandomKey(32), securecookie.GenerateRandomKey(32), nil
	}

	hashKey, err := base64.StdEncoding.DecodeString(config.CookieHashKey)
	if err != nil {
		return nil, nil, fmt.Errorf("decode cookie hash key: %w", err)
	}

	var blockKey []byte
	if config.CookieBlockKey != "" {
		blockKey, err = base64.StdEncoding.DecodeString(config.CookieBlockKey)
		if err != nil {
			return nil, nil, fmt.Errorf("decode cookie block key: %w", err)
		}
	}

	return hashKey, blockKey, nil
}

func (s *Service) buildRouter(r *flow.Mux) {
	r.Use(s.LoggingMiddleware)

	r.HandleFunc("/", s.handleHome, http.MethodGet)
	r.HandleFunc("/healthz", s.handleHealth, http.MethodGet)
	r.HandleFunc("/forms", s.handleCreateDraft, http.MethodPost)
	r.HandleFunc("/cep/:code", s.handleLookupCEP, http.MethodGet)

	r.Group(func(r *flow.Mux) {
		r.Use(s.RequireDraft)

		r.HandleFunc("/form", s.handleGetForm, http.MethodGet)
		r.HandleFunc("/form/reset", s.handleResetForm, http.MethodPost)
		r.HandleFunc("/form/customer", s.handlePostCustomer, http.MethodPost)
		r.HandleFunc("/form/beneficiary-flag", s.handlePostBeneficiaryFlag, http.MethodPost)

		r.HandleFunc("/form/beneficiaries", s.handlePostBeneficiary, http.MethodPost)
		r.HandleFunc("/form/beneficiaries/:beneficiaryID", s.handleRenameBeneficiary, http.MethodPost)
		r.HandleFunc("/form/beneficiaries/:beneficiaryID", s.handleDeleteBeneficiary, http.MethodDelete)
		r.HandleFunc("/form/beneficiaries/:beneficiaryID/address", s.handlePostBeneficiaryAddress, http.MethodPost)
		r.HandleFunc("/form/beneficiaries/:beneficiaryID/files", s.handlePostBeneficiaryFiles, http.MethodPost)
		r.HandleFunc("/form/beneficiaries/:beneficiaryID/files/:index", s.handleDeleteBeneficiaryFile, http.MethodDelete)

		r.HandleFunc("/form/addresses/:target", s.handlePostAddress, http.MethodPost)

		r.HandleFunc("/form/roof/description", s.handlePostRoofDescription, http.MethodPost)
		r.HandleFunc("/form/roof/:kind/:tag", s.handleToggleRoof, http.MethodPost)

		r.HandleFunc("/form/slots/:slot", s.handlePostSlotFiles, http.MethodPost)
		r.HandleFunc("/form/slots/:slot/:index", s.handleDeleteSlotFile, http.MethodDelete)

		r.HandleFunc("/form/submit", s.handleSubmit, http.MethodPost)
	})
}

func loadTemplates() (*template.Template, error) {
	funcMap := template.FuncMap{
		"size": attachment.FormatSize,
		"percent": func(part, whole int64) int64 {
			if whole == 0 {
				return 0
			}
			return part * 100 / whole
		},
		"selected": func(selected []string, id string) bool {
			for _, v := range selected {
				if v == id {
					return true
				}
			}
			return false
		},
	}

	t := template.New("").Funcs(funcMap)
	err := fs.WalkDir(uiFS, "templates", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".html") {
			return nil
		}

		data, err := fs.ReadFile(uiFS, path)
		if err != nil {
			return fmt.Errorf("read template %s: %w", path, err)
		}

		if _, err := t.Parse(string(data)); err != nil {
			return fmt.Errorf("parse template %s: %w", path, err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return t, nil
}
