package documents

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/swethakommuri/GEN-AI-DEMO/internal/domain/clients"
	domain "github.com/swethakommuri/GEN-AI-DEMO/internal/domain/documents"
	"github.com/swethakommuri/GEN-AI-DEMO/internal/domain/roles"
	"github.com/swethakommuri/GEN-AI-DEMO/internal/metrics"
)

// DefaultRecent is how many documents Recent returns when no limit is given.
const DefaultRecent = 5

// Extractor pulls text out of an uploaded payload.
type Extractor interface {
	Extract(ctx context.Context, fileName string, payload []byte) (text, contentType string)
}

// UploadCommand is a document upload from a client.
type UploadCommand struct {
	FileName     string     `validate:"required,max=255,docext"`
	Payload      []byte     `validate:"required"`
	Client       string     `validate:"required"`
	DocumentType string     `validate:"required,doctype"`
	AllowedRoles []string   `validate:"required,min=1,dive,required"`
	Uploader     roles.Role `validate:"-"`
}

type Service struct {
	roles     *roles.Table
	clients   *clients.Catalog
	extractor Extractor
	validate  *validator.Validate
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

func NewService(rt *roles.Table, cc *clients.Catalog, ex Extractor, m *metrics.Metrics, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		roles:     rt,
		clients:   cc,
		extractor: ex,
		validate:  NewValidator(),
		metrics:   m,
		logger:    logger,
	}
}

// NewValidator returns a validator with the upload rules registered.
func NewValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("doctype", func(fl validator.FieldLevel) bool {
		return slices.Contains(domain.Types, fl.Field().String())
	})
	_ = v.RegisterValidation("docext", func(fl validator.FieldLevel) bool {
		return AllowedExtension(fl.Field().String())
	})
	return v
}

// AllowedExtension reports whether the file name has an allow-listed extension.
func AllowedExtension(name string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	return slices.Contains(domain.Extensions, ext)
}

// Upload checks the uploader may add documents, validates the command and
// stores an excerpt of the payload in store.
func (s *Service) Upload(ctx context.Context, store domain.Store, cmd UploadCommand) (string, error) {
	if !cmd.Uploader.HasPermission(roles.PermUploadDocuments) {
		return "", fmt.Errorf("%w: %s", domain.ErrPermissionDenied, cmd.Uploader.Name)
	}
	if err := s.validate.Struct(cmd); err != nil {
		return "", fmt.Errorf("%w: %s", domain.ErrInvalidUpload, describe(err))
	}
	if _, err := s.clients.Lookup(cmd.Client, cmd.Uploader); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrInvalidUpload, err)
	}
	for _, r := range cmd.AllowedRoles {
		if !s.roles.Has(r) {
			return "", fmt.Errorf("%w: unknown role %q", domain.ErrInvalidUpload, r)
		}
	}

	text, contentType := s.extractor.Extract(ctx, cmd.FileName, cmd.Payload)
	id, err := store.Add(ctx, domain.NewDocument{
		Content:      text,
		FileName:     filepath.Base(cmd.FileName),
		Type:         cmd.DocumentType,
		ClientName:   cmd.Client,
		AllowedRoles: cmd.AllowedRoles,
		UploadedBy:   cmd.Uploader.Name,
	})
	if err != nil {
		return "", fmt.Errorf("add document: %w", err)
	}
	s.metrics.IncDocument(cmd.DocumentType)
	s.logger.InfoContext(ctx, "document uploaded",
		"id", id, "file", cmd.FileName, "content_type", contentType,
		"client", cmd.Client, "uploader", cmd.Uploader.Name)
	return id, nil
}

// Search runs a keyword search as role. An empty client searches all clients.
func (s *Service) Search(ctx context.Context, store domain.Store, query, client string, role roles.Role) ([]domain.Document, error) {
	return store.Search(ctx, domain.Query{Text: query, Role: role.Name, Client: client})
}

// Recent returns the newest documents visible to role.
func (s *Service) Recent(ctx context.Context, store domain.Store, role roles.Role, limit int) ([]domain.Document, error) {
	if limit <= 0 {
		limit = DefaultRecent
	}
	docs, err := store.Search(ctx, domain.Query{Role: role.Name})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(docs, func(i, j int) bool { return docs[i].CreatedAt.After(docs[j].CreatedAt) })
	if len(docs) > limit {
		docs = docs[:limit]
	}
	return docs, nil
}

func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
	}
	return strings.Join(msgs, "; ")
}
