package service

import (
	"context"
	"fmt"
	"path"

	"github.com/dkp-kub/bantuan-kub/internal/application/port"
	"github.com/dkp-kub/bantuan-kub/internal/domain/workflow"
)

// Document is a stored file served through a signed URL
type Document struct {
	Name    string
	Content []byte
}

// DocumentService resolves signed retrieval URLs back to stored documents
type DocumentService interface {
	Open(ctx context.Context, token string) (*Document, error)
}

type documentServiceImpl struct {
	files  port.FileStorage
	signer port.URLSigner
	logger Logger
}

// NewDocumentService creates a new DocumentService
func NewDocumentService(files port.FileStorage, signer port.URLSigner, logger Logger) DocumentService {
	return &documentServiceImpl{files: files, signer: signer, logger: logger}
}

// Open verifies token and reads the document it grants access to.
// An invalid or expired token is reported as unauthorized.
func (s *documentServiceImpl) Open(ctx context.Context, token string) (*Document, error) {
	p, err := s.signer.Verify(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", workflow.ErrUnauthorized, err)
	}
	if !s.files.Exists(ctx, p) {
		return nil, fmt.Errorf("%w: document %s", workflow.ErrNotFound, p)
	}

	content, err := s.files.Read(ctx, p)
	if err != nil {
		s.logger.Error("Failed to read document", "error", err, "path", p)
		return nil, workflow.StorageFailure("read document", err)
	}
	return &Document{Name: path.Base(p), Content: content}, nil
}
