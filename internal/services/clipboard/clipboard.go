// Package clipboard provides access to the system clipboard.
package clipboard

import (
	"github.com/atotto/clipboard"
)

// Copier places a rendered document on the system clipboard.
type Copier interface {
	CopyDocument(document string) error
}

// Service implements Copier using github.com/atotto/clipboard.
type Service struct{}

// NewService constructs a clipboard service implementation.
func NewService() *Service {
	return &Service{}
}

// CopyDocument writes the document to the system clipboard.
func (service *Service) CopyDocument(document string) error {
	return clipboard.WriteAll(document)
}

var _ Copier = (*Service)(nil)
